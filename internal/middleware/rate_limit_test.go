package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/caltrack/web/internal/identity"
	"github.com/pageza/caltrack/web/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_IsAllowed(t *testing.T) {
	client := testhelpers.SetupRedisContainer(t)
	rl := NewRateLimiter(client, RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "test"})
	ctx := context.Background()

	allowed, remaining, _, err := rl.IsAllowed(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, remaining, _, err = rl.IsAllowed(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _, _, err = rl.IsAllowed(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, _, err = rl.IsAllowed(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_Middleware(t *testing.T) {
	client := testhelpers.SetupRedisContainer(t)
	rl := NewMealSubmissionRateLimiter(client, 1)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Identity(identity.NewProvider()))
	router.POST("/meals", rl.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/meals", nil)
		req.AddCookie(&http.Cookie{Name: identity.CookieName, Value: "rate-limited-user"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	rr := send()
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))

	rr = send()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "rate limit exceeded")
}

func TestRateLimiter_RequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewMealSubmissionRateLimiter(nil, 1)
	router := gin.New()
	router.POST("/meals", rl.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/meals", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
