package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/caltrack/web/internal/identity"
	"github.com/pageza/caltrack/web/internal/middleware"
	"github.com/pageza/caltrack/web/internal/nutrition"
	"github.com/pageza/caltrack/web/internal/profile"
	"github.com/pageza/caltrack/web/internal/realtime"
	"github.com/pageza/caltrack/web/internal/session"
	"github.com/pageza/caltrack/web/internal/tracker"
)

// Dependencies are the services behind the /api/v1 routes.
type Dependencies struct {
	Identity *identity.Provider
	Profiles *profile.Store
	Resolver *nutrition.Resolver
	Tracker  *tracker.Tracker
	// Hub and SubmitLimiter are optional
	Hub           *realtime.Hub
	SubmitLimiter *middleware.RateLimiter
}

func SetupAPI(router *gin.Engine, deps Dependencies) {
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity(deps.Identity))
	{
		sessionHandler := NewSessionHandler(deps.Profiles)
		profileHandler := NewProfileHandler(deps.Profiles)
		targetsHandler := NewTargetsHandler(deps.Resolver)
		mealsHandler := NewMealsHandler(deps.Tracker, deps.Resolver, deps.Profiles, deps.SubmitLimiter)

		sessionHandler.RegisterRoutes(v1)
		profileHandler.RegisterRoutes(v1)
		targetsHandler.RegisterRoutes(v1)
		mealsHandler.RegisterRoutes(v1)

		if deps.Hub != nil {
			NewRealtimeHandler(deps.Hub).RegisterRoutes(v1)
		}
	}
}

// currentSession aborts with 401 when the identity middleware did not run.
func currentSession(c *gin.Context) (*session.Session, bool) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not identified"})
		return nil, false
	}
	return sess, true
}
