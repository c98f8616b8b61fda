package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pageza/caltrack/web/internal/identity"
	"github.com/pageza/caltrack/web/internal/nutrition"
	"github.com/pageza/caltrack/web/internal/profile"
	"github.com/pageza/caltrack/web/internal/realtime"
	"github.com/pageza/caltrack/web/internal/remote"
	"github.com/pageza/caltrack/web/internal/testhelpers"
	"github.com/pageza/caltrack/web/internal/tracker"
	"github.com/stretchr/testify/require"
)

// testEnv wires the real services against a fake meal API and sqlite.
type testEnv struct {
	Router   *gin.Engine
	MealAPI  *testhelpers.FakeMealAPI
	Profiles *profile.Store
	Tracker  *tracker.Tracker
	Hub      *realtime.Hub
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mealAPI := testhelpers.NewFakeMealAPI(t)
	client, err := remote.NewClient(mealAPI.URL())
	require.NoError(t, err)

	hub := realtime.NewHub(nil)
	profiles := profile.NewStore(testhelpers.SetupTestStore(t), client)
	profiles.AddListener(hub)
	tr := tracker.New(client, tracker.WithNotifier(hub))

	router := gin.New()
	SetupAPI(router, Dependencies{
		Identity: identity.NewProvider(),
		Profiles: profiles,
		Resolver: nutrition.NewResolver(profiles),
		Tracker:  tr,
		Hub:      hub,
	})

	return &testEnv{
		Router:   router,
		MealAPI:  mealAPI,
		Profiles: profiles,
		Tracker:  tr,
		Hub:      hub,
	}
}

// PerformRequest sends a JSON request as the anonymous user userID. An empty
// userID sends no identity cookie.
func PerformRequest(r http.Handler, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.AddCookie(&http.Cookie{Name: identity.CookieName, Value: userID})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
