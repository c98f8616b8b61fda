package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/caltrack/web/internal/api"
	"github.com/pageza/caltrack/web/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(allowedOrigins []string, deps api.Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())

	// CORS middleware
	router.Use(middleware.CORS(allowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	api.SetupAPI(router, deps)

	return router
}
