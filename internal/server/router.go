package server

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/dossier-backend/internal/handlers"
	"github.com/yungbote/dossier-backend/internal/middleware"
	"github.com/yungbote/dossier-backend/internal/observability"
)

type RouterConfig struct {
	CORSOrigins    []string
	AuthMiddleware *middleware.AuthMiddleware
	ReviewHandler  *handlers.ReviewHandler
	DossierHandler *handlers.DossierHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("dossier-backend"))
	router.Use(apiMetrics())

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Review
	api.POST("/dossiers/:dossierId/review", cfg.ReviewHandler.SubmitBatch)
	api.GET("/dossiers/:dossierId/history/:entityId", cfg.ReviewHandler.GetHistory)
	// Dossier lookups
	api.GET("/dossiers/:dossierId", cfg.DossierHandler.GetDossier)
	api.GET("/dossiers/:dossierId/claims", cfg.DossierHandler.ListClaims)
	api.GET("/dossiers/:dossierId/graph", cfg.DossierHandler.GetGraph)

	return router
}

func apiMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m := observability.Current()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
