package app

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridepay/internal/handler"
	"ridepay/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TapHandler         *handler.TapHandler
	TopUpHandler       *handler.TopUpHandler
	TransactionHandler *handler.TransactionHandler
	BusHandler         *handler.BusHandler
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
	Logger             *slog.Logger
	DeviceTokenSecret  string
	AllowedOrigins     []string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware(deps.AllowedOrigins))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Mounted per route so it runs after device auth.
	idempotent := middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger)

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Device routes.
		tap := v1.Group("/tap")
		tap.Use(middleware.DeviceAuthMiddleware(deps.DeviceTokenSecret))
		tap.Use(middleware.TapAttributesMiddleware())
		tap.Use(idempotent)
		{
			tap.POST("/fixed", deps.TapHandler.Fixed)
			tap.POST("/distance", deps.TapHandler.Distance)
			tap.POST("/qr", deps.TapHandler.QR)
			tap.POST("/driver", deps.TapHandler.Driver)
		}

		// Top-up routes.
		v1.POST("/topups", idempotent, deps.TopUpHandler.TopUp)

		// Transaction routes.
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", idempotent, deps.TransactionHandler.Create)
			transactions.GET("", deps.TransactionHandler.List)
			transactions.GET("/:id", deps.TransactionHandler.Get)
		}

		// Bus routes.
		buses := v1.Group("/buses")
		{
			buses.GET("/:id/assignment", deps.BusHandler.GetAssignment)
		}
	}

	return router
}
