// Package handlers serves the feedback board REST API.
package handlers

import (
	"net/http"
	"time"

	"feedbackboard/internal/config"
	"feedbackboard/internal/middleware"
	"feedbackboard/internal/observability"
	"feedbackboard/internal/serviceinterfaces"
	"feedbackboard/internal/version"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
)

// ServiceName is reported by /health and used for server spans
const ServiceName = "feedback-server"

// NewRouter creates the Gin engine with middleware and all board routes
func NewRouter(cfg *config.Config, feedbackService serviceinterfaces.FeedbackServiceInterface, logger *observability.Logger) *gin.Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(requestLogger(logger))

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": ServiceName, "version": version.Version})
	})

	// Tracing first so the error attributes land on the server span
	router.Use(observability.GinMiddleware(ServiceName))
	router.Use(observability.GinErrorAttributes())

	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", config.HeaderUserID, config.HeaderUserRole}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug
	router.Use(secure.New(secureConfig))

	router.Use(middleware.Identity())

	feedbackHandler := NewFeedbackHandler(feedbackService, cfg, logger)

	api := router.Group("/api/feedback", middleware.CircuitBreaker(middleware.DefaultBreakerConfig()))
	{
		api.GET("", feedbackHandler.ListFeedback)
		api.GET("/stats", feedbackHandler.GetFeedbackStats)
		api.GET("/:id", feedbackHandler.GetFeedback)
		api.POST("", middleware.RequireUser(), feedbackHandler.CreateFeedback)
		api.POST("/:id/like", middleware.RequireUser(), feedbackHandler.LikeFeedback)
		api.POST("/:id/respond", middleware.RequireStaff(), feedbackHandler.RespondFeedback)
		api.PUT("/:id/status", middleware.RequireStaff(), feedbackHandler.UpdateFeedbackStatus)
		api.DELETE("/:id", middleware.RequireUser(), feedbackHandler.DeleteFeedback)
	}

	return router
}

// requestLogger logs one structured line per request using the observability logger
func requestLogger(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}
