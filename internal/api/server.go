// Package api exposes the webhook, trigger and monitoring endpoints.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/newsbot/internal/logger"
)

// NewServer creates the gin engine with all routes configured.
func NewServer(handler *Handler, triggerToken string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger())
	r.Use(gin.Recovery())

	setupRoutes(r, handler, triggerToken)
	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, triggerToken string) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Line Bot Server is running!")
	})

	if handler.events != nil {
		r.POST("/callback", handler.Callback)
	}

	triggers := r.Group("/")
	if triggerToken != "" {
		triggers.Use(authMiddleware(triggerToken))
		logger.Info("trigger endpoints require a token")
	} else {
		logger.Warn("trigger endpoints are open (TRIGGER_TOKEN not set)")
	}
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		triggers.Handle(method, "/send_tech_news", handler.SendNews("tech"))
		triggers.Handle(method, "/send_business_news", handler.SendNews("business"))
		triggers.Handle(method, "/cleanup", handler.Cleanup)
	}

	r.GET("/health", handler.Health)
	r.GET("/metrics", handler.Metrics)

	r.NoRoute(func(c *gin.Context) {
		logger.Warn("unknown path", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.String(http.StatusNotFound, "Not Found")
	})
}

// authMiddleware accepts the token from X-API-Key or Authorization: Bearer.
func authMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		if provided == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				provided = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			return
		}
		if provided != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
