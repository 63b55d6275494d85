package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	auth gin.HandlerFunc,
	userH *UserHandler,
	todoH *TodoHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", healthH.Live)
	r.GET("/readyz", healthH.Ready)

	users := r.Group("/users")
	users.POST("", userH.Register)
	users.POST("/login", userH.Login)

	me := users.Group("/me", auth)
	me.GET("", userH.Me)
	me.DELETE("/token", userH.Logout)

	todos := r.Group("/todos", auth)
	todos.POST("", todoH.Create)
	todos.GET("", todoH.List)
	todos.GET("/:id", todoH.Get)
	todos.PATCH("/:id", todoH.Update)
	todos.DELETE("/:id", todoH.Delete)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
