package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/internal/fieldcrypt"
	"github.com/MrEthical07/goIdentity/middleware"
)

// HealthCheck reports whether a dependency is usable. A non-nil error turns
// /healthz into 503.
type HealthCheck func(ctx context.Context) error

// Options configures the router. Service is required.
type Options struct {
	Service Service
	// Codec decodes request fields. Nil means plain fields.
	Codec  fieldcrypt.Codec
	Logger zerolog.Logger
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
	Health  map[string]HealthCheck
	Now     func() time.Time
}

// NewRouter builds the gin engine serving the identity routes.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("httpapi: service is required")
	}
	if opts.Codec == nil {
		codec, err := fieldcrypt.New(fieldcrypt.ModePlain, "")
		if err != nil {
			return nil, err
		}
		opts.Codec = codec
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	h := &handler{
		svc:    opts.Service,
		codec:  opts.Codec,
		logger: opts.Logger.With().Str("component", "httpapi").Logger(),
		now:    opts.Now,
	}

	r := gin.New()
	r.Use(h.recovery(), h.requestLogger(), clientContext())

	auth := r.Group("/api/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.GET("/public-key", h.publicKey)
	auth.GET("/me", middleware.RequireBearer(opts.Service, h.abortWithError), h.me)

	r.GET("/healthz", health(opts.Health))
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	r.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
			Message:   "Resource not found",
			Status:    http.StatusNotFound,
			Error:     "Not Found",
			Timestamp: h.now().UTC(),
			Path:      c.Request.URL.Path,
		})
	})

	return r, nil
}

// clientContext forwards the caller's address and user agent to the Engine
// for rate limiting and audit.
func clientContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := goIdentity.WithClientIP(c.Request.Context(), c.ClientIP())
		ctx = goIdentity.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (h *handler) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error().
					Str("panic", fmt.Sprintf("%v", rec)).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Msg("panic recovered")
				h.abortWithError(c, fmt.Errorf("panic: %v", rec))
			}
		}()
		c.Next()
	}
}

func (h *handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := c.Request.URL.Path; p == "/healthz" || p == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		ev := h.logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = h.logger.Error()
		case status >= http.StatusBadRequest:
			ev = h.logger.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client", c.ClientIP()).
			Msg("http request")
	}
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				components[name] = err.Error()
				status = "unhealthy"
				continue
			}
			components[name] = "ok"
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"components": components,
		})
	}
}
