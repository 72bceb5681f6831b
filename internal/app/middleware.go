package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/manish6022/hrone-sub000/internal/guard"
	"github.com/manish6022/hrone-sub000/internal/observability"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Config  *Config
	Guard   *guard.Guard
	Metrics *observability.Metrics
}

// MiddlewareStack installs the global middleware chain. The route guard
// runs after RealIP so its decisions and audit trail see real client
// addresses, and before everything else so no handler executes without an
// edge policy decision.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	limit, window := 300, time.Minute
	if cfg.Config != nil && cfg.Config.GlobalRateLimit > 0 {
		limit = cfg.Config.GlobalRateLimit
	}
	if cfg.Config != nil && cfg.Config.GlobalRateWindow > 0 {
		window = cfg.Config.GlobalRateWindow
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		cfg.Guard.Middleware,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		middleware.Compress(5),
		httprate.Limit(limit, window, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	return middlewares
}
