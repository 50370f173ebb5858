package metrics

import (
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
)

// HTTPMiddleware records request count, latency and sizes per route as
// petbuddy_requests_total and friends. The collectors register once per
// process, so every echo instance shares the same middleware.
var HTTPMiddleware = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem: namespace,
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/metrics", "/healthz", "/readyz":
				return true
			}
			return false
		},
	})
})

// Handler serves the default registry.
func Handler() echo.HandlerFunc {
	return echoprometheus.NewHandler()
}
