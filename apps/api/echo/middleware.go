package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	metricsvc "github.com/trezcool/kaushal/services/metrics"
)

// metricsMiddleware counts requests per route template, not per raw path.
func metricsMiddleware(m *metricsvc.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ctx.Request().Method
			m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(ctx.Response().Status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
