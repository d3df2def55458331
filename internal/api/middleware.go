package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// MetricsClient is the subset of the statsd client used for request metrics
type MetricsClient interface {
	Incr(name string, tags []string, rate float64) error
	Timing(name string, value time.Duration, tags []string, rate float64) error
}

// NoopMetrics discards all metrics
type NoopMetrics struct{}

func (NoopMetrics) Incr(string, []string, float64) error { return nil }

func (NoopMetrics) Timing(string, time.Duration, []string, float64) error { return nil }

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			s.logger.Info("Request handled", fields...)
			return nil
		},
	})
}

func (s *Server) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			status, _ = classify(err)
		}
		tags := []string{"path:" + c.Path(), "method:" + c.Request().Method}

		_ = s.metrics.Incr("http.requests", tags, 1)
		_ = s.metrics.Timing("http.response_time", time.Since(start), tags, 1)
		_ = s.metrics.Incr(fmt.Sprintf("http.status.%d", status), tags, 1)

		return err
	}
}
