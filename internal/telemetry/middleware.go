package telemetry

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the configuration for the tracing middleware
type Config struct {
	ServiceName string
	Skip        func(*fiber.Ctx) bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServiceName: "realestate-api",
		Skip: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz" || c.Path() == "/v1/healthz"
		},
	}
}

// New returns a tracing + metrics middleware for Fiber
func New(config ...Config) fiber.Handler {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			return c.Next()
		}
		if tracer == nil {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()
		path := c.Path()

		attrs := metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		)
		if HTTPActiveRequests != nil {
			HTTPActiveRequests.Add(c.Context(), 1, attrs)
			defer HTTPActiveRequests.Add(c.Context(), -1, attrs)
		}

		ctx, span := tracer.Start(c.Context(), method+" "+path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(method),
				semconv.HTTPTargetKey.String(path),
				semconv.HTTPSchemeKey.String(c.Protocol()),
			),
		)
		defer span.End()

		c.SetUserContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(status))
		if err != nil || status >= 500 {
			span.SetStatus(codes.Error, "request failed")
		}

		if HTTPRequestsTotal != nil {
			HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("method", method),
				attribute.String("path", path),
				attribute.String("status", strconv.Itoa(status)),
			))
		}
		if HTTPRequestDuration != nil {
			HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		}

		return err
	}
}
