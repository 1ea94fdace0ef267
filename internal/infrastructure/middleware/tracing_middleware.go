// Package middleware holds gin middleware shared by the monitor's HTTP
// surface.
package middleware

import (
	"kickpulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TracingMiddleware wraps each request in a span named after the route
// template, so /session and /stats handlers show up per-route rather
// than per-URL.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.TraceHTTPRequest(c.Request.Context(), c.Request.Method, c.FullPath())
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.String("http.client_ip", c.ClientIP()),
		)
		if status >= 400 {
			span.SetStatus(codes.Error, c.Errors.String())
			return
		}
		span.SetStatus(codes.Ok, "")
	}
}
