// Package middleware provides the fiber middleware of the read API.
package middleware

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"feedengine/internal/models"
	"feedengine/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header names understood by the API.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderViewerID  = "X-Viewer-ID"
)

// Fiber locals keys.
const (
	LocalRequestID = "requestid"
	LocalViewerID  = "viewerID"
	LocalTraceID   = "traceID"
)

// RequestID reuses the caller's X-Request-ID or generates one, and echoes it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := strings.TrimSpace(c.Get(HeaderRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals(LocalRequestID, rid)
		c.Set(HeaderRequestID, rid)
		return c.Next()
	}
}

// Viewer reads the viewer id set by the upstream gateway. A missing header
// is the anonymous viewer; a malformed one is rejected.
func Viewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(HeaderViewerID))
		if raw == "" {
			c.Locals(LocalViewerID, uint(0))
			return c.Next()
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			appErr := models.NewInvalidReferenceError("invalid " + HeaderViewerID + " header")
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		}
		c.Locals(LocalViewerID, uint(id))
		return c.Next()
	}
}

// ViewerID returns the viewer parsed by Viewer, 0 when anonymous.
func ViewerID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(LocalViewerID).(uint); ok {
		return id
	}
	return 0
}

// ContextMiddleware copies request id, viewer id and trace id from Fiber
// locals into the request context so the context-aware logger sees them in
// the repository and service layers.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if rid, ok := c.Locals(LocalRequestID).(string); ok {
			ctx = observability.WithCorrelationID(ctx, rid)
		}
		if vid, ok := c.Locals(LocalViewerID).(uint); ok {
			ctx = observability.WithViewerID(ctx, vid)
		}
		if tid, ok := c.Locals(LocalTraceID).(string); ok {
			ctx = observability.WithTraceID(ctx, tid)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger returns a Fiber middleware for logging requests using slog
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			observability.GlobalLogger.ErrorContext(c.UserContext(), "request failed", fields...)
		} else {
			observability.GlobalLogger.InfoContext(c.UserContext(), "request processed", fields...)
		}

		return err
	}
}
