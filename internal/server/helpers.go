package server

import (
	"errors"
	"strconv"
	"strings"

	"feedengine/internal/middleware"
	"feedengine/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that a helper already committed the response.
// Handlers return nil when they see it.
var errResponseWritten = errors.New("response already written")

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// parseID extracts a route parameter as a positive id. On failure it writes
// a 400 response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		_ = respondError(c, models.NewInvalidReferenceError("invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseLimit reads ?limit=. Absent means 0 (unbounded); range checks are
// left to the engine.
func parseLimit(c *fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		_ = respondError(c, models.NewInvalidReferenceError("invalid limit"))
		return 0, errResponseWritten
	}
	return limit, nil
}

// parseKind reads a content kind parameter, accepting singular or plural.
func parseKind(c *fiber.Ctx, raw string) (models.Kind, error) {
	kind, err := models.ParseKind(raw)
	if err != nil {
		_ = respondError(c, err)
		return "", errResponseWritten
	}
	return kind, nil
}

func viewer(c *fiber.Ctx) uint {
	return middleware.ViewerID(c)
}
