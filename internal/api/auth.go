package api

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// openPaths are reachable without authentication.
var openPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// NewAuthMiddleware returns a Fiber middleware that validates the
// Authorization header against the configured API key. An empty key disables
// authentication.
func NewAuthMiddleware(apiKey string, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" || openPaths[c.Path()] {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return problemResponse(c, fiber.StatusUnauthorized,
				"missing_auth", "Unauthorized",
				"Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_auth_scheme", "Unauthorized",
				"Authorization header must use Bearer scheme")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			logger.Warn().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("unauthorized request: invalid API key")
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_api_key", "Unauthorized",
				"Invalid API key")
		}

		return c.Next()
	}
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}
