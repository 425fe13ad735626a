// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/fatihyuksel3109/mathlearn/logging"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware validates the Bearer token from the Gateway
func GatewayAuthMiddleware(expectedToken string) fiber.Handler {
	if expectedToken == "" {
		logging.Fatal().Msg("❌ GAME_SERVICE_TOKEN is not set, service cannot authenticate Gateway")
	}
	want := []byte(expectedToken)

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			logging.Warn().Str("path", c.Path()).Msg("🚫 [GATEWAY_AUTH] missing Authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		// "Bearer <token>", or the raw token
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			logging.Warn().Str("path", c.Path()).Msg("❌ [GATEWAY_AUTH] invalid token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}
		return c.Next()
	}
}
