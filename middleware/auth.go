// middleware/auth.go
package middleware

import (
	"net/url"
	"strings"

	"github.com/fatihyuksel3109/mathlearn/logging"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by UserContextMiddleware.
const (
	LocalUserID     = "user_id"
	LocalUserName   = "user_name"
	LocalUserAvatar = "user_avatar"
)

// UserContextMiddleware extracts the user identity set by the Gateway.
// X-User-ID is required; X-User-Name (may be URL-encoded) and X-User-Avatar
// are optional display hints.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			logging.Warn().Str("path", c.Path()).Msg("❌ [USER_CTX] X-User-ID missing")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through gateway with auth context",
			})
		}
		if len(userID) > 64 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "X-User-ID too long"})
		}

		name := strings.TrimSpace(c.Get("X-User-Name"))
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserName, name)
		c.Locals(LocalUserAvatar, strings.TrimSpace(c.Get("X-User-Avatar")))

		logging.Debug().Str("user_id", userID).Str("path", c.Path()).Msg("👤 [USER_CTX]")
		return c.Next()
	}
}

// UserID returns the id set by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

// UserDisplay returns the optional name and avatar hints.
func UserDisplay(c *fiber.Ctx) (name, avatar string) {
	name, _ = c.Locals(LocalUserName).(string)
	avatar, _ = c.Locals(LocalUserAvatar).(string)
	return name, avatar
}
