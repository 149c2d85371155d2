// quest-hub-system/middleware/gateway.go
package middleware

import (
	"log"
	"os"
	"strings"

	"quest-hub-system/services"

	"github.com/gofiber/fiber/v2"
)

// GatewayAuthMiddleware validates the Bearer token the Gateway attaches to
// every forwarded request. Rejections carry the same kind-tagged body as the
// route handlers so clients parse one error shape everywhere.
func GatewayAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("QUEST_SERVICE_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ QUEST_SERVICE_TOKEN is not set — service cannot authenticate Gateway")
	}

	reject := func(c *fiber.Ctx, message string) error {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": message,
			"kind":  string(services.KindUnauthenticated),
		})
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [GATEWAY_AUTH] Missing Authorization header for %s", c.Path())
			return reject(c, "gateway authentication token missing")
		}

		// Parse "Bearer <token>"; some gateway configs send the raw value.
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if token != expectedToken {
			log.Printf("❌ [GATEWAY_AUTH] Invalid token for %s (got prefix: %.10s...)", c.Path(), token)
			return reject(c, "invalid gateway authentication token")
		}

		return c.Next()
	}
}
