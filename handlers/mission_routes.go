// handlers/mission_routes.go
package handlers

import (
	"quest-hub-system/middleware"
	"quest-hub-system/services"

	"github.com/gofiber/fiber/v2"
)

// statusForKind maps the error taxonomy to HTTP statuses.
func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindPreconditionFailed:
		return fiber.StatusConflict
	case services.KindInvalidArgument:
		return fiber.StatusBadRequest
	case services.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case services.KindTransientFailure:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail renders a tagged error with a stable machine-readable kind.
func fail(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)
	return c.Status(statusForKind(kind)).JSON(fiber.Map{
		"error": services.MessageOf(err),
		"kind":  string(kind),
	})
}

func SetupMissionRoutes(app *fiber.App, missionService *services.MissionService) {
	// 🔐 Secured routes — require user context from the gateway
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/missions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		missions, err := missionService.ListMissionsForUser(c.Context(), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(missions)
	})

	securedGroup.Get("/expeditions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		expeditions, err := missionService.ListExpeditionsForUser(c.Context(), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(expeditions)
	})

	securedGroup.Post("/missions/:id/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		missionID := c.Params("id")

		status, err := missionService.StartMission(c.Context(), userID, missionID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(status)
	})

	securedGroup.Post("/missions/:id/verify", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		missionID := c.Params("id")

		// Older clients still send userId in the body; it must match the
		// authenticated identity, never replace it.
		var body struct {
			UserID string `json:"userId"`
		}
		if err := c.BodyParser(&body); err == nil && body.UserID != "" && body.UserID != userID {
			return fail(c, services.Errf(services.KindUnauthenticated,
				"userId does not match authenticated caller"))
		}

		resp, err := missionService.VerifyAndAward(c.Context(), userID, missionID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(resp)
	})
}
