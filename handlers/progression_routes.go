// handlers/progression_routes.go
package handlers

import (
	"quest-hub-system/middleware"
	"quest-hub-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(app *fiber.App, progressionService *services.ProgressionService, authClient *services.AuthServiceClient) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		profile, err := progressionService.EnsureProfile(c.Context(), userID)
		if err != nil {
			return fail(c, err)
		}

		badges, err := progressionService.ListBadges(c.Context(), userID)
		if err != nil {
			return fail(c, err)
		}
		badgeIDs := make([]string, 0, len(badges))
		for _, b := range badges {
			badgeIDs = append(badgeIDs, b.ID)
		}

		return c.JSON(fiber.Map{
			"user_id":        profile.UserID,
			"username":       profile.Username,
			"wallet_address": profile.WalletAddress,
			"total_xp":       profile.TotalXP,
			"explorer_level": profile.ExplorerLevel,
			"level_title":    progressionService.Levels.TitleForLevel(profile.ExplorerLevel),
			"badges_earned":  badgeIDs,
		})
	})

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		profile, err := progressionService.EnsureProfile(c.Context(), userID)
		if err != nil {
			return fail(c, err)
		}

		// Current and next threshold frame the progress bar.
		level := profile.ExplorerLevel
		var nextXP *int64
		for _, row := range progressionService.Levels.Thresholds() {
			if row.Level == level+1 {
				required := row.CumulativeXPRequired
				nextXP = &required
			}
		}

		return c.JSON(fiber.Map{
			"total_xp":         profile.TotalXP,
			"explorer_level":   level,
			"level_title":      progressionService.Levels.TitleForLevel(level),
			"next_level_xp":    nextXP,
			"max_level":        progressionService.Levels.MaxLevel(),
			"last_level_up_at": profile.LastLevelUpAt,
		})
	})

	securedGroup.Get("/user/progress/levels", func(c *fiber.Ctx) error {
		return c.JSON(progressionService.Levels.Thresholds())
	})

	securedGroup.Get("/user/progress/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		badges, err := progressionService.ListBadges(c.Context(), userID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(badges)
	})

	securedGroup.Post("/user/wallet", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			WalletAddress string `json:"wallet_address" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fail(c, services.Errf(services.KindInvalidArgument, "invalid JSON"))
		}
		if _, err := progressionService.EnsureProfile(c.Context(), userID); err != nil {
			return fail(c, err)
		}
		if err := progressionService.BindWallet(c.Context(), userID, req.WalletAddress); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "wallet bound", "wallet_address": req.WalletAddress})
	})

	// SSE stream authenticates via query token (EventSource can't set headers)
	app.Get("/user/progress/stream", middleware.SSEAuthMiddleware(authClient), progressionService.StreamProgressSSE)
}
