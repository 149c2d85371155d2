// handlers/admin_routes.go
package handlers

import (
	"fmt"
	"time"

	"quest-hub-system/middleware"
	"quest-hub-system/models"
	"quest-hub-system/services"
	"quest-hub-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SetupAdminRoutes wires the content-management surface: catalog writes,
// badge icon uploads, seeding, and manual-mission attestation.
func SetupAdminRoutes(app *fiber.App, catalogService *services.CatalogService, missionService *services.MissionService) {
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/missions", func(c *fiber.Ctx) error {
		var req struct {
			MissionID     string                  `json:"mission_id"`
			ExpeditionID  string                  `json:"expedition_id" validate:"required"`
			Title         string                  `json:"title" validate:"required"`
			Difficulty    int                     `json:"difficulty"`
			XPReward      int64                   `json:"xp_reward" validate:"required,min=1"`
			TimeEstimate  string                  `json:"time_estimate"`
			Platform      string                  `json:"platform"`
			Lore          string                  `json:"lore"`
			ActionPlan    []string                `json:"action_plan"`
			ExternalLink  string                  `json:"external_link"`
			BadgeID       *string                 `json:"badge_id"`
			Verification  models.VerificationSpec `json:"verification"`
			RequiredLevel int                     `json:"required_level"`
			PublishAt     *time.Time              `json:"publish_at"`
			Publish       bool                    `json:"publish"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fail(c, services.Errf(services.KindInvalidArgument, "invalid JSON"))
		}

		mission := &models.Mission{
			MissionID:     req.MissionID,
			ExpeditionID:  req.ExpeditionID,
			Title:         req.Title,
			Difficulty:    req.Difficulty,
			XPReward:      req.XPReward,
			TimeEstimate:  req.TimeEstimate,
			Platform:      req.Platform,
			Lore:          req.Lore,
			ActionPlan:    req.ActionPlan,
			ExternalLink:  req.ExternalLink,
			BadgeID:       req.BadgeID,
			Verification:  req.Verification,
			RequiredLevel: req.RequiredLevel,
			Status:        models.MissionDraft,
		}
		switch {
		case req.Publish:
			mission.Status = models.MissionPublished
		case req.PublishAt != nil:
			mission.Status = models.MissionScheduled
			mission.PublishAt = req.PublishAt
		}

		if err := catalogService.CreateMission(c.Context(), mission); err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(mission)
	})

	adminGroup.Post("/badges/:id/icon", func(c *fiber.Ctx) error {
		badgeID := c.Params("id")

		fileHeader, err := c.FormFile("icon")
		if err != nil {
			return fail(c, services.Errf(services.KindInvalidArgument, "icon file missing"))
		}

		key := fmt.Sprintf("badges/%s/%s", badgeID, uuid.NewString())
		url, err := utils.UploadBadgeIcon(fileHeader, key)
		if err != nil {
			return fail(c, services.Wrap(services.KindInternal, err, "icon upload failed"))
		}
		if err := catalogService.SetBadgeIcon(c.Context(), badgeID, url); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"badge_id": badgeID, "icon_url": url})
	})

	// Manual-verification missions complete through operator attestation,
	// never through the verification engine.
	adminGroup.Post("/missions/:id/attest", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)
		missionID := c.Params("id")

		var req struct {
			UserID string `json:"user_id" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserID == "" {
			return fail(c, services.Errf(services.KindInvalidArgument, "user_id is required"))
		}

		resp, err := missionService.AttestManualCompletion(c.Context(), adminID, req.UserID, missionID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(resp)
	})

	adminGroup.Post("/catalog/seed", func(c *fiber.Ctx) error {
		var seed utils.CatalogSeed
		if err := c.BodyParser(&seed); err != nil {
			return fail(c, services.Errf(services.KindInvalidArgument, "invalid seed payload"))
		}
		summary, err := utils.ImportCatalogSeed(catalogService.DB, &seed)
		if err != nil {
			return fail(c, services.Wrap(services.KindInternal, err, "seed import failed"))
		}
		return c.JSON(summary)
	})
}
