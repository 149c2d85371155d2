package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"quest-hub-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StreamProgressSSE streams real-time progression updates (earned badges,
// level-ups) for the authenticated user. Feeds the dashboard activity feed
// and toast notifications.
func (s *ProgressionService) StreamProgressSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	// Use fasthttp stream writer (THIS replaces Flush)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastBadgeAt time.Time
		var lastLevelUpAt time.Time

		// Initialize cursors from current state so only fresh events stream.
		var latestBadge models.UserBadge
		if err := s.DB.
			Where("user_id = ?", userID).
			Order("awarded_at DESC").
			First(&latestBadge).Error; err == nil {
			lastBadgeAt = latestBadge.AwardedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error for user %s: %v", userID, err)
		}
		var profile models.UserProfile
		if err := s.DB.Where("user_id = ?", userID).First(&profile).Error; err == nil && profile.LastLevelUpAt != nil {
			lastLevelUpAt = *profile.LastLevelUpAt
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var newBadges []EarnedBadge
				err := s.DB.
					Model(&models.UserBadge{}).
					Select("badges.*, user_badges.awarded_at, user_badges.mission_id").
					Joins("INNER JOIN badges ON badges.id = user_badges.badge_id").
					Where("user_badges.user_id = ? AND user_badges.awarded_at > ?", userID, lastBadgeAt).
					Order("user_badges.awarded_at ASC").
					Scan(&newBadges).Error
				if err != nil {
					log.Printf("SSE badge query error for user %s: %v", userID, err)
					continue
				}

				for _, b := range newBadges {
					lastBadgeAt = b.AwardedAt
					payload, _ := json.Marshal(b)
					fmt.Fprintf(w, "event: badge\ndata: %s\n\n", payload)
				}

				var current models.UserProfile
				if err := s.DB.Where("user_id = ?", userID).First(&current).Error; err == nil {
					if current.LastLevelUpAt != nil && current.LastLevelUpAt.After(lastLevelUpAt) {
						lastLevelUpAt = *current.LastLevelUpAt
						payload, _ := json.Marshal(fiber.Map{
							"level":    current.ExplorerLevel,
							"title":    s.Levels.TitleForLevel(current.ExplorerLevel),
							"total_xp": current.TotalXP,
						})
						fmt.Fprintf(w, "event: level_up\ndata: %s\n\n", payload)
					}
				}

				// This is the REAL "flush"
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
