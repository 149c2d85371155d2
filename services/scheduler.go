// services/scheduler.go
package services

import (
	"log"
	"time"

	"quest-hub-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartPublishScheduler flips scheduled catalog entries to published once
// their publish time passes, so content drops don't need a deploy.
func (s *CatalogService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: publish scheduled missions
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.PublishDueMissions(time.Now())
		}),
	)
}

// PublishDueMissions flips every scheduled mission whose publish time has
// passed and returns how many went live.
func (s *CatalogService) PublishDueMissions(now time.Time) int {
	var missions []models.Mission
	err := s.DB.Where("status = ? AND publish_at <= ?", models.MissionScheduled, now).
		Find(&missions).Error
	if err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return 0
	}

	published := 0
	for _, m := range missions {
		m.Status = models.MissionPublished
		m.PublishAt = nil
		if err := s.DB.Save(&m).Error; err != nil {
			log.Printf("[Scheduler] Failed to publish mission %s: %v", m.MissionID, err)
		} else {
			published++
			log.Printf("✅ Auto-published mission: %s", m.Title)
		}
	}
	return published
}
