package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/bandhall/bandhall/internal/config"
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DigestService sends each band a daily summary of yesterday's activity,
// built from the captain's log and delivered through the notification
// queue. Bands are skipped on their local weekends and public holidays.
type DigestService struct {
	db            *gorm.DB
	cfg           *config.Config
	log           *ActivityLogService
	queue         TaskQueue
	holidays      *HolidayService
	cronScheduler *cron.Cron
}

func NewDigestService(db *gorm.DB, cfg *config.Config, log *ActivityLogService, queue TaskQueue, holidays *HolidayService) *DigestService {
	return &DigestService{
		db:       db,
		cfg:      cfg,
		log:      log,
		queue:    queue,
		holidays: holidays,
	}
}

// StartScheduler schedules the daily digest at the configured time.
func (s *DigestService) StartScheduler() {
	if !s.cfg.Digest.Enabled {
		return
	}

	s.cronScheduler = cron.New()

	parts := strings.Split(s.cfg.Digest.At, ":")
	hour, minute := "8", "0"
	if len(parts) == 2 {
		hour = parts[0]
		minute = parts[1]
	}
	cronExpr := fmt.Sprintf("%s %s * * *", minute, hour)

	if _, err := s.cronScheduler.AddFunc(cronExpr, func() {
		s.Run(time.Now())
	}); err != nil {
		logger.Errorf("[Digest] Failed to add cron job: %v", err)
		return
	}

	s.cronScheduler.Start()
	logger.Infof("[Digest] Scheduled daily at %s (cron: %s)", s.cfg.Digest.At, cronExpr)
}

// StopScheduler stops the cron scheduler.
func (s *DigestService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

// Run builds and enqueues digests covering the 24 hours before now. Bands
// with no webhook, no activity, or a day off are skipped.
func (s *DigestService) Run(now time.Time) {
	var bands []models.Band
	if err := s.db.Where("notify_webhook <> ''").Find(&bands).Error; err != nil {
		logger.Errorf("[Digest] failed to list bands: %v", err)
		return
	}

	since := now.Add(-24 * time.Hour)
	sent := 0

	for _, band := range bands {
		if !s.holidays.IsWorkday(now, bandCountryCode(&band)) {
			continue
		}

		counts, err := s.log.CountSince(band.ID, since, now)
		if err != nil {
			logger.Errorf("[Digest] failed to count activity for band %d: %v", band.ID, err)
			continue
		}
		if len(counts) == 0 {
			continue
		}

		task := &NotifyTask{
			BandID:  band.ID,
			Event:   "digest.daily",
			Message: formatDigest(counts),
		}
		if err := s.queue.Enqueue(task); err != nil {
			logger.Warnf("[Digest] failed to enqueue digest for band %d: %v", band.ID, err)
			continue
		}
		sent++
	}

	logger.Infof("[Digest] Enqueued %d digests", sent)
}

// formatDigest renders the per-entity activity counts into one line.
func formatDigest(counts map[string]int64) string {
	order := []string{
		LogEntityProposal, LogEntityVote, LogEntityProject, LogEntityTask,
		LogEntityComment, LogEntityDiscussion, LogEntityMember, LogEntityBand,
	}

	var parts []string
	for _, entity := range order {
		if n, ok := counts[entity]; ok && n > 0 {
			label := entity
			if n != 1 {
				label += "s"
			}
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	if len(parts) == 0 {
		return "No activity in the last 24 hours."
	}
	return "Activity in the last 24 hours: " + strings.Join(parts, ", ")
}

// bandCountryCode maps the band's free-form country to an ISO code when it
// already is one; anything else falls back to weekday-only handling.
func bandCountryCode(band *models.Band) string {
	c := strings.TrimSpace(band.Country)
	if len(c) == 2 {
		return strings.ToUpper(c)
	}
	return ""
}
