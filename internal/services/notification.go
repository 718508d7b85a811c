package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService delivers band event notifications to the band's
// configured outbound webhook. It is the processor behind the task queue;
// bands without a webhook simply drop their events.
type NotificationService struct {
	db     *gorm.DB
	client *http.Client
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db: db,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// notifyPayload is the JSON body posted to the band webhook.
type notifyPayload struct {
	Event     string `json:"event"`
	BandID    uint   `json:"bandId"`
	BandName  string `json:"bandName"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Process delivers one notification task. Used as the queue/worker
// processor.
func (s *NotificationService) Process(ctx context.Context, task *NotifyTask) error {
	var band models.Band
	if err := s.db.First(&band, task.BandID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Band deleted since the event was queued; nothing to do
			return nil
		}
		return err
	}

	if band.NotifyWebhook == "" {
		return nil
	}

	payload := notifyPayload{
		Event:     task.Event,
		BandID:    band.ID,
		BandName:  band.Name,
		Message:   task.Message,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, band.NotifyWebhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warnf("[Notification] delivery to band %d failed: %v", band.ID, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Warnf("[Notification] webhook for band %d returned %d", band.ID, resp.StatusCode)
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	logger.Debugf("[Notification] delivered %s to band %d", task.Event, band.ID)
	return nil
}
