package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/logger"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// Change records a single field transition for the captain's log.
type Change struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// logContext is the serialized Context payload of a captain's log entry.
type logContext struct {
	Changes map[string]Change      `json:"changes,omitempty"`
	Detail  map[string]interface{} `json:"detail,omitempty"`
}

// ActivityLogService is the append-only captain's log. Entries are never
// updated or deleted; every state-changing domain operation appends one.
type ActivityLogService struct {
	db *gorm.DB
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

// Append writes one captain's log entry. changes maps field name to its
// from/to pair and may be nil for create/delete actions. When tx is non-nil
// the entry joins the caller's transaction so the log line and the change it
// describes commit together.
func (s *ActivityLogService) Append(tx *gorm.DB, bandID, actorMemberID uint, entityType string, entityID uint, entityName, action string, changes map[string]Change) error {
	db := s.db
	if tx != nil {
		db = tx
	}

	var ctxStr string
	if len(changes) > 0 {
		b, err := json.Marshal(logContext{Changes: changes})
		if err != nil {
			return fmt.Errorf("marshal log context: %w", err)
		}
		ctxStr = string(b)
	}

	entry := &models.ActivityLogEntry{
		BandID:        bandID,
		ActorMemberID: actorMemberID,
		EntityType:    entityType,
		EntityID:      entityID,
		EntityName:    entityName,
		Action:        action,
		Context:       ctxStr,
		CreatedAt:     time.Now(),
	}
	if err := db.Create(entry).Error; err != nil {
		logger.Errorf("[ActivityLog] failed to append %s/%s for band %d: %v", entityType, action, bandID, err)
		return err
	}
	return nil
}

// AppendDetail writes an entry carrying free-form context instead of a
// field diff (used for votes, where the choice is not a field transition).
func (s *ActivityLogService) AppendDetail(tx *gorm.DB, bandID, actorMemberID uint, entityType string, entityID uint, entityName, action string, detail map[string]interface{}) error {
	db := s.db
	if tx != nil {
		db = tx
	}

	var ctxStr string
	if len(detail) > 0 {
		b, err := json.Marshal(logContext{Detail: detail})
		if err != nil {
			return fmt.Errorf("marshal log context: %w", err)
		}
		ctxStr = string(b)
	}

	entry := &models.ActivityLogEntry{
		BandID:        bandID,
		ActorMemberID: actorMemberID,
		EntityType:    entityType,
		EntityID:      entityID,
		EntityName:    entityName,
		Action:        action,
		Context:       ctxStr,
		CreatedAt:     time.Now(),
	}
	return db.Create(entry).Error
}

type ActivityLogListRequest struct {
	EntityType string `form:"entityType"`
	ActorID    uint   `form:"actorId"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset     int    `form:"offset" binding:"omitempty,min=0"`
}

type ActivityLogListResponse struct {
	Total   int64                     `json:"total"`
	Limit   int                       `json:"limit"`
	Offset  int                       `json:"offset"`
	Entries []models.ActivityLogEntry `json:"entries"`
}

// List returns a band's log entries, newest first.
func (s *ActivityLogService) List(bandID uint, req *ActivityLogListRequest) (*ActivityLogListResponse, error) {
	if req.Limit == 0 {
		req.Limit = 50
	}

	query := s.db.Model(&models.ActivityLogEntry{}).Where("band_id = ?", bandID)

	if req.EntityType != "" {
		query = query.Where("entity_type = ?", req.EntityType)
	}
	if req.ActorID != 0 {
		query = query.Where("actor_member_id = ?", req.ActorID)
	}
	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, response.NewValidation("invalid startDate, expected YYYY-MM-DD")
		}
		query = query.Where("created_at >= ?", start)
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, response.NewValidation("invalid endDate, expected YYYY-MM-DD")
		}
		query = query.Where("created_at < ?", end.AddDate(0, 0, 1))
	}

	var total int64
	query.Count(&total)

	var entries []models.ActivityLogEntry
	if err := query.Preload("Actor").Preload("Actor.User").
		Order("created_at DESC, id DESC").
		Limit(req.Limit).Offset(req.Offset).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return &ActivityLogListResponse{
		Total:   total,
		Limit:   req.Limit,
		Offset:  req.Offset,
		Entries: entries,
	}, nil
}

// Get returns a single log entry scoped to the band.
func (s *ActivityLogService) Get(bandID, entryID uint) (*models.ActivityLogEntry, error) {
	var entry models.ActivityLogEntry
	if err := s.db.Preload("Actor").Preload("Actor.User").
		Where("id = ? AND band_id = ?", entryID, bandID).
		First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("log entry not found")
		}
		return nil, err
	}
	return &entry, nil
}

// CountSince counts a band's entries created at or after the given time.
// Used by the daily digest.
func (s *ActivityLogService) CountSince(bandID uint, since, until time.Time) (map[string]int64, error) {
	type row struct {
		EntityType string
		N          int64
	}
	var rows []row
	if err := s.db.Model(&models.ActivityLogEntry{}).
		Select("entity_type, COUNT(*) as n").
		Where("band_id = ? AND created_at >= ? AND created_at < ?", bandID, since, until).
		Group("entity_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.EntityType] = r.N
	}
	return counts, nil
}
