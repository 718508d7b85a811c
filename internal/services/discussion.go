package services

import (
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// DiscussionService manages standalone discussion threads.
type DiscussionService struct {
	db  *gorm.DB
	log *ActivityLogService
}

func NewDiscussionService(db *gorm.DB, log *ActivityLogService) *DiscussionService {
	return &DiscussionService{db: db, log: log}
}

type CreateDiscussionRequest struct {
	Title string `json:"title" binding:"required,min=3,max=300"`
	Body  string `json:"body"`
}

func (s *DiscussionService) Create(bandID uint, actor *models.Member, req *CreateDiscussionRequest) (*models.Discussion, error) {
	discussion := &models.Discussion{
		BandID:         bandID,
		AuthorMemberID: actor.ID,
		Title:          req.Title,
		Body:           req.Body,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(discussion).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityDiscussion, discussion.ID, discussion.Title, "started", nil)
	})
	if err != nil {
		return nil, err
	}

	return discussion, nil
}

func (s *DiscussionService) List(bandID uint) ([]models.Discussion, error) {
	var discussions []models.Discussion
	if err := s.db.Preload("Author").Preload("Author.User").
		Where("band_id = ?", bandID).
		Order("created_at DESC").
		Find(&discussions).Error; err != nil {
		return nil, err
	}
	return discussions, nil
}

func (s *DiscussionService) Get(bandID, discussionID uint) (*models.Discussion, error) {
	var discussion models.Discussion
	if err := s.db.Preload("Author").Preload("Author.User").
		Where("id = ? AND band_id = ?", discussionID, bandID).
		First(&discussion).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("discussion not found")
		}
		return nil, err
	}
	return &discussion, nil
}

type UpdateDiscussionRequest struct {
	Title *string `json:"title" binding:"omitempty,min=3,max=300"`
	Body  *string `json:"body"`
}

// Update edits a discussion. Author only.
func (s *DiscussionService) Update(bandID uint, actor *models.Member, discussionID uint, req *UpdateDiscussionRequest) (*models.Discussion, error) {
	discussion, err := s.Get(bandID, discussionID)
	if err != nil {
		return nil, err
	}

	if discussion.AuthorMemberID != actor.ID {
		return nil, response.NewForbidden("only the discussion's author can edit it")
	}

	changes := make(map[string]Change)
	if req.Title != nil && *req.Title != discussion.Title {
		changes["title"] = Change{From: discussion.Title, To: *req.Title}
		discussion.Title = *req.Title
	}
	if req.Body != nil && *req.Body != discussion.Body {
		changes["body"] = Change{From: discussion.Body, To: *req.Body}
		discussion.Body = *req.Body
	}

	if len(changes) == 0 {
		return discussion, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(discussion).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityDiscussion, discussion.ID, discussion.Title, "updated", changes)
	})
	if err != nil {
		return nil, err
	}

	return discussion, nil
}

// Delete removes a discussion and its comments. Author or captain.
func (s *DiscussionService) Delete(bandID uint, actor *models.Member, discussionID uint) error {
	discussion, err := s.Get(bandID, discussionID)
	if err != nil {
		return err
	}

	if discussion.AuthorMemberID != actor.ID && !actor.IsCaptain() {
		return response.NewForbidden("only the discussion's author can delete it")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("band_id = ? AND entity_type = ? AND entity_id = ?",
			bandID, models.CommentEntityDiscussion, discussion.ID).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(discussion).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityDiscussion, discussion.ID, discussion.Title, "deleted", nil)
	})
}
