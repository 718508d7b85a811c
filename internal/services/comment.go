package services

import (
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// CommentService runs the two-level comment tree shared by proposals, tasks
// and discussions. Replies to replies are flattened onto the top-level
// ancestor, so the tree never exceeds two levels.
type CommentService struct {
	db  *gorm.DB
	log *ActivityLogService
}

func NewCommentService(db *gorm.DB, log *ActivityLogService) *CommentService {
	return &CommentService{db: db, log: log}
}

type AddCommentRequest struct {
	Body            string `json:"body" binding:"required,min=1,max=10000"`
	ParentCommentID *uint  `json:"parentCommentId"`
}

// CommentNode is a top-level comment with its replies, oldest first.
type CommentNode struct {
	models.Comment
	Replies []models.Comment `json:"replies"`
}

// verifyEntity checks that the target entity exists and belongs to the band.
func (s *CommentService) verifyEntity(bandID uint, entityType string, entityID uint) error {
	var count int64
	switch entityType {
	case models.CommentEntityProposal:
		s.db.Model(&models.Proposal{}).Where("id = ? AND band_id = ?", entityID, bandID).Count(&count)
	case models.CommentEntityTask:
		s.db.Model(&models.Task{}).
			Joins("JOIN projects ON projects.id = tasks.project_id").
			Where("tasks.id = ? AND projects.band_id = ?", entityID, bandID).
			Count(&count)
	case models.CommentEntityDiscussion:
		s.db.Model(&models.Discussion{}).Where("id = ? AND band_id = ?", entityID, bandID).Count(&count)
	default:
		return response.NewValidation("unknown comment entity type")
	}
	if count == 0 {
		return response.NewNotFound(entityType + " not found")
	}
	return nil
}

// Add posts a comment on an entity. A reply targeting another reply is
// silently reparented to that reply's top-level ancestor.
func (s *CommentService) Add(bandID uint, actor *models.Member, entityType string, entityID uint, req *AddCommentRequest) (*models.Comment, error) {
	if err := s.verifyEntity(bandID, entityType, entityID); err != nil {
		return nil, err
	}

	parentID := req.ParentCommentID
	if parentID != nil {
		var parent models.Comment
		if err := s.db.Where("id = ? AND band_id = ? AND entity_type = ? AND entity_id = ?",
			*parentID, bandID, entityType, entityID).First(&parent).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, response.NewNotFound("parent comment not found")
			}
			return nil, err
		}
		// Flatten: replies always hang off the top-level comment
		if parent.ParentCommentID != nil {
			parentID = parent.ParentCommentID
		}
	}

	comment := &models.Comment{
		BandID:          bandID,
		EntityType:      entityType,
		EntityID:        entityID,
		AuthorMemberID:  actor.ID,
		Body:            req.Body,
		ParentCommentID: parentID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return s.log.AppendDetail(tx, bandID, actor.ID, LogEntityComment, comment.ID, "", "posted", map[string]interface{}{
			"entityType": entityType,
			"entityId":   entityID,
		})
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// ListTree returns an entity's comments as top-level nodes with replies,
// both oldest first.
func (s *CommentService) ListTree(bandID uint, entityType string, entityID uint) ([]CommentNode, error) {
	if err := s.verifyEntity(bandID, entityType, entityID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := s.db.Preload("Author").Preload("Author.User").
		Where("band_id = ? AND entity_type = ? AND entity_id = ?", bandID, entityType, entityID).
		Order("created_at").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	nodes := make([]CommentNode, 0)
	index := make(map[uint]int)
	for _, c := range comments {
		if c.ParentCommentID == nil {
			index[c.ID] = len(nodes)
			nodes = append(nodes, CommentNode{Comment: c, Replies: []models.Comment{}})
		}
	}
	for _, c := range comments {
		if c.ParentCommentID == nil {
			continue
		}
		if i, ok := index[*c.ParentCommentID]; ok {
			nodes[i].Replies = append(nodes[i].Replies, c)
		}
	}

	return nodes, nil
}

type UpdateCommentRequest struct {
	Body string `json:"body" binding:"required,min=1,max=10000"`
}

// Update edits a comment's body. Author only.
func (s *CommentService) Update(bandID uint, actor *models.Member, commentID uint, req *UpdateCommentRequest) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.Where("id = ? AND band_id = ?", commentID, bandID).First(&comment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("comment not found")
		}
		return nil, err
	}

	if comment.AuthorMemberID != actor.ID {
		return nil, response.NewForbidden("only the comment's author can edit it")
	}

	comment.Body = req.Body
	if err := s.db.Save(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes a comment. Author only; captains may moderate. Deleting a
// top-level comment removes its replies in the same transaction.
func (s *CommentService) Delete(bandID uint, actor *models.Member, commentID uint) error {
	var comment models.Comment
	if err := s.db.Where("id = ? AND band_id = ?", commentID, bandID).First(&comment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NewNotFound("comment not found")
		}
		return err
	}

	if comment.AuthorMemberID != actor.ID && !actor.IsCaptain() {
		return response.NewForbidden("only the comment's author can delete it")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if comment.ParentCommentID == nil {
			if err := tx.Where("parent_comment_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&comment).Error
	})
}
