package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment entity types.
const (
	CommentEntityProposal   = "proposal"
	CommentEntityTask       = "task"
	CommentEntityDiscussion = "discussion"
)

// Comment is attached to a proposal, task or discussion. The tree is capped
// at two levels: ParentCommentID may only reference a top-level comment, and
// the service flattens deeper reply attempts to the top-level ancestor.
type Comment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	BandID          uint           `gorm:"index;not null" json:"bandId"`
	EntityType      string         `gorm:"size:20;index:idx_comments_entity;not null" json:"entityType"`
	EntityID        uint           `gorm:"index:idx_comments_entity;not null" json:"entityId"`
	AuthorMemberID  uint           `gorm:"index;not null" json:"authorMemberId"`
	Author          *Member        `gorm:"foreignKey:AuthorMemberID" json:"author,omitempty"`
	Body            string         `gorm:"type:text;not null" json:"body"`
	ParentCommentID *uint          `gorm:"index" json:"parentCommentId"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Comment) TableName() string { return "comments" }

// Discussion is a standalone thread (title + body) sharing the comment tree
// mechanics with proposals and tasks.
type Discussion struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	BandID         uint           `gorm:"index;not null" json:"bandId"`
	AuthorMemberID uint           `gorm:"not null" json:"authorMemberId"`
	Author         *Member        `gorm:"foreignKey:AuthorMemberID" json:"author,omitempty"`
	Title          string         `gorm:"size:300;not null" json:"title"`
	Body           string         `gorm:"type:text" json:"body"`
	CreatedAt      time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Discussion) TableName() string { return "discussions" }
