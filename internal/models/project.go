package models

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses.
const (
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
)

// Task statuses and priorities.
const (
	TaskStatusNotStarted = "not_started"
	TaskStatusInProgress = "in_progress"
	TaskStatusBlocked    = "blocked"
	TaskStatusCompleted  = "completed"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Project tracks approved work spawned from a proposal. The task counters
// and progress percentage are derived columns recomputed in the same
// transaction as every task mutation.
type Project struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	BandID          uint           `gorm:"index;not null" json:"bandId"`
	ProposalID      uint           `gorm:"index;not null" json:"proposalId"`
	CreatorMemberID uint           `json:"creatorMemberId"`
	Name            string         `gorm:"size:300;not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	Status          string         `gorm:"size:30;index;default:active" json:"status"`
	StartDate       *time.Time     `json:"startDate"`
	TargetDate      *time.Time     `json:"targetDate"`
	TotalTasks      int            `gorm:"default:0" json:"totalTasks"`
	CompletedTasks  int            `gorm:"default:0" json:"completedTasks"`
	Progress        int            `gorm:"column:progress_percentage;default:0" json:"progressPercentage"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

// Task is a unit of work under a project.
type Task struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ProjectID        uint           `gorm:"index;not null" json:"projectId"`
	Title            string         `gorm:"size:300;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	Status           string         `gorm:"size:30;index;default:not_started" json:"status"`
	Priority         string         `gorm:"size:20;default:medium" json:"priority"`
	AssigneeMemberID *uint          `json:"assigneeMemberId"`
	Assignee         *Member        `gorm:"foreignKey:AssigneeMemberID" json:"assignee,omitempty"`
	DueDate          *time.Time     `json:"dueDate"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "tasks" }
