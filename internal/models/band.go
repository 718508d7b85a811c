package models

import (
	"time"

	"gorm.io/gorm"
)

// Band member roles.
const (
	MemberRoleCaptain = "captain"
	MemberRoleMember  = "member"
)

// Band is the governance group whose members create proposals and vote.
type Band struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"size:200;not null" json:"name"`
	Slug             string         `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Description      string         `gorm:"type:text" json:"description"`
	ShortDescription string         `gorm:"size:500" json:"shortDescription"`
	City             string         `gorm:"size:100" json:"city"`
	StateProvince    string         `gorm:"size:100" json:"stateProvince"`
	PostalCode       string         `gorm:"size:20" json:"postalCode"`
	Country          string         `gorm:"size:100" json:"country"`
	IsPublic         bool           `gorm:"default:true" json:"isPublic"`
	Tagline          string         `gorm:"size:300" json:"tagline"`
	FullDescription  string         `gorm:"type:text" json:"fullDescription"`
	DecisionGuide    string         `gorm:"type:text" json:"decisionGuidelines"`
	InclusionNote    string         `gorm:"type:text" json:"inclusionStatement"`
	MembershipPolicy string         `gorm:"type:text" json:"membershipPolicy"`
	NotifyWebhook    string         `gorm:"size:500" json:"-"` // optional outbound webhook for band events
	CreatedBy        uint           `json:"created_by"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Band) TableName() string { return "bands" }

// Member is a user's role-bearing identity within one band. Votes, comments
// and log entries are attributed to members, never to raw user ids.
type Member struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	BandID      uint           `gorm:"uniqueIndex:idx_members_band_user;index;not null" json:"bandId"`
	UserID      uint           `gorm:"uniqueIndex:idx_members_band_user;not null" json:"userId"`
	Role        string         `gorm:"size:50;default:member" json:"role"` // captain, member
	DisplayName string         `gorm:"size:100" json:"displayName"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time      `json:"joinedAt"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Member) TableName() string { return "members" }

// IsCaptain reports whether the member has review/management authority.
func (m *Member) IsCaptain() bool { return m.Role == MemberRoleCaptain }
