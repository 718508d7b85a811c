package models

import "time"

// ActivityLogEntry is one line of the captain's log: an append-only record
// of a state-changing action in a band. Entries are never updated or
// deleted; there is no UpdatedAt/DeletedAt on purpose.
type ActivityLogEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BandID        uint      `gorm:"index;not null" json:"bandId"`
	ActorMemberID uint      `gorm:"index;not null" json:"actorMemberId"`
	Actor         *Member   `gorm:"foreignKey:ActorMemberID" json:"actor,omitempty"`
	EntityType    string    `gorm:"size:30;index" json:"entityType"` // proposal, vote, project, task, comment, discussion, band, member, image, document
	EntityID      uint      `json:"entityId"`
	EntityName    string    `gorm:"size:300" json:"entityName"`
	Action        string    `gorm:"size:100" json:"actionPast"` // past-tense verb, e.g. "submitted"
	Context       string    `gorm:"type:text" json:"context"`   // JSON; {"changes":{field:{"from":..,"to":..}}} for updates
	CreatedAt     time.Time `gorm:"index" json:"timestamp"`
}

func (ActivityLogEntry) TableName() string { return "activity_log_entries" }
