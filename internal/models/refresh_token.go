package models

import "time"

// RefreshToken stores the SHA-256 hash of an issued refresh token. The raw
// token is only ever returned to the client once.
type RefreshToken struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	TokenHash   string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt   time.Time  `gorm:"index" json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at"`
	CreatedByIP string     `gorm:"size:50" json:"-"`
	UserAgent   string     `gorm:"size:500" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// IsValid reports whether the token is neither revoked nor expired.
func (t *RefreshToken) IsValid() bool {
	return t.RevokedAt == nil && time.Now().Before(t.ExpiresAt)
}
