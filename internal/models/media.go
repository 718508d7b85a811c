package models

import (
	"time"

	"gorm.io/gorm"
)

// BandImage is metadata for an uploaded image; the file lives on disk under
// the configured storage dir with a uuid filename.
type BandImage struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	BandID           uint           `gorm:"index;not null" json:"bandId"`
	UploaderMemberID uint           `json:"uploaderMemberId"`
	Title            string         `gorm:"size:300" json:"title"`
	Description      string         `gorm:"size:1000" json:"description"`
	FileName         string         `gorm:"size:300" json:"fileName"` // original client filename
	StoredName       string         `gorm:"size:100;uniqueIndex" json:"-"`
	ContentType      string         `gorm:"size:100" json:"contentType"`
	SizeBytes        int64          `json:"sizeBytes"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"-"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BandImage) TableName() string { return "band_images" }

// BandDocument is metadata for an uploaded document.
type BandDocument struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	BandID           uint           `gorm:"index;not null" json:"bandId"`
	UploaderMemberID uint           `json:"uploaderMemberId"`
	Title            string         `gorm:"size:300;not null" json:"title"`
	Description      string         `gorm:"size:1000" json:"description"`
	FileName         string         `gorm:"size:300" json:"fileName"`
	StoredName       string         `gorm:"size:100;uniqueIndex" json:"-"`
	ContentType      string         `gorm:"size:100" json:"contentType"`
	SizeBytes        int64          `json:"sizeBytes"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"-"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BandDocument) TableName() string { return "band_documents" }
