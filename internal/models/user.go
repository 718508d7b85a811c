package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a platform account. Band-scoped actions are never attributed to a
// User directly; they go through the Member record for the band.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string         `gorm:"size:255" json:"-"` // bcrypt hash, empty for LDAP users
	FirstName   string         `gorm:"size:100" json:"firstName"`
	LastName    string         `gorm:"size:100" json:"lastName"`
	DisplayName string         `gorm:"size:100" json:"displayName"`
	Bio         string         `gorm:"type:text" json:"bio"`
	Location    string         `gorm:"size:200" json:"location"`
	Timezone    string         `gorm:"size:100" json:"timezone"`
	Role        string         `gorm:"size:50;default:user" json:"role"`       // admin, user
	AuthType    string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLogin   *time.Time     `json:"last_login"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// Name returns the display name, falling back to first/last name.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.FirstName != "" || u.LastName != "" {
		if u.FirstName == "" {
			return u.LastName
		}
		if u.LastName == "" {
			return u.FirstName
		}
		return u.FirstName + " " + u.LastName
	}
	return u.Email
}
