package models

import (
	"ems/src/types"
	"time"
)

type User struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Name          string          `json:"name,omitempty"`
	Email         string          `json:"email,omitempty"`
	Role          string          `gorm:"default:'shopper'" json:"role,omitempty"`
	UID           string          `json:"uid,omitempty"`
	EmailVerified bool            `json:"email_verified,omitempty"`
	VerifiedAt    time.Time       `json:"verified_at,omitempty"`
	LastActive    *time.Time      `json:"last_active,omitempty"`
	Metadata      *types.Metadata `gorm:"type:jsonb" json:"metadata,omitempty"`

	Applications  []StallApplication `gorm:"foreignKey:brand_id" json:"applications,omitempty"`
	Exhibitions   []Exhibition       `gorm:"foreignKey:organiser_id" json:"exhibitions,omitempty"`
	Notifications []Notification     `gorm:"foreignKey:user_id" json:"-"`
	Favorites     []Favorite         `gorm:"foreignKey:shopper_id" json:"-"`

	types.Timestamps
}
