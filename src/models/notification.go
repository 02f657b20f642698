package models

import (
	"ems/src/types"

	"github.com/google/uuid"
)

// Notification rows are append-only from the dispatcher's perspective;
// only the owning recipient later flips IsRead.
type Notification struct {
	ID      uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID  uint      `json:"user_id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Link    string    `json:"link"`
	IsRead  bool      `gorm:"default:false" json:"is_read"`

	User User `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}
