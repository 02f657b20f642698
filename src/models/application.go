package models

import (
	"ems/src/types"
	"time"
)

// StallApplication is a brand's request to occupy a specific stall at a
// specific exhibition. Status only changes through validated
// transitions; rejection is a terminal status, not a deletion.
type StallApplication struct {
	ID              uint                    `gorm:"primarykey" json:"id"`
	BrandID         uint                    `json:"brand_id,omitempty"`
	ExhibitionID    uint                    `json:"exhibition_id,omitempty"`
	StallID         uint                    `json:"stall_id,omitempty"`
	Status          types.ApplicationStatus `gorm:"default:'pending'" json:"status,omitempty"`
	BookingDeadline *time.Time              `json:"booking_deadline,omitempty"`

	Brand      *User              `gorm:"foreignKey:brand_id" json:"brand,omitempty"`
	Exhibition *Exhibition        `gorm:"foreignKey:exhibition_id" json:"exhibition,omitempty"`
	Stall      *Stall             `gorm:"foreignKey:stall_id" json:"stall,omitempty"`
	Payments   []PaymentSubmission `gorm:"foreignKey:application_id" json:"payments,omitempty"`

	types.Timestamps
}
