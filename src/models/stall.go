package models

import "ems/src/types"

type Stall struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	Name         string            `json:"name,omitempty"`
	Size         string            `json:"size,omitempty"`
	Price        float64           `json:"price"`
	Currency     string            `json:"currency,omitempty"`
	Status       types.StallStatus `gorm:"default:'available'" json:"status,omitempty"`
	ExhibitionID uint              `json:"exhibition_id,omitempty"`

	Exhibition   Exhibition         `json:"exhibition,omitempty"`
	Applications []StallApplication `gorm:"foreignKey:stall_id" json:"-"`

	types.Timestamps
}
