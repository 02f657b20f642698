package models

import "ems/src/types"

type Favorite struct {
	ID           uint `gorm:"primarykey" json:"id"`
	ShopperID    uint `gorm:"uniqueIndex:shopper_exhibition" json:"shopper_id,omitempty"`
	ExhibitionID uint `gorm:"uniqueIndex:shopper_exhibition" json:"exhibition_id,omitempty"`

	Exhibition Exhibition `json:"exhibition,omitempty"`

	types.Timestamps
}
