package models

import (
	"ems/src/types"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type Exhibition struct {
	ID          uint                   `gorm:"primarykey;uniqueIndex:slugid" json:"id"`
	Title       string                 `json:"title,omitempty"`
	About       *string                `json:"about,omitempty"`
	Venue       string                 `json:"venue,omitempty"`
	StartsAt    *time.Time             `json:"starts_at,omitempty"`
	EndsAt      *time.Time             `json:"ends_at,omitempty"`
	Status      types.ExhibitionStatus `gorm:"default:'draft'" json:"status,omitempty"`
	OrganiserID uint                   `json:"organiser,omitempty"`
	Slug        string                 `gorm:"uniqueIndex:slugid" json:"slug"`
	Metadata    *types.Metadata        `gorm:"type:jsonb" json:"metadata,omitempty"`

	Organiser    User               `gorm:"foreignKey:organiser_id" json:"-"`
	Stalls       []Stall            `gorm:"foreignKey:exhibition_id" json:"stalls,omitempty"`
	Applications []StallApplication `gorm:"foreignKey:exhibition_id" json:"-"`

	types.Timestamps
}

func (exhibition *Exhibition) BeforeCreate(tx *gorm.DB) error {
	if exhibition.Slug == "" {
		exhibition.Slug = slug.Make(fmt.Sprintf("%s %s", exhibition.Title, exhibition.Venue))
	}
	return nil
}
