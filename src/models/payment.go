package models

import (
	"ems/src/types"
	"time"
)

// PaymentSubmission is a brand-provided proof-of-payment record owned by
// exactly one StallApplication. The latest pending row is authoritative.
type PaymentSubmission struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	ApplicationID uint                `json:"application_id,omitempty"`
	Amount        float64             `json:"amount"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Email         string              `json:"email,omitempty"`
	ProofFileURL  *string             `json:"proof_file_url,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	Status        types.PaymentStatus `gorm:"default:'pending_review'" json:"status,omitempty"`

	RejectionReason *string    `json:"rejection_reason,omitempty"`
	RejectionDate   *time.Time `json:"rejection_date,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      *uint      `json:"reviewed_by,omitempty"`

	Application StallApplication `gorm:"foreignKey:application_id" json:"-"`

	types.Timestamps
}
