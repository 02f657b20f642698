package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type JSONBAny struct {
	Inner any
}

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a JSONBAny) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a.Inner)
	return string(valueString), err
}
func (a *JSONBAny) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	var inner any
	if err := json.Unmarshal(b, &inner); err != nil {
		return err
	}
	a.Inner = inner
	return nil
}

type Metadata map[string]any

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

// Platform roles. Managers observe every application across all
// organisers; organisers review applications for their own exhibitions.
const (
	ROLE_MANAGER   = "manager"
	ROLE_ORGANISER = "organiser"
	ROLE_BRAND     = "brand"
	ROLE_SHOPPER   = "shopper"
)

type ApplicationStatus string

const (
	APPLICATION_PENDING         ApplicationStatus = "pending"
	APPLICATION_PAYMENT_PENDING ApplicationStatus = "payment_pending"
	APPLICATION_PAYMENT_REVIEW  ApplicationStatus = "payment_review"
	APPLICATION_BOOKED          ApplicationStatus = "booked"
	APPLICATION_REJECTED        ApplicationStatus = "rejected"
)

type PaymentStatus string

const (
	PAYMENT_PENDING_REVIEW PaymentStatus = "pending_review"
	PAYMENT_APPROVED       PaymentStatus = "approved"
	PAYMENT_REJECTED       PaymentStatus = "rejected"
)

type ExhibitionStatus string

const (
	EXHIBITION_DRAFT     ExhibitionStatus = "draft"
	EXHIBITION_PUBLISHED ExhibitionStatus = "published"
	EXHIBITION_CLOSED    ExhibitionStatus = "closed"
	EXHIBITION_ARCHIVED  ExhibitionStatus = "archived"
)

type StallStatus string

const (
	STALL_AVAILABLE StallStatus = "available"
	STALL_RESERVED  StallStatus = "reserved"
	STALL_BOOKED    StallStatus = "booked"
)

// NotificationEvent tags the dispatchable event kinds. One event is
// emitted per successful application transition.
type NotificationEvent string

const (
	EVENT_STALL_APPLICATION          NotificationEvent = "stall_application"
	EVENT_STALL_APPLICATION_APPROVED NotificationEvent = "stall_application_approved"
	EVENT_STALL_APPLICATION_REJECTED NotificationEvent = "stall_application_rejected"
	EVENT_STALL_PAYMENT_COMPLETE     NotificationEvent = "stall_payment_complete"
	EVENT_STALL_BOOKING_CONFIRMED    NotificationEvent = "stall_booking_confirmed"
)

// NotificationContext carries the identifiers and display names needed
// to build per-recipient messages and deep links for one event.
type NotificationContext struct {
	ApplicationID  uint   `json:"application_id"`
	ExhibitionID   uint   `json:"exhibition_id"`
	StallID        uint   `json:"stall_id"`
	BrandID        uint   `json:"brand_id"`
	OrganiserID    uint   `json:"organiser_id"`
	BrandName      string `json:"brand_name,omitempty"`
	StallName      string `json:"stall_name,omitempty"`
	ExhibitionName string `json:"exhibition_name,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateApplicationRequestBody struct {
	ExhibitionID uint    `json:"exhibition" binding:"required"`
	StallID      uint    `json:"stall" binding:"required"`
	Deadline     *string `json:"deadline,omitempty" binding:"omitempty,futuredate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type SubmitPaymentRequestBody struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	TransactionID string  `json:"transaction_id" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	ProofFileURL  *string `json:"proof_file_url,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type ApproveApplicationRequestBody struct {
	Deadline *string `json:"deadline,omitempty" binding:"omitempty,futuredate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type ReviewPaymentRequestBody struct {
	Decision        string  `json:"decision" binding:"required,oneof=approved rejected"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type RejectApplicationRequestBody struct {
	Reason *string `json:"reason,omitempty"`
}

type RegisterUserRequestBody struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role,omitempty" binding:"omitempty,oneof=manager organiser brand shopper"`
}

type CreateSettingRequestBody struct {
	Key   string `json:"key" binding:"required"`
	Value any    `json:"value" binding:"required"`
	Group string `json:"group" binding:"required"`
}

type ApplicationsQueryFilters struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending payment_pending payment_review booked rejected"`
	Exhibition uint   `form:"exhibition" binding:"omitempty"`
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Handler consumes a raw queue message body.
type Handler func(payload string)
