package common

import (
	"ems/src/db"
	"ems/src/lib"
	"ems/src/models"
	"ems/src/types"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// StatusTransitions is the single source of truth for application
// status changes. Every status update in the system goes through
// TransitionApplication; nothing writes the status column directly.
var StatusTransitions = map[types.ApplicationStatus][]types.ApplicationStatus{
	types.APPLICATION_PENDING:         {types.APPLICATION_PAYMENT_PENDING, types.APPLICATION_REJECTED},
	types.APPLICATION_PAYMENT_PENDING: {types.APPLICATION_PAYMENT_REVIEW, types.APPLICATION_REJECTED},
	types.APPLICATION_PAYMENT_REVIEW:  {types.APPLICATION_BOOKED, types.APPLICATION_REJECTED},
	types.APPLICATION_BOOKED:          {types.APPLICATION_REJECTED},
	types.APPLICATION_REJECTED:        {types.APPLICATION_PENDING},
}

func AllowedTransitions(from types.ApplicationStatus) []types.ApplicationStatus {
	return StatusTransitions[from]
}

func CanTransition(from, to types.ApplicationStatus) bool {
	for _, next := range StatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EventForStatus maps the status an application just entered to the
// notification event announcing it.
func EventForStatus(to types.ApplicationStatus) types.NotificationEvent {
	switch to {
	case types.APPLICATION_PENDING:
		return types.EVENT_STALL_APPLICATION
	case types.APPLICATION_PAYMENT_PENDING:
		return types.EVENT_STALL_APPLICATION_APPROVED
	case types.APPLICATION_PAYMENT_REVIEW:
		return types.EVENT_STALL_PAYMENT_COMPLETE
	case types.APPLICATION_BOOKED:
		return types.EVENT_STALL_BOOKING_CONFIRMED
	case types.APPLICATION_REJECTED:
		return types.EVENT_STALL_APPLICATION_REJECTED
	}
	return ""
}

// TransitionApplication moves an application from one status to
// another with a conditional update. The WHERE clause carries the
// expected current status, so two racing reviewers cannot both win:
// the loser matches zero rows and gets ErrConcurrentModification.
func TransitionApplication(applicationId uint, from, to types.ApplicationStatus) (*models.StallApplication, error) {
	if !CanTransition(from, to) {
		return nil, &InvalidTransitionError{From: from, To: to}
	}
	var application models.StallApplication
	err := db.GetDb().Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.StallApplication{}).
			Where("id = ? AND status = ?", applicationId, from).
			Updates(map[string]any{
				"status":     to,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.StallApplication{}).Where("id = ?", applicationId).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrApplicationNotFound
			}
			return ErrConcurrentModification
		}
		return tx.Where(&models.StallApplication{ID: applicationId}).First(&application).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	go func() {
		if err := lib.KafkaProduceMessage("ems-api", "applications-status", map[string]any{
			"application": applicationId,
			"from":        from,
			"to":          to,
			"at":          time.Now().Format(time.RFC3339),
		}); err != nil {
			log.Printf("[TransitionApplication] audit produce failed for application %d: %s\n", applicationId, err.Error())
		}
	}()
	return &application, nil
}
