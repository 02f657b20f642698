package common

import (
	"ems/src/db"
	"ems/src/models"
	"ems/src/types"
	"errors"
	"time"

	"gorm.io/gorm"
)

// SubmitPayment records a proof-of-payment against an application that
// is awaiting payment. Only one pending_review submission may exist per
// application at a time; a rejected submission frees the slot.
func SubmitPayment(applicationId uint, body *types.SubmitPaymentRequestBody) (*models.PaymentSubmission, error) {
	var submission models.PaymentSubmission
	err := db.GetDb().Transaction(func(tx *gorm.DB) error {
		var application models.StallApplication
		if err := tx.Where(&models.StallApplication{ID: applicationId}).First(&application).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}
		if application.Status != types.APPLICATION_PAYMENT_PENDING {
			return ErrPaymentNotExpected
		}
		var pending int64
		if err := tx.
			Model(&models.PaymentSubmission{}).
			Where("application_id = ? AND status = ?", applicationId, types.PAYMENT_PENDING_REVIEW).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicateSubmission
		}
		submission = models.PaymentSubmission{
			ApplicationID: applicationId,
			Amount:        body.Amount,
			TransactionID: body.TransactionID,
			Email:         body.Email,
			ProofFileURL:  body.ProofFileURL,
			Notes:         body.Notes,
			Status:        types.PAYMENT_PENDING_REVIEW,
		}
		return tx.Create(&submission).Error
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// ReviewPayment settles a pending submission. A rejection must carry a
// reason; a second review of the same submission fails with
// ErrInvalidState rather than silently overwriting the verdict.
func ReviewPayment(submissionId uint, decision types.PaymentStatus, reviewerId uint, reason *string) (*models.PaymentSubmission, error) {
	if decision != types.PAYMENT_APPROVED && decision != types.PAYMENT_REJECTED {
		return nil, errors.New("unknown payment decision")
	}
	var submission models.PaymentSubmission
	err := db.GetDb().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.PaymentSubmission{ID: submissionId}).First(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}
		if submission.Status != types.PAYMENT_PENDING_REVIEW {
			return ErrInvalidState
		}
		now := time.Now()
		submission.Status = decision
		submission.ReviewedAt = &now
		submission.ReviewedBy = &reviewerId
		if decision == types.PAYMENT_REJECTED {
			if reason == nil || *reason == "" {
				return ErrReasonRequired
			}
			submission.RejectionReason = reason
			submission.RejectionDate = &now
		}
		return tx.Save(&submission).Error
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func GetSubmission(submissionId uint) (*models.PaymentSubmission, error) {
	var submission models.PaymentSubmission
	if err := db.GetDb().Where(&models.PaymentSubmission{ID: submissionId}).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// LatestSubmission returns the most recent submission for an
// application, or ErrSubmissionNotFound when none exists.
func LatestSubmission(applicationId uint) (*models.PaymentSubmission, error) {
	var submission models.PaymentSubmission
	err := db.GetDb().
		Where(&models.PaymentSubmission{ApplicationID: applicationId}).
		Order("created_at DESC").
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &submission, nil
}
