package common

import (
	"ems/src/config"
	"ems/src/db"
	"ems/src/lib"
	"ems/src/lib/mailer"
	"ems/src/models"
	"ems/src/types"
	"ems/src/utils"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// loadContext assembles the names and IDs every notification about an
// application needs. Preloads are read-only; the workflow never writes
// through them.
func loadContext(applicationId uint) (*types.NotificationContext, *models.StallApplication, error) {
	var application models.StallApplication
	err := db.GetDb().
		Preload("Brand").
		Preload("Stall").
		Preload("Exhibition").
		Where(&models.StallApplication{ID: applicationId}).
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrApplicationNotFound
		}
		return nil, nil, err
	}
	nctx := &types.NotificationContext{
		ApplicationID: application.ID,
		ExhibitionID:  application.ExhibitionID,
		StallID:       application.StallID,
		BrandID:       application.BrandID,
	}
	if application.Brand != nil {
		nctx.BrandName = application.Brand.Name
	}
	if application.Stall != nil {
		nctx.StallName = application.Stall.Name
	}
	if application.Exhibition != nil {
		nctx.OrganiserID = application.Exhibition.OrganiserID
		nctx.ExhibitionName = application.Exhibition.Title
	}
	return nctx, &application, nil
}

// dispatchOrLog fans the event out and, on failure, leaves a failed
// JobTask row behind so the batch can be replayed. The caller's state
// change is already committed and is never rolled back here.
func dispatchOrLog(event types.NotificationEvent, nctx *types.NotificationContext) error {
	err := DispatchNotifications(event, nctx)
	if err == nil {
		return nil
	}
	log.Printf("[dispatchOrLog] dispatch failed for %s on application %d: %s\n", event, nctx.ApplicationID, err.Error())
	task := models.JobTask{
		Name:       "NotificationDispatchFailure",
		JobType:    "redispatch",
		RunsAt:     time.Now(),
		PayloadID:  fmt.Sprint(nctx.ApplicationID),
		Source:     "notifications",
		SourceType: "table",
		Status:     "failed",
		Payload: types.JSONB{
			"event":       string(event),
			"application": nctx.ApplicationID,
			"exhibition":  nctx.ExhibitionID,
			"stall":       nctx.StallID,
			"brand":       nctx.BrandID,
			"organiser":   nctx.OrganiserID,
		},
	}
	if dberr := db.GetDb().Create(&task).Error; dberr != nil {
		log.Printf("[dispatchOrLog] could not record dispatch failure: %s\n", dberr.Error())
	}
	if utils.IsProd() {
		go lib.SNSPublishMessage(utils.WithSuffix("DispatchFailures"), err.Error())
	}
	return err
}

// CreateStallApplication opens a pending application for a brand. The
// stall must belong to the exhibition and still be open for
// applications.
func CreateStallApplication(brandId uint, body *types.CreateApplicationRequestBody) (*models.StallApplication, error) {
	var application models.StallApplication
	err := db.GetDb().Transaction(func(tx *gorm.DB) error {
		var stall models.Stall
		if err := tx.Where(&models.Stall{ID: body.StallID, ExhibitionID: body.ExhibitionID}).First(&stall).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStallNotFound
			}
			return err
		}
		if stall.Status == types.STALL_BOOKED {
			return ErrStallUnavailable
		}
		var open int64
		if err := tx.
			Model(&models.StallApplication{}).
			Where("brand_id = ? AND stall_id = ? AND status <> ?", brandId, body.StallID, types.APPLICATION_REJECTED).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrDuplicateApplication
		}
		application = models.StallApplication{
			BrandID:      brandId,
			ExhibitionID: body.ExhibitionID,
			StallID:      body.StallID,
			Status:       types.APPLICATION_PENDING,
		}
		if body.Deadline != nil {
			deadline, err := time.Parse(config.TIME_PARSE_FORMAT, *body.Deadline)
			if err != nil {
				return err
			}
			application.BookingDeadline = &deadline
		}
		return tx.Create(&application).Error
	})
	if err != nil {
		return nil, err
	}
	nctx, _, err := loadContext(application.ID)
	if err != nil {
		return &application, err
	}
	return &application, dispatchOrLog(types.EVENT_STALL_APPLICATION, nctx)
}

// ApproveApplication moves a pending application to payment_pending and
// schedules the booking deadline when one is set. The transition commits
// first; notification delivery failures surface to the caller but do
// not undo the approval.
func ApproveApplication(applicationId uint, deadline *time.Time) (*models.StallApplication, error) {
	nctx, application, err := loadContext(applicationId)
	if err != nil {
		return nil, err
	}
	application, err = TransitionApplication(applicationId, application.Status, types.APPLICATION_PAYMENT_PENDING)
	if err != nil {
		return nil, err
	}
	if deadline == nil {
		deadline = application.BookingDeadline
	}
	if deadline != nil {
		if err := db.GetDb().
			Model(&models.StallApplication{}).
			Where("id = ?", applicationId).
			Update("booking_deadline", deadline).Error; err != nil {
			return nil, err
		}
		application.BookingDeadline = deadline
		go scheduleDeadlineCheck(application, *deadline)
	}
	return application, dispatchOrLog(types.EVENT_STALL_APPLICATION_APPROVED, nctx)
}

func scheduleDeadlineCheck(application *models.StallApplication, deadline time.Time) {
	task := models.JobTask{
		Name:       "BookingDeadline",
		JobType:    "deadline",
		RunsAt:     deadline,
		PayloadID:  fmt.Sprint(application.ID),
		Source:     "stall_applications",
		SourceType: "table",
		Topic:      "applications-expire",
		Payload: types.JSONB{
			"application": application.ID,
			"deadline":    deadline.Format(time.RFC3339),
		},
	}
	if _, err := task.CreateAndEnqueueJobTask(); err != nil {
		log.Printf("[scheduleDeadlineCheck] could not schedule deadline for application %d: %s\n", application.ID, err.Error())
	}
}

// RejectApplication moves an application to rejected from any status
// the transition table allows it from.
func RejectApplication(applicationId uint) (*models.StallApplication, error) {
	nctx, application, err := loadContext(applicationId)
	if err != nil {
		return nil, err
	}
	application, err = TransitionApplication(applicationId, application.Status, types.APPLICATION_REJECTED)
	if err != nil {
		return nil, err
	}
	return application, dispatchOrLog(types.EVENT_STALL_APPLICATION_REJECTED, nctx)
}

// ReopenApplication returns a rejected application to pending so the
// brand can be reconsidered without reapplying.
func ReopenApplication(applicationId uint) (*models.StallApplication, error) {
	nctx, application, err := loadContext(applicationId)
	if err != nil {
		return nil, err
	}
	application, err = TransitionApplication(applicationId, application.Status, types.APPLICATION_PENDING)
	if err != nil {
		return nil, err
	}
	return application, dispatchOrLog(types.EVENT_STALL_APPLICATION, nctx)
}

// SubmitPaymentForApplication records the proof of payment, then moves
// the application into payment_review as a separate step. A transition
// failure after the submission is saved leaves the submission intact.
func SubmitPaymentForApplication(applicationId uint, body *types.SubmitPaymentRequestBody) (*models.PaymentSubmission, error) {
	submission, err := SubmitPayment(applicationId, body)
	if err != nil {
		return nil, err
	}
	if _, err := TransitionApplication(applicationId, types.APPLICATION_PAYMENT_PENDING, types.APPLICATION_PAYMENT_REVIEW); err != nil {
		return submission, err
	}
	nctx, _, err := loadContext(applicationId)
	if err != nil {
		return submission, err
	}
	return submission, dispatchOrLog(types.EVENT_STALL_PAYMENT_COMPLETE, nctx)
}

// ReviewPaymentSubmission settles a submission and advances the parent
// application: approval books the stall, rejection sends the
// application back to rejected. Re-reviewing a settled submission with
// the same decision resumes the drive where a previous run stopped, so
// a failure after the settle never strands the application.
func ReviewPaymentSubmission(submissionId uint, decision types.PaymentStatus, reviewerId uint, reason *string) (*models.PaymentSubmission, *models.StallApplication, error) {
	submission, err := ReviewPayment(submissionId, decision, reviewerId, reason)
	if errors.Is(err, ErrInvalidState) {
		settled, gerr := GetSubmission(submissionId)
		if gerr != nil || settled.Status != decision {
			return nil, nil, err
		}
		submission = settled
	} else if err != nil {
		return nil, nil, err
	}
	nctx, application, err := loadContext(submission.ApplicationID)
	if err != nil {
		return submission, nil, err
	}
	switch decision {
	case types.PAYMENT_APPROVED:
		if application.Status != types.APPLICATION_BOOKED {
			application, err = TransitionApplication(application.ID, application.Status, types.APPLICATION_BOOKED)
			if err != nil {
				return submission, nil, err
			}
		}
		if err := db.GetDb().
			Model(&models.Stall{}).
			Where("id = ?", application.StallID).
			Update("status", types.STALL_BOOKED).Error; err != nil {
			return submission, application, err
		}
		go sendBookingConfirmedMail(nctx, submission)
		return submission, application, dispatchOrLog(types.EVENT_STALL_BOOKING_CONFIRMED, nctx)
	case types.PAYMENT_REJECTED:
		if application.Status != types.APPLICATION_REJECTED {
			application, err = TransitionApplication(application.ID, application.Status, types.APPLICATION_REJECTED)
			if err != nil {
				return submission, nil, err
			}
		}
		return submission, application, dispatchOrLog(types.EVENT_STALL_APPLICATION_REJECTED, nctx)
	}
	return submission, application, nil
}

func sendBookingConfirmedMail(nctx *types.NotificationContext, submission *models.PaymentSubmission) {
	body := fmt.Sprintf(
		"Your payment of %.2f for stall %s at %s has been verified. The stall is now booked under %s.",
		submission.Amount, nctx.StallName, nctx.ExhibitionName, nctx.BrandName,
	)
	if err := mailer.NewMailerMessage(&lib.SendMailInput{
		From:    config.SMTP_FROM,
		To:      []string{submission.Email},
		Subject: fmt.Sprintf("Booking confirmed for %s", nctx.ExhibitionName),
		Body:    body,
	}); err != nil {
		log.Printf("[sendBookingConfirmedMail] could not enqueue confirmation mail: %s\n", err.Error())
	}
}
