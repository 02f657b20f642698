package common

import (
	"ems/src/db"
	"ems/src/lib/aws"
	"ems/src/models"
	"ems/src/types"
	"ems/src/utils"
	"errors"
	"log"
	"time"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

// PendingPaymentsConsumer expires applications whose booking deadline
// elapsed without a payment submission. Messages arrive from the
// scheduler through the PendingPayments queue; the handler re-checks
// the live status so a payment that landed in the meantime wins.
func PendingPaymentsConsumer() {
	consumer := aws.NewSQSConsumer(utils.WithSuffix("PendingPayments"), func(payload string) {
		applicationId := uint(gjson.Get(payload, "application").Uint())
		jobId := gjson.Get(payload, "JobID").String()
		if applicationId == 0 {
			log.Printf("[PendingPaymentsConsumer] message without application id: %s\n", payload)
			return
		}
		if err := ExpireOverdueApplication(applicationId); err != nil {
			log.Printf("[PendingPaymentsConsumer] application %d: %s\n", applicationId, err.Error())
		}
		if jobId != "" {
			if err := db.GetDb().
				Model(&models.JobTask{}).
				Where("id = ?", jobId).
				Update("status", "completed").Error; err != nil {
				log.Printf("[PendingPaymentsConsumer] could not complete job %s: %s\n", jobId, err.Error())
			}
		}
	})
	consumer.Listen()
}

// ExpireOverdueApplication rejects a payment_pending application whose
// deadline has passed. Applications that moved on are left alone.
func ExpireOverdueApplication(applicationId uint) error {
	var application models.StallApplication
	err := db.GetDb().Where(&models.StallApplication{ID: applicationId}).First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		return err
	}
	if application.Status != types.APPLICATION_PAYMENT_PENDING {
		return nil
	}
	if application.BookingDeadline != nil && application.BookingDeadline.After(time.Now()) {
		return nil
	}
	_, err = RejectApplication(applicationId)
	if err != nil && !errors.As(err, new(*DispatchError)) {
		return err
	}
	return nil
}
