package common

import (
	"context"
	"ems/src/db"
	"ems/src/lib"
	"ems/src/models"
	"ems/src/types"
	"fmt"
	"log"

	"firebase.google.com/go/v4/messaging"
)

// ListRecipients snapshots every user currently holding the given
// role. The dispatcher resolves recipients at dispatch time, so role
// changes after the triggering action are picked up and mid-dispatch
// changes are not.
func ListRecipients(role string) ([]models.User, error) {
	var users []models.User
	if err := db.GetDb().Where(&models.User{Role: role}).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func notificationLink(role string, event types.NotificationEvent, nctx *types.NotificationContext) string {
	base := fmt.Sprintf("/dashboard/%s/exhibitions/%d/stalls/%d", role, nctx.ExhibitionID, nctx.StallID)
	switch role {
	case types.ROLE_BRAND:
		if event == types.EVENT_STALL_APPLICATION_APPROVED {
			return base + "/payment"
		}
	case types.ROLE_ORGANISER, types.ROLE_MANAGER:
		if event == types.EVENT_STALL_APPLICATION || event == types.EVENT_STALL_PAYMENT_COMPLETE {
			return base + "/review"
		}
	}
	return base
}

func notificationCopy(event types.NotificationEvent, nctx *types.NotificationContext) (string, string) {
	switch event {
	case types.EVENT_STALL_APPLICATION:
		return "New stall application",
			fmt.Sprintf("%s applied for stall %s at %s", nctx.BrandName, nctx.StallName, nctx.ExhibitionName)
	case types.EVENT_STALL_APPLICATION_APPROVED:
		return "Application approved",
			fmt.Sprintf("Your application for stall %s at %s was approved. Payment is now due", nctx.StallName, nctx.ExhibitionName)
	case types.EVENT_STALL_APPLICATION_REJECTED:
		return "Application rejected",
			fmt.Sprintf("Your application for stall %s at %s was rejected", nctx.StallName, nctx.ExhibitionName)
	case types.EVENT_STALL_PAYMENT_COMPLETE:
		return "Payment submitted",
			fmt.Sprintf("%s submitted payment for stall %s at %s", nctx.BrandName, nctx.StallName, nctx.ExhibitionName)
	case types.EVENT_STALL_BOOKING_CONFIRMED:
		return "Booking confirmed",
			fmt.Sprintf("Stall %s at %s is booked for %s", nctx.StallName, nctx.ExhibitionName, nctx.BrandName)
	}
	return string(event), ""
}

// primaryRecipient names the party the event is addressed to. Managers
// are fanned out on top of this in DispatchNotifications.
func primaryRecipient(event types.NotificationEvent, nctx *types.NotificationContext) (uint, string) {
	switch event {
	case types.EVENT_STALL_APPLICATION, types.EVENT_STALL_PAYMENT_COMPLETE:
		return nctx.OrganiserID, types.ROLE_ORGANISER
	default:
		return nctx.BrandID, types.ROLE_BRAND
	}
}

// DispatchNotifications persists one record for the primary recipient
// plus one per manager, in a single batch insert. Realtime cues go out
// best-effort after the rows are committed.
func DispatchNotifications(event types.NotificationEvent, nctx *types.NotificationContext) error {
	userId, role := primaryRecipient(event, nctx)
	title, message := notificationCopy(event, nctx)
	records := []models.Notification{
		{
			UserID:  userId,
			Title:   title,
			Message: message,
			Type:    string(event),
			Link:    notificationLink(role, event, nctx),
		},
	}
	managers, err := ListRecipients(types.ROLE_MANAGER)
	if err != nil {
		return &DispatchError{Event: event, Err: err}
	}
	managerLink := notificationLink(types.ROLE_MANAGER, event, nctx)
	for _, manager := range managers {
		records = append(records, models.Notification{
			UserID:  manager.ID,
			Title:   title,
			Message: message,
			Type:    string(event),
			Link:    managerLink,
		})
	}
	if err := db.GetDb().Create(&records).Error; err != nil {
		return &DispatchError{Event: event, Err: err}
	}
	go emitRealtimeCue(event, title, message)
	return nil
}

func emitRealtimeCue(event types.NotificationEvent, title, message string) {
	client := lib.GetPusherClient()
	if err := client.Trigger("notifications", string(event), map[string]string{
		"title":   title,
		"message": message,
	}); err != nil {
		log.Printf("[emitRealtimeCue] pusher trigger failed: %s\n", err.Error())
	}
	fcm, err := lib.GetFirebaseMessaging()
	if err != nil {
		log.Printf("[emitRealtimeCue] messaging client unavailable: %s\n", err.Error())
		return
	}
	if _, err := fcm.Send(context.Background(), &messaging.Message{
		Topic: "Notifications",
		Data: map[string]string{
			"type":  string(event),
			"title": title,
			"body":  message,
		},
	}); err != nil {
		log.Printf("[emitRealtimeCue] fcm send failed: %s\n", err.Error())
	}
}
