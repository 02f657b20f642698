package common

import (
	"ems/src/db"
	"ems/src/types"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func sampleContext() *types.NotificationContext {
	return &types.NotificationContext{
		ApplicationID:  1,
		ExhibitionID:   2,
		StallID:        3,
		BrandID:        4,
		OrganiserID:    5,
		BrandName:      "Acme Goods",
		StallName:      "A-12",
		ExhibitionName: "Spring Fair",
	}
}

func TestNotificationLink(t *testing.T) {
	nctx := sampleContext()

	link := notificationLink(types.ROLE_BRAND, types.EVENT_STALL_APPLICATION_APPROVED, nctx)
	assert.Equal(t, "/dashboard/brand/exhibitions/2/stalls/3/payment", link)

	link = notificationLink(types.ROLE_ORGANISER, types.EVENT_STALL_APPLICATION, nctx)
	assert.Equal(t, "/dashboard/organiser/exhibitions/2/stalls/3/review", link)

	link = notificationLink(types.ROLE_MANAGER, types.EVENT_STALL_PAYMENT_COMPLETE, nctx)
	assert.Equal(t, "/dashboard/manager/exhibitions/2/stalls/3/review", link)

	link = notificationLink(types.ROLE_BRAND, types.EVENT_STALL_BOOKING_CONFIRMED, nctx)
	assert.Equal(t, "/dashboard/brand/exhibitions/2/stalls/3", link)

	link = notificationLink(types.ROLE_MANAGER, types.EVENT_STALL_BOOKING_CONFIRMED, nctx)
	assert.Equal(t, "/dashboard/manager/exhibitions/2/stalls/3", link)
}

func TestNotificationCopy(t *testing.T) {
	nctx := sampleContext()

	title, message := notificationCopy(types.EVENT_STALL_APPLICATION, nctx)
	assert.Equal(t, "New stall application", title)
	assert.Contains(t, message, "Acme Goods")
	assert.Contains(t, message, "A-12")
	assert.Contains(t, message, "Spring Fair")

	title, message = notificationCopy(types.EVENT_STALL_APPLICATION_APPROVED, nctx)
	assert.Equal(t, "Application approved", title)
	assert.Contains(t, message, "Payment is now due")

	title, _ = notificationCopy(types.EVENT_STALL_BOOKING_CONFIRMED, nctx)
	assert.Equal(t, "Booking confirmed", title)
}

func TestPrimaryRecipient(t *testing.T) {
	nctx := sampleContext()

	userId, role := primaryRecipient(types.EVENT_STALL_APPLICATION, nctx)
	assert.Equal(t, uint(5), userId)
	assert.Equal(t, types.ROLE_ORGANISER, role)

	userId, role = primaryRecipient(types.EVENT_STALL_PAYMENT_COMPLETE, nctx)
	assert.Equal(t, uint(5), userId)
	assert.Equal(t, types.ROLE_ORGANISER, role)

	for _, event := range []types.NotificationEvent{
		types.EVENT_STALL_APPLICATION_APPROVED,
		types.EVENT_STALL_APPLICATION_REJECTED,
		types.EVENT_STALL_BOOKING_CONFIRMED,
	} {
		userId, role = primaryRecipient(event, nctx)
		assert.Equal(t, uint(4), userId)
		assert.Equal(t, types.ROLE_BRAND, role)
	}
}

func TestListRecipients(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WithArgs(types.ROLE_MANAGER).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "email", "role"}).
			AddRow(7, "m1@example.com", types.ROLE_MANAGER).
			AddRow(8, "m2@example.com", types.ROLE_MANAGER))

	managers, err := ListRecipients(types.ROLE_MANAGER)
	assert.Nil(t, err)
	assert.Len(t, managers, 2)
	assert.Equal(t, uint(7), managers[0].ID)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestDispatchNotificationsFanOut(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "email", "role"}).
			AddRow(7, "m1@example.com", types.ROLE_MANAGER).
			AddRow(8, "m2@example.com", types.ROLE_MANAGER))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id"}).
			AddRow("8e2b0a3e-0000-0000-0000-000000000001").
			AddRow("8e2b0a3e-0000-0000-0000-000000000002").
			AddRow("8e2b0a3e-0000-0000-0000-000000000003"))
	mock.ExpectCommit()

	err := DispatchNotifications(types.EVENT_STALL_APPLICATION, sampleContext())
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestDispatchNotificationsReportsWriteFailure(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := DispatchNotifications(types.EVENT_STALL_BOOKING_CONFIRMED, sampleContext())
	var dispatchErr *DispatchError
	assert.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, types.EVENT_STALL_BOOKING_CONFIRMED, dispatchErr.Event)
	assert.Nil(t, mock.ExpectationsWereMet())
}
