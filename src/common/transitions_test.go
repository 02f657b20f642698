package common

import (
	"ems/src/db"
	"ems/src/types"
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	mockdb, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockdb}), &gorm.Config{
		ConnPool: mockdb,
	})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from types.ApplicationStatus
		to   types.ApplicationStatus
	}{
		{types.APPLICATION_PENDING, types.APPLICATION_PAYMENT_PENDING},
		{types.APPLICATION_PENDING, types.APPLICATION_REJECTED},
		{types.APPLICATION_PAYMENT_PENDING, types.APPLICATION_PAYMENT_REVIEW},
		{types.APPLICATION_PAYMENT_PENDING, types.APPLICATION_REJECTED},
		{types.APPLICATION_PAYMENT_REVIEW, types.APPLICATION_BOOKED},
		{types.APPLICATION_PAYMENT_REVIEW, types.APPLICATION_REJECTED},
		{types.APPLICATION_BOOKED, types.APPLICATION_REJECTED},
		{types.APPLICATION_REJECTED, types.APPLICATION_PENDING},
	}
	for _, tc := range allowed {
		assert.Truef(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct {
		from types.ApplicationStatus
		to   types.ApplicationStatus
	}{
		{types.APPLICATION_PENDING, types.APPLICATION_PAYMENT_REVIEW},
		{types.APPLICATION_PENDING, types.APPLICATION_BOOKED},
		{types.APPLICATION_PENDING, types.APPLICATION_PENDING},
		{types.APPLICATION_PAYMENT_PENDING, types.APPLICATION_BOOKED},
		{types.APPLICATION_PAYMENT_PENDING, types.APPLICATION_PENDING},
		{types.APPLICATION_PAYMENT_REVIEW, types.APPLICATION_PENDING},
		{types.APPLICATION_PAYMENT_REVIEW, types.APPLICATION_PAYMENT_PENDING},
		{types.APPLICATION_BOOKED, types.APPLICATION_PENDING},
		{types.APPLICATION_BOOKED, types.APPLICATION_PAYMENT_REVIEW},
		{types.APPLICATION_REJECTED, types.APPLICATION_PAYMENT_PENDING},
		{types.APPLICATION_REJECTED, types.APPLICATION_BOOKED},
		{types.APPLICATION_REJECTED, types.APPLICATION_REJECTED},
	}
	for _, tc := range denied {
		assert.Falsef(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestAllowedTransitions(t *testing.T) {
	assert.ElementsMatch(t,
		[]types.ApplicationStatus{types.APPLICATION_PAYMENT_PENDING, types.APPLICATION_REJECTED},
		AllowedTransitions(types.APPLICATION_PENDING),
	)
	assert.ElementsMatch(t,
		[]types.ApplicationStatus{types.APPLICATION_PENDING},
		AllowedTransitions(types.APPLICATION_REJECTED),
	)
	assert.Empty(t, AllowedTransitions(types.ApplicationStatus("bogus")))
}

func TestEventForStatus(t *testing.T) {
	assert.Equal(t, types.EVENT_STALL_APPLICATION, EventForStatus(types.APPLICATION_PENDING))
	assert.Equal(t, types.EVENT_STALL_APPLICATION_APPROVED, EventForStatus(types.APPLICATION_PAYMENT_PENDING))
	assert.Equal(t, types.EVENT_STALL_PAYMENT_COMPLETE, EventForStatus(types.APPLICATION_PAYMENT_REVIEW))
	assert.Equal(t, types.EVENT_STALL_BOOKING_CONFIRMED, EventForStatus(types.APPLICATION_BOOKED))
	assert.Equal(t, types.EVENT_STALL_APPLICATION_REJECTED, EventForStatus(types.APPLICATION_REJECTED))
	assert.Empty(t, EventForStatus(types.ApplicationStatus("bogus")))
}

func TestTransitionApplicationRejectsInvalidPair(t *testing.T) {
	application, err := TransitionApplication(1, types.APPLICATION_PENDING, types.APPLICATION_BOOKED)
	assert.Nil(t, application)

	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, types.APPLICATION_PENDING, invalid.From)
	assert.Equal(t, types.APPLICATION_BOOKED, invalid.To)
}

func TestTransitionApplicationWinsRace(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "stall_applications" SET`).
		WithArgs(string(types.APPLICATION_PAYMENT_PENDING), sqlmock.AnyArg(), 1, string(types.APPLICATION_PENDING)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "stall_applications"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "brand_id", "exhibition_id", "stall_id", "status"}).
			AddRow(1, 2, 3, 4, string(types.APPLICATION_PAYMENT_PENDING)))
	mock.ExpectCommit()

	application, err := TransitionApplication(1, types.APPLICATION_PENDING, types.APPLICATION_PAYMENT_PENDING)
	assert.Nil(t, err)
	assert.NotNil(t, application)
	assert.Equal(t, types.APPLICATION_PAYMENT_PENDING, application.Status)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestTransitionApplicationLosesRace(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "stall_applications" SET`).
		WithArgs(string(types.APPLICATION_PAYMENT_REVIEW), sqlmock.AnyArg(), 1, string(types.APPLICATION_PAYMENT_PENDING)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "stall_applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	application, err := TransitionApplication(1, types.APPLICATION_PAYMENT_PENDING, types.APPLICATION_PAYMENT_REVIEW)
	assert.Nil(t, application)
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestTransitionApplicationMissingRow(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "stall_applications" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "stall_applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	application, err := TransitionApplication(99, types.APPLICATION_PENDING, types.APPLICATION_REJECTED)
	assert.Nil(t, application)
	assert.ErrorIs(t, err, ErrApplicationNotFound)
	assert.Nil(t, mock.ExpectationsWereMet())
}
