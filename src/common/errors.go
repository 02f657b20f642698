package common

import (
	"ems/src/types"
	"errors"
	"fmt"
)

var (
	ErrApplicationNotFound    = errors.New("application not found")
	ErrSubmissionNotFound     = errors.New("payment submission not found")
	ErrInvalidState           = errors.New("payment submission is not awaiting review")
	ErrDuplicateSubmission    = errors.New("payment already submitted")
	ErrReasonRequired         = errors.New("rejection reason is required")
	ErrPaymentNotExpected     = errors.New("application is not awaiting payment")
	ErrConcurrentModification = errors.New("application status changed concurrently")
	ErrStallNotFound          = errors.New("stall not found in exhibition")
	ErrStallUnavailable       = errors.New("stall is already booked")
	ErrDuplicateApplication   = errors.New("brand already has an open application for this stall")
)

// InvalidTransitionError rejects a status change that the transition
// table does not allow. The application row is left untouched.
type InvalidTransitionError struct {
	From types.ApplicationStatus
	To   types.ApplicationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition application from %s to %s", e.From, e.To)
}

// DispatchError reports a failed notification batch write. The
// transition that triggered the dispatch is never rolled back.
type DispatchError struct {
	Event types.NotificationEvent
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to dispatch notifications for %s: %s", e.Event, e.Err.Error())
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
