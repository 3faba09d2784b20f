package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by repositories when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrorKind groups registration errors by the reason they were rejected.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindStateConflict ErrorKind = "state_conflict"
	KindCapacity      ErrorKind = "capacity"
	KindGeofence      ErrorKind = "geofence"
)

// ErrorCode is the stable machine-readable code of a registration error.
type ErrorCode string

const (
	CodeEventNotFound         ErrorCode = "event_not_found"
	CodeEventNotOpen          ErrorCode = "event_not_open"
	CodeEventFull             ErrorCode = "event_full"
	CodeAlreadyRegistered     ErrorCode = "already_registered"
	CodeNotRegistered         ErrorCode = "not_registered"
	CodeRegistrationCancelled ErrorCode = "registration_cancelled"
	CodeAlreadyCheckedIn      ErrorCode = "already_checked_in"
	CodeAlreadyCancelled      ErrorCode = "already_cancelled"
	CodeCheckInTooEarly       ErrorCode = "check_in_too_early"
	CodeCheckInTooLate        ErrorCode = "check_in_too_late"
	CodeCheckInTooFar         ErrorCode = "check_in_too_far"
)

// RegistrationError is an expected business rejection of Join, CheckIn or Leave.
// Errors with the same Code match under errors.Is regardless of their parameters.
type RegistrationError struct {
	Kind    ErrorKind
	Code    ErrorCode
	Message string

	// EventStatus is set for event_not_open.
	EventStatus EventStatus
	// DistanceMeters and MaxDistanceMeters are set for check_in_too_far.
	DistanceMeters    int
	MaxDistanceMeters int
	// WindowOpensAt and WindowClosesAt are set for check_in_too_early and check_in_too_late.
	WindowOpensAt  time.Time
	WindowClosesAt time.Time
}

func (e *RegistrationError) Error() string {
	return e.Message
}

// Is matches any *RegistrationError with the same code.
func (e *RegistrationError) Is(target error) bool {
	t, ok := target.(*RegistrationError)
	return ok && t.Code == e.Code
}

// Registration rejections without parameters.
var (
	ErrEventNotFound         = &RegistrationError{Kind: KindNotFound, Code: CodeEventNotFound, Message: "event not found"}
	ErrNotRegistered         = &RegistrationError{Kind: KindNotFound, Code: CodeNotRegistered, Message: "not registered for this event"}
	ErrEventFull             = &RegistrationError{Kind: KindCapacity, Code: CodeEventFull, Message: "event is full"}
	ErrAlreadyRegistered     = &RegistrationError{Kind: KindStateConflict, Code: CodeAlreadyRegistered, Message: "already registered for this event"}
	ErrRegistrationCancelled = &RegistrationError{Kind: KindStateConflict, Code: CodeRegistrationCancelled, Message: "registration was cancelled"}
	ErrAlreadyCheckedIn      = &RegistrationError{Kind: KindStateConflict, Code: CodeAlreadyCheckedIn, Message: "already checked in"}
	ErrAlreadyCancelled      = &RegistrationError{Kind: KindStateConflict, Code: CodeAlreadyCancelled, Message: "registration already cancelled"}
)

// Match targets for the parameterised rejections; use the New* constructors to build them.
var (
	ErrEventNotOpen    = &RegistrationError{Kind: KindStateConflict, Code: CodeEventNotOpen, Message: "event is not open"}
	ErrCheckInTooEarly = &RegistrationError{Kind: KindGeofence, Code: CodeCheckInTooEarly, Message: "check-in is not yet available"}
	ErrCheckInTooLate  = &RegistrationError{Kind: KindGeofence, Code: CodeCheckInTooLate, Message: "check-in window has closed"}
	ErrCheckInTooFar   = &RegistrationError{Kind: KindGeofence, Code: CodeCheckInTooFar, Message: "too far from event location"}
)

// NewEventNotOpenError reports a Join against an event whose status is not open.
func NewEventNotOpenError(status EventStatus) *RegistrationError {
	return &RegistrationError{
		Kind:        KindStateConflict,
		Code:        CodeEventNotOpen,
		Message:     fmt.Sprintf("cannot join event with status: %s", status),
		EventStatus: status,
	}
}

// NewCheckInTooEarlyError reports a check-in before the window opened.
func NewCheckInTooEarlyError(opensAt, closesAt time.Time) *RegistrationError {
	return &RegistrationError{
		Kind:           KindGeofence,
		Code:           CodeCheckInTooEarly,
		Message:        fmt.Sprintf("check-in is not yet available, opens at %s", opensAt.UTC().Format(time.RFC3339)),
		WindowOpensAt:  opensAt,
		WindowClosesAt: closesAt,
	}
}

// NewCheckInTooLateError reports a check-in after the window closed.
func NewCheckInTooLateError(opensAt, closesAt time.Time) *RegistrationError {
	return &RegistrationError{
		Kind:           KindGeofence,
		Code:           CodeCheckInTooLate,
		Message:        fmt.Sprintf("check-in window closed at %s", closesAt.UTC().Format(time.RFC3339)),
		WindowOpensAt:  opensAt,
		WindowClosesAt: closesAt,
	}
}

// NewCheckInTooFarError reports a check-in outside the geofence.
func NewCheckInTooFarError(distanceMeters, maxDistanceMeters int) *RegistrationError {
	return &RegistrationError{
		Kind:              KindGeofence,
		Code:              CodeCheckInTooFar,
		Message:           fmt.Sprintf("too far from event location. distance: %dm, max: %dm", distanceMeters, maxDistanceMeters),
		DistanceMeters:    distanceMeters,
		MaxDistanceMeters: maxDistanceMeters,
	}
}

// AsRegistrationError returns the *RegistrationError in err's chain, if any.
func AsRegistrationError(err error) (*RegistrationError, bool) {
	var re *RegistrationError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// InfrastructureError wraps a storage failure (lock timeout, lost connection,
// aborted transaction). It is never reported under a business code.
type InfrastructureError struct {
	Op        string
	Err       error
	Transient bool
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the whole operation may succeed. The
// transaction has been rolled back, so a retry starts from a clean state.
func (e *InfrastructureError) Retryable() bool {
	return e.Transient
}

// IsRetryable reports whether err carries a transient InfrastructureError.
func IsRetryable(err error) bool {
	var ie *InfrastructureError
	return errors.As(err, &ie) && ie.Transient
}
