package service

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when an id is absent from every source.  It is
// a final outcome and never retried.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Transition rejection reasons.
const (
	ReasonWrongStatus = "wrong_status"
	ReasonTooClose    = "too_close"
	ReasonNoSchedule  = "no_schedule"
)

// TransitionError is returned when a cancellation guard fails.  No state
// has been mutated when it is returned.
type TransitionError struct {
	Reason              string
	Status              string
	HoursUntilDeparture float64
}

func (e TransitionError) Error() string {
	switch e.Reason {
	case ReasonWrongStatus:
		return "cannot cancel: wrong status"
	case ReasonTooClose:
		return "cannot cancel: too close to departure"
	case ReasonNoSchedule:
		return "cannot cancel: departure time unknown"
	}
	return "cannot cancel"
}

// ConfirmationError is returned by destructive operator actions invoked
// without the explicit confirmation token.
type ConfirmationError struct {
	Action string
}

func (e ConfirmationError) Error() string {
	return fmt.Sprintf("%s requires explicit confirmation", e.Action)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target TransitionError
	return errors.As(err, &target)
}

func IsConfirmationRequired(err error) bool {
	var target ConfirmationError
	return errors.As(err, &target)
}
