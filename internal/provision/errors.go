package provision

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a provisioning failure for the caller.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindInvalidRequest  Kind = "invalid_request"
	KindUpstream        Kind = "upstream"
	KindUnknown         Kind = "unknown"
)

// HTTPStatus maps the kind to a response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Step names a pipeline stage. Steps are reported in logs, metrics and
// traces only; callers never see them.
type Step string

const (
	StepValidate       Step = "validate"
	StepSignAssertion  Step = "sign_assertion"
	StepTokenExchange  Step = "token_exchange"
	StepListCalendars  Step = "list_calendars"
	StepCreateCalendar Step = "create_calendar"
	StepCreateEvent    Step = "create_event"
	StepReadSettings   Step = "read_settings"
	StepWriteSettings  Step = "write_settings"
)

// Error is returned by Provisioner.Provision for every failure.
type Error struct {
	Kind Kind
	Step Step
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at %s", e.Kind, e.Step)
	}
	return fmt.Sprintf("%s at %s: %v", e.Kind, e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, step Step, err error) *Error {
	return &Error{Kind: kind, Step: step, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// PublicMessage returns text that is safe to show the caller. Validation
// failures describe the bad field; everything else is generic.
func PublicMessage(err error) string {
	var pe *Error
	if !errors.As(err, &pe) {
		return "failed to create meeting"
	}
	switch pe.Kind {
	case KindUnauthenticated:
		return "authentication required"
	case KindForbidden:
		return "session is missing name or email"
	case KindInvalidRequest:
		if pe.Err != nil {
			return pe.Err.Error()
		}
		return "invalid request"
	default:
		return "failed to create meeting"
	}
}
