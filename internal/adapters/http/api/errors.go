package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/jury/internal/adapters/backend"
	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/domain/evaluation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error carries the operation that failed and an optional kind used to pick
// the response status.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return e.Op
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap annotates err with op and leaves status selection to its cause.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// classify maps an error to the HTTP status and machine-readable code sent to
// the client. Order matters: more specific causes are checked first.
func classify(err error) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotAssigned):
		return http.StatusForbidden, "not_assigned"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, evaluation.ErrScoreOutOfRange),
		errors.Is(err, evaluation.ErrUnknownCriterion),
		errors.Is(err, service.ErrInvalidKey),
		errors.Is(err, service.ErrInvalidFilter):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &verr), errors.Is(err, service.ErrNotReady):
		return http.StatusUnprocessableEntity, "not_ready"
	case errors.Is(err, service.ErrSubmissionInFlight):
		return http.StatusConflict, "submission_in_flight"
	case errors.Is(err, service.ErrTooManySubmissions):
		return http.StatusServiceUnavailable, "busy"
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSubmissionFailed):
		return http.StatusBadGateway, "submission_failed"
	case errors.Is(err, backend.ErrBackend),
		errors.Is(err, backend.ErrDecode),
		errors.Is(err, evaluation.ErrInvalidCriterion):
		return http.StatusBadGateway, "backend_error"
	case errors.Is(err, service.ErrArchiveNotConfigured),
		errors.Is(err, service.ErrBackendNotConfigured):
		return http.StatusNotImplemented, "not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}

// missingOf extracts the blocking criteria from a readiness failure.
func missingOf(err error) []string {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Missing
	}
	return nil
}
