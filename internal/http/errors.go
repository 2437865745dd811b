package http

import (
	"errors"
	"net/http"

	"ledger/internal/core"
	applog "ledger/internal/log"
)

// statusFor maps domain errors onto HTTP status codes and log categories.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrTotalOverflow):
		return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrAccountReadOnly),
		errors.Is(err, core.ErrAccountInUse),
		errors.Is(err, core.ErrDefaultAccount):
		return http.StatusConflict, applog.ErrorTypeConflict
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, applog.ErrorTypeDatabase
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

// writeError renders err as JSON. Validation failures expose their field
// and reason; storage and internal failures are logged and reported
// generically.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, errorType := statusFor(err)
	body := errorResponse{Error: http.StatusText(status)}

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		body = errorResponse{Error: verr.Reason, Field: verr.Field}
	case errors.Is(err, core.ErrTotalOverflow):
		body.Error = core.ErrTotalOverflow.Error()
	case status == http.StatusNotFound || status == http.StatusConflict:
		body.Error = err.Error()
	}

	if status >= http.StatusInternalServerError {
		ctx := r.Context()
		applog.NewStructuredLogger(applog.FromContext(ctx)).
			LogError(ctx, "Request failed", err, errorType, applog.ComponentLedger, op)
	}

	writeJSON(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}
