package web

// errors.go turns handler errors into responses. The technical error is
// logged with the request ID; the client gets the mapped user message, and
// HTMX callers get it as an HTML fragment.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/estatecrm/internal/core"
	"github.com/JonMunkholm/estatecrm/internal/logging"
	"github.com/JonMunkholm/estatecrm/internal/web/templates"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads), errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrUnreadableFile),
		errors.Is(err, core.ErrUnknownEntityKind),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped response. Client errors carry
// the technical error as details; server errors carry only the suggested
// action.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed")
	} else {
		logger.Warn("request rejected")
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Warn("render error partial failed", "error", err)
		}
		return
	}

	details := msg.Action
	if status < http.StatusInternalServerError {
		details = err.Error()
	}
	writeJSON(w, r, status, ErrorResponse{
		Error:   msg.Message,
		Details: details,
		Code:    msg.Code,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
