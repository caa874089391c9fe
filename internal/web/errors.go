package web

// errors.go renders failures. The technical error is logged with the
// request id; the client gets the mapped UserMessage plus, for import
// errors, the structured detail an operator needs to fix the file.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/lanes/internal/core"
	"github.com/JonMunkholm/lanes/internal/logging"
	"github.com/JonMunkholm/lanes/internal/web/templates"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	Missing   []string           `json:"missing,omitempty"`
	Conflicts []core.WarningView `json:"conflicts,omitempty"`
	Blocking  []core.WarningView `json:"blocking,omitempty"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var (
		validation *core.ValidationError
		conflict   *core.ConflictError
		blocked    *core.BlockingError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &conflict), errors.As(err, &blocked):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnknownProfile):
		return http.StatusNotFound
	case errors.As(err, &tooLarge), errors.Is(err, core.ErrTooManyRows):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrEmptyFile), errors.Is(err, errNoFile),
		strings.Contains(err.Error(), "invalid csv"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes it as an HTMX fragment or JSON.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{"path", r.URL.Path, "method", r.Method, "status", status, "code", msg.Code, "error", err}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
		return
	}
	writeJSON(w, status, errorBody(err, msg))
}

func errorBody(err error, msg core.UserMessage) ErrorResponse {
	body := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}

	var (
		validation *core.ValidationError
		conflict   *core.ConflictError
		blocked    *core.BlockingError
	)
	switch {
	case errors.As(err, &validation):
		body.Missing = validation.Missing
	case errors.As(err, &conflict):
		for _, c := range conflict.Conflicts {
			body.Conflicts = append(body.Conflicts, core.DescribeWarning(c))
		}
	case errors.As(err, &blocked):
		body.Blocking = core.DescribeWarnings(blocked.Warnings)
	}
	return body
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
