package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status comes from statusFor, the user message from userMessage (core.MapError)
//  4. The technical error is logged with the request ID for correlation
//  5. The user message is rendered as JSON for /api routes, as an HTML
//     error page (templates.ErrorAlert) otherwise

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/beb64/internal/codec"
	"github.com/JonMunkholm/beb64/internal/core"
	"github.com/JonMunkholm/beb64/internal/logging"
	"github.com/JonMunkholm/beb64/internal/web/templates"
)

var (
	errRateLimited  = errors.New("rate limit exceeded")
	errPageNotFound = errors.New("page not found")
)

var msgPageNotFound = core.UserMessage{
	Message: "Page not found",
	Action:  "Go back to the start page",
	Code:    "REQ404",
}

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe), errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrJobNotFound), errors.Is(err, errPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyJobs):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrResultUnavailable):
		return http.StatusConflict
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	}

	switch codec.KindOf(err) {
	case codec.KindMalformed, codec.KindInvalidText:
		return http.StatusUnprocessableEntity
	case codec.KindEmpty:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message with statusFor(err).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, statusFor(err))
}

// respondErrorStatus is respondError with an explicit status, for request
// validation failures that have no typed error.
func (s *Server) respondErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := userMessage(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, msg, status)
		return
	}
	s.renderErrorPage(w, r, msg, status)
}

// renderErrorPage writes msg as an HTML page built around templates.ErrorAlert.
func (s *Server) renderErrorPage(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := templates.ErrorPage(http.StatusText(status), msg.Message, msg.Action, msg.Code)
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error page", "error", err)
	}
}

// userMessage is core.MapError plus the errors only the web layer raises.
func userMessage(err error) core.UserMessage {
	if errors.Is(err, errPageNotFound) {
		return msgPageNotFound
	}
	return core.MapError(err)
}

// badRequest reports a malformed request with the error text as the message.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	logging.FromContext(r.Context()).Warn("bad request", "path", r.URL.Path, "error", message)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ000",
	})
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
