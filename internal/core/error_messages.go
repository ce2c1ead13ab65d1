package core

// error_messages.go maps technical errors to user-facing messages with a
// short code that users can quote to support.
//
// # Base64 Errors (B64001-B64099)
//
//	B64001 - Malformed Base64: wrong length, illegal character or misplaced padding
//	         Action: Check that the input is standard Base64 and was not truncated
//
//	B64002 - Not text: the input is valid Base64 but the decoded bytes are not UTF-8
//	         Action: Decode to a file instead of text
//
//	B64003 - Empty input: nothing to decode
//	         Action: Paste or upload some Base64 text
//
//	B64004 - I/O fault: reading the input or writing the result failed
//	         Action: Try again; check disk space if it keeps happening
//
// # Job Errors (JOB001-JOB099)
//
//	JOB001 - Cancelled
//	JOB002 - Too many jobs running
//	JOB003 - Job not found (unknown id or expired)
//	JOB004 - Timed out
//	JOB005 - Input too large
//	JOB006 - Result not available (job still running or did not succeed)
//
// # Other
//
//	RATE001 - Rate limit exceeded
//	ERR000  - Anything else; check the server log for the original error

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/beb64/internal/codec"
	"github.com/JonMunkholm/beb64/internal/transcode"
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var (
	msgMalformed = UserMessage{
		Message: "The input is not valid Base64",
		Action:  "Check that the input is standard Base64 and was not truncated",
		Code:    "B64001",
	}
	msgInvalidText = UserMessage{
		Message: "The input is valid Base64 but does not decode to UTF-8 text",
		Action:  "Decode to a file instead of text",
		Code:    "B64002",
	}
	msgEmpty = UserMessage{
		Message: "There is nothing to decode",
		Action:  "Paste or upload some Base64 text",
		Code:    "B64003",
	}
	msgIO = UserMessage{
		Message: "Reading the input or writing the result failed",
		Action:  "Please try again; check free disk space if it keeps happening",
		Code:    "B64004",
	}
	msgCancelled = UserMessage{
		Message: "The job was cancelled",
		Action:  "Start a new job when ready",
		Code:    "JOB001",
	}
	msgBusy = UserMessage{
		Message: "The server is busy with other jobs",
		Action:  "Please wait a moment and try again",
		Code:    "JOB002",
	}
	msgNotFound = UserMessage{
		Message: "Job not found",
		Action:  "The job may have expired. Please start a new one",
		Code:    "JOB003",
	}
	msgTimeout = UserMessage{
		Message: "The job timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "JOB004",
	}
	msgTooLarge = UserMessage{
		Message: "The input exceeds the maximum size",
		Action:  "Split the input or use the command-line tool",
		Code:    "JOB005",
	}
	msgUnavailable = UserMessage{
		Message: "The job result is not available",
		Action:  "Wait for the job to finish successfully before downloading",
		Code:    "JOB006",
	}
	msgRateLimit = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

var kindMessages = map[codec.Kind]UserMessage{
	codec.KindMalformed:   msgMalformed,
	codec.KindInvalidText: msgInvalidText,
	codec.KindEmpty:       msgEmpty,
	codec.KindIO:          msgIO,
}

// errorPatterns catches errors that arrive as plain text, e.g. from a
// client or a wrapped library error. First match wins.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"malformed base64", msgMalformed},
	{"illegal base64", msgMalformed},
	{"invalid utf-8", msgInvalidText},
	{"empty input", msgEmpty},
	{"request body too large", msgTooLarge},
	{"file too large", msgTooLarge},
	{"too many jobs", msgBusy},
	{"job not found", msgNotFound},
	{"rate limit", msgRateLimit},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts err to a user-facing message. Typed errors are matched
// first, then known message fragments, then ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrTooManyJobs):
		return msgBusy
	case errors.Is(err, ErrJobNotFound):
		return msgNotFound
	case errors.Is(err, ErrFileTooLarge):
		return msgTooLarge
	case errors.Is(err, ErrResultUnavailable):
		return msgUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, transcode.ErrCancelled), errors.Is(err, context.Canceled):
		return msgCancelled
	}

	if msg, ok := kindMessages[codec.KindOf(err)]; ok {
		return msg
	}

	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders MapError(err) as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
