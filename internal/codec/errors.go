package codec

import (
	"errors"
	"strings"
)

// Kind categorizes a codec or transcode failure.
type Kind string

const (
	KindMalformed   Kind = "malformed_base64" // wrong length, illegal character, misplaced padding
	KindInvalidText Kind = "invalid_text"     // valid Base64 that does not decode to UTF-8
	KindIO          Kind = "io_fault"         // source or sink failure
	KindEmpty       Kind = "empty_input"      // nothing to decode
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrMalformed   = &Error{Kind: KindMalformed}
	ErrInvalidText = &Error{Kind: KindInvalidText}
	ErrIO          = &Error{Kind: KindIO}
	ErrEmptyInput  = &Error{Kind: KindEmpty}
)

// Error is the structured error returned by this package and by the stream
// transcoder. Offset is the byte position in the input the failure refers to,
// or -1 when it does not apply.
type Error struct {
	Cause  error
	Kind   Kind
	Reason string
	Offset int64
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	switch e.Kind {
	case KindMalformed:
		b.WriteString("malformed base64")
	case KindInvalidText:
		b.WriteString("invalid UTF-8 text")
	case KindIO:
		b.WriteString("i/o fault")
	case KindEmpty:
		b.WriteString("empty input")
	default:
		b.WriteString(string(e.Kind))
	}

	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Malformed creates a structural Base64 error.
func Malformed(reason string, offset int64) *Error {
	return &Error{Kind: KindMalformed, Reason: reason, Offset: offset}
}

// InvalidText creates an error for decoded bytes that are not valid UTF-8.
func InvalidText(reason string, offset int64) *Error {
	return &Error{Kind: KindInvalidText, Reason: reason, Offset: offset}
}

// IOFault wraps a source or sink failure.
func IOFault(op string, cause error) *Error {
	return &Error{Kind: KindIO, Reason: op, Cause: cause, Offset: -1}
}

// Empty creates an empty input error.
func Empty() *Error {
	return &Error{Kind: KindEmpty, Offset: -1}
}

// KindOf returns the Kind of err, or "" if err is not a codec error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
