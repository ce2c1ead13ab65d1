package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/beb64/internal/codec"
	"github.com/JonMunkholm/beb64/internal/transcode"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil", err: nil, wantCode: ""},
		{name: "malformed", err: codec.Malformed("misplaced padding", 3), wantCode: "B64001"},
		{name: "wrapped malformed", err: fmt.Errorf("decode: %w", codec.Malformed("x", 0)), wantCode: "B64001"},
		{name: "invalid text", err: codec.InvalidText("bad byte", 0), wantCode: "B64002"},
		{name: "empty", err: codec.Empty(), wantCode: "B64003"},
		{name: "io", err: codec.IOFault("write sink", errors.New("disk full")), wantCode: "B64004"},
		{name: "cancelled", err: fmt.Errorf("%w: %w", transcode.ErrCancelled, context.Canceled), wantCode: "JOB001"},
		{name: "busy", err: ErrTooManyJobs, wantCode: "JOB002"},
		{name: "not found", err: fmt.Errorf("%w: abc", ErrJobNotFound), wantCode: "JOB003"},
		{name: "timeout", err: fmt.Errorf("%w: %w", transcode.ErrCancelled, context.DeadlineExceeded), wantCode: "JOB004"},
		{name: "too large", err: ErrFileTooLarge, wantCode: "JOB005"},
		{name: "unavailable", err: ErrResultUnavailable, wantCode: "JOB006"},
		{name: "plain text malformed", err: errors.New("illegal base64 data at input byte 4"), wantCode: "B64001"},
		{name: "max bytes reader", err: errors.New("http: request body too large"), wantCode: "JOB005"},
		{name: "rate limit", err: errors.New("rate limit exceeded"), wantCode: "RATE001"},
		{name: "unknown", err: errors.New("something odd"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got, tt.wantCode)
			}
		})
	}
}

func TestMalformedAndInvalidTextAreDistinct(t *testing.T) {
	malformed := MapError(codec.Malformed("x", 0))
	text := MapError(codec.InvalidText("x", 0))
	if malformed.Code == text.Code || malformed.Message == text.Message {
		t.Errorf("malformed and invalid text map to the same message: %+v", malformed)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrTooManyJobs)
	want := "The server is busy with other jobs (Code: JOB002). Please wait a moment and try again"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if !IsUserFacing(codec.Empty()) {
		t.Error("empty input should be user facing")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("unknown error should not be user facing")
	}
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
}
