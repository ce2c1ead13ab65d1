// Package codec provides in-memory Base64 primitives over the RFC 4648
// standard alphabet with '=' padding.
//
// The functions here are stateless and never see partial groups from a
// stream; the transcode package is responsible for re-blocking chunked input
// before handing it over.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

var std = base64.StdEncoding

// validPattern is the structural shape accepted by IsValidBase64.
var validPattern = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// Encode returns the padded Base64 representation of src.
func Encode(src []byte) string {
	if len(src) == 0 {
		return ""
	}
	return std.EncodeToString(src)
}

// EncodeString encodes the UTF-8 bytes of s.
func EncodeString(s string) string {
	return Encode([]byte(s))
}

// DecodeLenient strips ASCII whitespace from s and decodes the remainder.
// An input that is empty after stripping decodes to an empty slice.
func DecodeLenient(s string) ([]byte, error) {
	clean := StripWhitespace(s)
	if len(clean) == 0 {
		return []byte{}, nil
	}

	out := make([]byte, std.DecodedLen(len(clean)))
	n, err := DecodeBlock(out, []byte(clean))
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// Decode is DecodeLenient with an explicit empty-input check.
func Decode(s string) ([]byte, error) {
	if len(StripWhitespace(s)) == 0 {
		return nil, Empty()
	}
	return DecodeLenient(s)
}

// DecodeBlock decodes src, which must be a whole number of 4-character groups
// drawn from the Base64 alphabet, into dst. Padding may only occupy the final
// one or two characters of the final group. dst must hold at least
// base64.StdEncoding.DecodedLen(len(src)) bytes.
func DecodeBlock(dst, src []byte) (int, error) {
	if err := checkStructure(src); err != nil {
		return 0, err
	}

	n, err := std.Decode(dst, src)
	if err != nil {
		offset := int64(-1)
		var ce base64.CorruptInputError
		if errors.As(err, &ce) {
			offset = int64(ce)
		}
		return n, &Error{Kind: KindMalformed, Reason: "corrupt input", Offset: offset, Cause: err}
	}
	return n, nil
}

// checkStructure validates length, alphabet and padding placement.
func checkStructure(src []byte) error {
	if len(src)%4 != 0 {
		return Malformed(fmt.Sprintf("length %d is not a multiple of 4", len(src)), int64(len(src)))
	}

	pad := -1
	for i, c := range src {
		if c == '=' {
			if pad < 0 {
				pad = i
			}
			continue
		}
		if !IsAlphabet(c) {
			return Malformed(fmt.Sprintf("illegal character %q", c), int64(i))
		}
		if pad >= 0 {
			return Malformed("data after padding", int64(i))
		}
	}

	if pad >= 0 && pad < len(src)-2 {
		return Malformed("misplaced padding", int64(pad))
	}
	return nil
}

// OutcomeKind tags the result of DecodeStrictText.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeMalformed
	OutcomeInvalidText
	OutcomeEmpty
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeMalformed:
		return "malformed_base64"
	case OutcomeInvalidText:
		return "invalid_text"
	case OutcomeEmpty:
		return "empty_input"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of a strict text decode. Bytes is set only on
// success; Err is set otherwise.
type Outcome struct {
	Kind  OutcomeKind
	Bytes []byte
	Err   error
}

// Text returns the decoded bytes as a string.
func (o Outcome) Text() string {
	return string(o.Bytes)
}

// OK reports whether the decode succeeded.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// DecodeStrictText decodes s and requires the result to be valid UTF-8.
// There is no replacement-character fallback.
func DecodeStrictText(s string) Outcome {
	raw, err := Decode(s)
	if err != nil {
		if KindOf(err) == KindEmpty {
			return Outcome{Kind: OutcomeEmpty, Err: err}
		}
		return Outcome{Kind: OutcomeMalformed, Err: err}
	}

	if off := InvalidUTF8Offset(raw); off >= 0 {
		return Outcome{
			Kind: OutcomeInvalidText,
			Err:  InvalidText(fmt.Sprintf("invalid byte 0x%02X at offset %d", raw[off], off), int64(off)),
		}
	}
	return Outcome{Kind: OutcomeSuccess, Bytes: raw}
}

// TryDecodeText decodes s as UTF-8 text. On failure ok is false and msg
// describes whether the input was malformed Base64, not text, or empty.
func TryDecodeText(s string) (ok bool, text string, msg string) {
	out := DecodeStrictText(s)
	if !out.OK() {
		return false, "", out.Err.Error()
	}
	return true, out.Text(), ""
}

// IsValidBase64 is a cheap structural check: after removing ASCII whitespace
// the input is a positive multiple of 4 characters with at most two trailing
// '=' characters. It does not guarantee a successful decode.
func IsValidBase64(s string) bool {
	clean := StripWhitespace(s)
	if len(clean) == 0 || len(clean)%4 != 0 {
		return false
	}
	return validPattern.MatchString(clean)
}

// InvalidUTF8Offset returns the offset of the first byte that does not start
// a valid UTF-8 sequence, or -1 if b is valid.
func InvalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
