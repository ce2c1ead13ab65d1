package codec

import "strings"

var alphabet [256]bool

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		alphabet[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		alphabet[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		alphabet[c] = true
	}
	alphabet['+'] = true
	alphabet['/'] = true
}

// IsAlphabet reports whether c is one of the 64 data characters.
func IsAlphabet(c byte) bool {
	return alphabet[c]
}

// IsEncodingChar reports whether c is a data character or '='.
func IsEncodingChar(c byte) bool {
	return alphabet[c] || c == '='
}

// IsSpace reports whether c is ASCII whitespace.
func IsSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// StripWhitespace removes ASCII whitespace from s.
func StripWhitespace(s string) string {
	if strings.IndexFunc(s, func(r rune) bool { return r < 0x80 && IsSpace(byte(r)) }) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !IsSpace(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
