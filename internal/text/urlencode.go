package text

import (
	"maps"
	"slices"
	"strings"
)

const lowerHex = "0123456789abcdef"

var passthrough = passthroughLookup()

// URLEncode percent-encodes a query string value. Letters and digits pass
// through, space becomes '+', everything else becomes %xx in lowercase hex.
func URLEncode(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	for i := range len(input) {
		c := input[i]
		switch {
		case passthrough[c]:
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(lowerHex[c>>4])
			b.WriteByte(lowerHex[c&0x0f])
		}
	}

	return b.String()
}

// EncodeQuery builds "?k=v&k=v" with keys in ascending order. An empty map
// yields an empty string.
func EncodeQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	var b strings.Builder
	for _, key := range slices.Sorted(maps.Keys(params)) {
		if b.Len() == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(URLEncode(key))
		b.WriteByte('=')
		b.WriteString(URLEncode(params[key]))
	}

	return b.String()
}

func passthroughLookup() [256]bool {
	var m [256]bool
	for c := 'a'; c <= 'z'; c++ {
		m[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		m[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		m[c] = true
	}
	return m
}
