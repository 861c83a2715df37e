// internal/staticmap/encode.go - URI component escaping
package staticmap

import "strings"

const upperhex = "0123456789ABCDEF"

// encodeURIComponent escapes every byte except A-Z a-z 0-9 and - _ . ! ~ * ' ( )
// so overlay segments match the ECMAScript escaping the backend expects.
func encodeURIComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[c>>4])
			sb.WriteByte(upperhex[c&15])
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return false
	}
	return true
}
