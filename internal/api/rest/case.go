package rest

import (
	"strings"
	"unicode"
)

// toSnakeCase converts a camelCase key to snake_case. Keys already in
// snake_case pass through unchanged, so payloads in either convention are
// accepted.
func toSnakeCase(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 5)

	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
