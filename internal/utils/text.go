package utils

import "strings"

// Normalize lower-cases and trims a free-text value.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SplitCSV splits a comma separated preference into normalized, non-empty tokens.
func SplitCSV(s string) []string {
	return SplitAny(s, ",")
}

// SplitAny splits s on any of the separator characters and returns normalized,
// non-empty tokens in input order.
func SplitAny(s string, separators string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if token := Normalize(field); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// NormalizeAll normalizes every value and drops the empty ones.
func NormalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := Normalize(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Intersects reports whether the two normalized sets share a value.
func Intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
