package util

import (
	"strconv"
	"strings"
)

// NormalizeTicker uppercases and trims a raw ticker symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeTickers normalizes a list and drops empties and duplicates,
// preserving order.
func NormalizeTickers(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		t := NormalizeTicker(s)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SafeFileTicker converts a ticker to a filesystem-safe token.
// Index symbols like ^GSPC and pairs like BRK/B need this.
func SafeFileTicker(s string) string {
	t := NormalizeTicker(s)
	t = strings.ReplaceAll(t, "/", "_")
	t = strings.ReplaceAll(t, "^", "")
	return t
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
