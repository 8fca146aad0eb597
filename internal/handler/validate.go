package handler

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field validation patterns shared by the form handlers.
var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s-]{6,18}$`)
)

// requireField records a "required" error for a blank value
func requireField(fields map[string]string, name, value string) {
	if strings.TrimSpace(value) == "" {
		fields[name] = "is required"
	}
}

// maxLen records a max-length error when the value is too long. Lengths
// are counted in runes to match varchar column semantics.
func maxLen(fields map[string]string, name, value string, max int) {
	if _, taken := fields[name]; taken {
		return
	}
	if utf8.RuneCountInString(value) > max {
		fields[name] = fmt.Sprintf("must be at most %d characters", max)
	}
}

// splitName splits a full applicant name into first and last parts
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// matchPattern records a pattern error for a non-blank, non-matching value
func matchPattern(fields map[string]string, name, value string, pattern *regexp.Regexp, message string) {
	if _, taken := fields[name]; taken {
		return
	}
	if value != "" && !pattern.MatchString(value) {
		fields[name] = message
	}
}
