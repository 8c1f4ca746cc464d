package domain

import "regexp"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the loose address check used across the forms.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
