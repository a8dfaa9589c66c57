package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MaxBioLength      = 250
	MaxNameLength     = 100
	MaxInterests      = 20
	MaxInterestLength = 50
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// ValidatePassword reports whether password has at least minLength runes.
func ValidatePassword(password string, minLength int) bool {
	return utf8.RuneCountInString(password) >= minLength
}

func ValidateBio(bio string) bool {
	return utf8.RuneCountInString(bio) <= MaxBioLength
}

// TrimAndLimit trims s and cuts it to at most max runes.
func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max])
	}
	return s
}

// NormalizeInterests trims each entry, drops blanks and duplicates, and keeps
// the first MaxInterests.
func NormalizeInterests(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = TrimAndLimit(s, MaxInterestLength)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == MaxInterests {
			break
		}
	}
	return out
}

// SplitCSV splits a comma separated query value.
func SplitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return NormalizeInterests(strings.Split(v, ","))
}

// ClampLimit returns def for non-positive values and max for larger ones.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}
