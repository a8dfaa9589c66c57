package validation

import (
	"reflect"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected bool
	}{
		{"Valid email", "user@example.com", true},
		{"Valid email with subdomain", "user@mail.example.edu", true},
		{"Empty email", "", false},
		{"Email without @", "userexample.com", false},
		{"Email without domain", "user@", false},
		{"Email with spaces", "user @example.com", false},
		{"Display name form", "Alice <alice@uni.edu>", false},
		{"Valid email with dots", "user.name@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateEmail(tt.email)
			if result != tt.expected {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, result, tt.expected)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{"Email with uppercase", "User@EXAMPLE.COM", "user@example.com"},
		{"Email with spaces", "  user@example.com  ", "user@example.com"},
		{"Lowercase email", "user@example.com", "user@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeEmail(tt.email)
			if result != tt.expected {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.email, result, tt.expected)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		min      int
		expected bool
	}{
		{"secret", 6, true},
		{"short", 6, false},
		{"", 6, false},
		{"pässwörd", 8, true},
	}

	for _, tt := range tests {
		if got := ValidatePassword(tt.password, tt.min); got != tt.expected {
			t.Errorf("ValidatePassword(%q, %d) = %v, want %v", tt.password, tt.min, got, tt.expected)
		}
	}
}

func TestValidateBio(t *testing.T) {
	if !ValidateBio(strings.Repeat("a", MaxBioLength)) {
		t.Error("bio at the limit should be accepted")
	}
	if ValidateBio(strings.Repeat("a", MaxBioLength+1)) {
		t.Error("bio over the limit should be rejected")
	}
}

func TestTrimAndLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{"Normal string", "hello world", 20, "hello world"},
		{"String with spaces", "  hello world  ", 20, "hello world"},
		{"String exceeding limit", "hello world this is too long", 10, "hello worl"},
		{"Multibyte runes", "ééééé", 3, "ééé"},
		{"Empty string", "", 20, ""},
		{"No limit", "hello", 0, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrimAndLimit(tt.input, tt.limit)
			if result != tt.expected {
				t.Errorf("TrimAndLimit(%q, %d) = %q, want %q", tt.input, tt.limit, result, tt.expected)
			}
		})
	}
}

func TestNormalizeInterests(t *testing.T) {
	got := NormalizeInterests([]string{" chess ", "", "chess", "music"})
	want := []string{"chess", "music"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeInterests = %v, want %v", got, want)
	}

	many := make([]string, MaxInterests+5)
	for i := range many {
		many[i] = strings.Repeat("x", i+1)
	}
	if n := len(NormalizeInterests(many)); n != MaxInterests {
		t.Errorf("NormalizeInterests kept %d entries, want %d", n, MaxInterests)
	}
}

func TestSplitCSV(t *testing.T) {
	if got := SplitCSV("  "); got != nil {
		t.Errorf("SplitCSV(blank) = %v, want nil", got)
	}
	want := []string{"hiking", "go"}
	if got := SplitCSV("hiking, go,,"); !reflect.DeepEqual(got, want) {
		t.Errorf("SplitCSV = %v, want %v", got, want)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit, def, max, expected int
	}{
		{0, 50, 100, 50},
		{-3, 50, 100, 50},
		{20, 50, 100, 20},
		{500, 50, 100, 100},
		{500, 20, 0, 500},
	}

	for _, tt := range tests {
		if got := ClampLimit(tt.limit, tt.def, tt.max); got != tt.expected {
			t.Errorf("ClampLimit(%d, %d, %d) = %d, want %d", tt.limit, tt.def, tt.max, got, tt.expected)
		}
	}
}
