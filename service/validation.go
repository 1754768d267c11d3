package service

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidationError marks input errors whose message is safe to return
// to the client.
type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Structural shape of a compact JWS: three base64url segments.
// Checked before signature verification so garbage never reaches the parser.
var jwtStructureRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

const passwordSymbols = "#?!@$%^&*-_"

const (
	minNameLength     = 3
	minPasswordLength = 8
	minTitleLength    = 3
	maxTitleLength    = 200
	maxContentLength  = 100_000
)

func ValidateName(name string) error {
	if len(strings.TrimSpace(name)) < minNameLength {
		return ValidationError("name too short")
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ValidationError("invalid email")
	}
	return nil
}

// ValidatePassword enforces length plus one of each character class.
// The class checks are explicit loops since RE2 has no lookahead.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ValidationError("password too short")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return ValidationError("password must contain upper, lower, digit and symbol")
	}

	return nil
}

func ValidateNoteTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if len(trimmed) < minTitleLength {
		return ValidationError("title too short")
	}
	if len(trimmed) > maxTitleLength {
		return ValidationError("title too long")
	}
	return nil
}

func ValidateNoteContent(content string) error {
	if len(content) > maxContentLength {
		return ValidationError("content too long")
	}
	return nil
}
