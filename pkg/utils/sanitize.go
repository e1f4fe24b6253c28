package utils

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Message length limits
const (
	MaxMessageLength = 8000
	MaxNotesLength   = 2000
)

var scriptTagRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)

// ErrMessageTooLong is returned for chat text over MaxMessageLength runes.
var ErrMessageTooLong = errors.New("message exceeds maximum length")

// ValidateMessageText enforces the chat length limit. Text is stored and
// relayed exactly as sent; clients escape it when rendering.
func ValidateMessageText(text string) error {
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// SanitizeNotes trims free-form booking notes and cuts them to MaxNotesLength runes.
func SanitizeNotes(notes string) string {
	notes = strings.TrimSpace(scriptTagRegex.ReplaceAllString(notes, ""))
	return TruncateString(notes, MaxNotesLength)
}

// NormalizeEmail lowercases and validates an email address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.New("invalid email address")
	}
	return email, nil
}

// TruncateString safely truncates a string to maxLen runes
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
