package utils

import (
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidEmail is returned for addresses that fail the syntax check
var ErrInvalidEmail = errors.New("invalid email address")

// NormalizeEmail validates an email address and returns its canonical form:
// NFC-normalized, trimmed and lowercased. Entries are deduplicated on this
// form, so two spellings of the same address collapse to one.
func NormalizeEmail(raw string) (string, error) {
	cleaned := strings.TrimSpace(norm.NFC.String(raw))
	if cleaned == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(cleaned)
	if err != nil {
		return "", ErrInvalidEmail
	}

	email := strings.ToLower(addr.Address)
	if !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}

	return email, nil
}

// EmailDomain returns the lowercased domain part of a normalized address
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
