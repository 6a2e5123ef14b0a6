package util

import (
	"net/mail"
	"strings"
)

// MaxEmailLength caps stored addresses; RFC 5321 path limit
const MaxEmailLength = 254

// ValidateEmail reports whether an address is well-formed enough to
// store. Deliverability is not checked here.
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > MaxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Reject "Name <addr>" forms; we want the bare address
	return addr.Address == email
}
