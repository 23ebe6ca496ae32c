package indexer

import (
	"fmt"
	"strings"
)

// Actor is the authenticated identity a request runs as. Email is stamped
// verbatim into the audit columns.
type Actor struct {
	Email string
	Admin bool
}

// IsAdmin reports whether email appears in the admin allow-list, ignoring case.
func IsAdmin(email string, admins []string) bool {
	for _, a := range admins {
		if strings.EqualFold(strings.TrimSpace(a), email) {
			return true
		}
	}
	return false
}

func requireAdmin(actor Actor, op string) error {
	if !actor.Admin {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return nil
}
