// internal/app/system/normalize/normalize.go
package normalize

import (
	"fmt"
	"strings"
)

// Email trims whitespace and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Domain returns the domain part of an already-normalized email address.
// It fails when no domain can be parsed, so malformed input is rejected
// before any I/O happens.
func Domain(email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "", fmt.Errorf("no domain in email %q", email)
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") {
		return "", fmt.Errorf("invalid domain in email %q", email)
	}
	return domain, nil
}
