// Package phone normalizes South African mobile numbers to the local
// 10-digit format. The normalized number doubles as the client's
// account key, so every surface must normalize the same way.
package phone

import (
	"fmt"
	"strings"
)

// Normalize strips formatting and converts international prefixes
// (27…, +27…) to the local 0-prefixed form. It returns an error when
// the result is not a valid 10-digit mobile number.
func Normalize(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.String()

	switch {
	case strings.HasPrefix(n, "27") && len(n) == 11:
		n = "0" + n[2:]
	case strings.HasPrefix(n, "270") && len(n) == 12:
		n = n[2:]
	}

	if !valid(n) {
		return "", fmt.Errorf("invalid phone number %q", raw)
	}
	return n, nil
}

func valid(n string) bool {
	if len(n) != 10 || n[0] != '0' {
		return false
	}
	if n == "0000000000" {
		return false
	}
	for _, r := range n[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
