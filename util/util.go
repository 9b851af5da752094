package util

import (
	"strconv"
	"strings"
)

// ValidIPv4 reports whether s is a dotted-quad IPv4 address with every
// octet in 0..255. Anything else, including IPv6 and hostnames, is
// rejected before it can reach an upstream query string.
func ValidIPv4(s string) bool {
	parts := strings.Split(s, ".")

	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if len(part) == 0 || len(part) > 3 {
			return false
		}

		for _, c := range part {
			if c < '0' || c > '9' {
				return false
			}
		}

		if n, _ := strconv.Atoi(part); n > 255 {
			return false
		}
	}

	return true
}
