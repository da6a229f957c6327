package session

import (
	"strconv"
	"strings"
	"time"
)

// NormalizeDuration parses a lifetime given in whole seconds. Empty, non-numeric and
// negative values yield 0, which disables expiry.
func NormalizeDuration(raw string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
