package session

import (
	"testing"
	"time"
)

func TestNormalizeDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":     0,
		"0":    0,
		"60":   60 * time.Second,
		" 15 ": 15 * time.Second,
		"-5":   0,
		"abc":  0,
		"1.5":  0,
		"60s":  0,
	}
	for raw, want := range cases {
		if got := NormalizeDuration(raw); got != want {
			t.Fatalf("NormalizeDuration(%q) = %v, want %v", raw, got, want)
		}
	}
}
