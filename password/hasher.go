package password

import (
	"errors"
	"strings"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// ErrPasswordTooLong is returned by hashers with an input limit, such as bcrypt's 72 bytes.
var ErrPasswordTooLong = errors.New("password too long")

// Hasher hashes passwords and verifies candidates against stored hashes.
//
// Verify never fails: a malformed or foreign hash is a mismatch.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
	NeedsUpgrade(encodedHash string) bool
}

// Chain hashes with Primary and verifies with whichever hasher recognises the stored
// format. Hashes produced by a fallback report NeedsUpgrade.
type Chain struct {
	Primary   Hasher
	Fallbacks []Hasher
}

// NewChain returns a Chain that hashes with primary.
func NewChain(primary Hasher, fallbacks ...Hasher) *Chain {
	return &Chain{Primary: primary, Fallbacks: fallbacks}
}

func (c *Chain) Hash(password string) (string, error) {
	return c.Primary.Hash(password)
}

func (c *Chain) Verify(password, encodedHash string) bool {
	h := c.hasherFor(encodedHash)
	if h == nil {
		return false
	}
	return h.Verify(password, encodedHash)
}

func (c *Chain) NeedsUpgrade(encodedHash string) bool {
	h := c.hasherFor(encodedHash)
	if h == nil {
		return true
	}
	if h != c.Primary {
		return true
	}
	return c.Primary.NeedsUpgrade(encodedHash)
}

func (c *Chain) hasherFor(encodedHash string) Hasher {
	if recognises(c.Primary, encodedHash) {
		return c.Primary
	}
	for _, h := range c.Fallbacks {
		if recognises(h, encodedHash) {
			return h
		}
	}
	return nil
}

type formatRecogniser interface {
	Recognises(encodedHash string) bool
}

func recognises(h Hasher, encodedHash string) bool {
	if r, ok := h.(formatRecogniser); ok {
		return r.Recognises(encodedHash)
	}
	return false
}

// Algorithm reports the algorithm family of an encoded hash, or "" if unknown.
func Algorithm(encodedHash string) string {
	switch {
	case strings.HasPrefix(encodedHash, "$"+algorithmID+"$"):
		return algorithmID
	case isBcryptPrefix(encodedHash):
		return "bcrypt"
	default:
		return ""
	}
}
