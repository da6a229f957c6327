package password

import (
	"strings"
	"testing"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newFastArgon2(t *testing.T) *Argon2 {
	t.Helper()
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return hasher
}

func TestHashAndVerify(t *testing.T) {
	hasher := newFastArgon2(t)

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if strings.Contains(hash, "P@ssw0rd-Ascii") {
		t.Fatal("hash must not contain the plaintext")
	}

	if !hasher.Verify("P@ssw0rd-Ascii", hash) {
		t.Fatal("expected password verification to succeed")
	}
}

func TestHashShortPasswordRoundTrip(t *testing.T) {
	hasher := newFastArgon2(t)

	hash, err := hasher.Hash("pw1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !hasher.Verify("pw1", hash) {
		t.Fatal("expected short password to verify")
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	hasher := newFastArgon2(t)

	first, err := hasher.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if first == second {
		t.Fatal("expected different hashes for repeated input")
	}
	if !hasher.Verify("same-input", first) || !hasher.Verify("same-input", second) {
		t.Fatal("expected both hashes to verify")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	hasher := newFastArgon2(t)

	if _, err := hasher.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher := newFastArgon2(t)

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	for _, candidate := range []string{"wrong-password", "correct-passwor", "correct-password ", ""} {
		if hasher.Verify(candidate, hash) {
			t.Fatalf("expected verification of %q to fail", candidate)
		}
	}
}

func TestNeedsUpgrade(t *testing.T) {
	oldHasher := newFastArgon2(t)

	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := fastConfig()
	stronger.Time = 2
	newHasher, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2(new) error: %v", err)
	}

	if !newHasher.NeedsUpgrade(hash) {
		t.Fatal("expected NeedsUpgrade to return true for weaker hash parameters")
	}
	if oldHasher.NeedsUpgrade(hash) {
		t.Fatal("expected NeedsUpgrade to return false for current parameters")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := newFastArgon2(t)

	malformed := []string{
		"",
		"not-a-phc-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=19$m=1,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=19$m=8192,t=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$AAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$AAAA$AAAA",
		"$argon2id$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$",
	}
	for _, encoded := range malformed {
		if hasher.Verify("password", encoded) {
			t.Fatalf("expected malformed hash %q to fail verification", encoded)
		}
		if !hasher.NeedsUpgrade(encoded) {
			t.Fatalf("expected malformed hash %q to need upgrade", encoded)
		}
	}
}

func TestVerifyUnpaddedPHC(t *testing.T) {
	// Produced by a PHC implementation that omits base64 padding.
	hasher := newFastArgon2(t)
	hash, err := hasher.Hash("interop")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !hasher.Verify("interop", strings.TrimRight(hash, "=")) {
		t.Fatal("expected unpadded encoding to verify")
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
	}
	for name, mutate := range cases {
		cfg := fastConfig()
		mutate(&cfg)
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("%s: expected config validation error", name)
		}
	}
}
