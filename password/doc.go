// Package password implements one-way password hashing and constant-time verification.
//
// # Output formats
//
// [Argon2] encodes hashes in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Bcrypt] produces the modular crypt format ($2a$/$2b$/$2y$). [Chain] hashes with a
// primary [Hasher] and verifies any format it has a hasher for, so stored hashes can be
// upgraded on the next successful login (see [Chain.NeedsUpgrade]).
//
// # Architecture boundaries
//
// This package owns hashing and verification only. It never stores or looks up
// credentials.
//
// # What this package must NOT do
//
//   - Return or log plaintext passwords.
//   - Report a malformed stored hash as anything other than a failed verification.
//   - Import any other authlayer package.
package password
