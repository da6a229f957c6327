// Package jwt issues and verifies the short-lived bearer tokens accepted by the bearer
// strategy. A token's "sub" claim is the principal id; nothing else about the principal
// is embedded.
package jwt
