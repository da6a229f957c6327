package authlayer

import "errors"

var (
	// ErrAlreadyExists is returned by Register when the email is taken.
	ErrAlreadyExists = errors.New("principal already exists")
	// ErrInvalidToken is returned by UpdatePassword when no principal holds the reset token.
	ErrInvalidToken = errors.New("invalid reset token")
	// ErrNotFound is returned by ResetPasswordToken for an unknown email.
	ErrNotFound = errors.New("principal not found")
	// ErrLoginThrottled is returned by ValidLogin when too many logins failed recently.
	ErrLoginThrottled = errors.New("too many failed logins")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrMissingDependency is returned by Build when the chosen auth type needs a backend
	// that was not supplied.
	ErrMissingDependency = errors.New("missing dependency")
)

// Error codes attached with oops.
const (
	CodeAlreadyExists = "AUTH_ALREADY_EXISTS"
	CodeInvalidInput  = "AUTH_INVALID_INPUT"
	CodeInvalidToken  = "AUTH_INVALID_TOKEN"
	CodeNotFound      = "AUTH_NOT_FOUND"
	CodeHashFailed    = "AUTH_HASH_FAILED"
	CodeTokenFailed   = "AUTH_TOKEN_FAILED"
	CodeStoreFailed   = "AUTH_STORE_FAILED"
	CodeThrottled     = "AUTH_THROTTLED"
	CodeConfigInvalid = "AUTH_CONFIG_INVALID"
	CodeBuildFailed   = "AUTH_BUILD_FAILED"
)
