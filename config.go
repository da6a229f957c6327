package authlayer

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/MrEthical07/authlayer/password"
	"github.com/MrEthical07/authlayer/session"
	"github.com/MrEthical07/authlayer/strategy"
)

// AuthType selects the strategy built by [Builder].
type AuthType string

const (
	AuthNull          AuthType = "auth"
	AuthBasic         AuthType = "basic_auth"
	AuthSession       AuthType = "session_auth"
	AuthSessionExp    AuthType = "session_exp_auth"
	AuthSessionDB     AuthType = "session_db_auth"
	AuthSessionRedis  AuthType = "session_redis_auth"
	AuthBearer        AuthType = "bearer_auth"
	defaultAuthType            = AuthNull
	minJWTSecretBytes          = 32
)

// Valid reports whether t names a known strategy.
func (t AuthType) Valid() bool {
	switch t {
	case AuthNull, AuthBasic, AuthSession, AuthSessionExp, AuthSessionDB, AuthSessionRedis, AuthBearer:
		return true
	}
	return false
}

// UsesSessions reports whether t authenticates with a session cookie.
func (t AuthType) UsesSessions() bool {
	switch t {
	case AuthSession, AuthSessionExp, AuthSessionDB, AuthSessionRedis:
		return true
	}
	return false
}

// DefaultExcludedPaths are reachable without credentials.
var DefaultExcludedPaths = []string{
	"/api/v1/status/",
	"/api/v1/unauthorized/",
	"/api/v1/forbidden/",
	"/api/v1/auth_session/login/",
}

// Config is the process configuration, normally read from the environment by [Load].
type Config struct {
	AuthType AuthType `env:"AUTH_TYPE" envDefault:"auth"`

	// SessionName is the session cookie name.
	SessionName string `env:"SESSION_NAME" envDefault:"_my_session_id"`
	// SessionDuration is kept raw; see [Config.SessionLifetime].
	SessionDuration string `env:"SESSION_DURATION" envDefault:"0"`
	// SessionSweepInterval enables background removal of expired sessions when > 0.
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"0s"`

	ExcludedPaths []string `env:"AUTH_EXCLUDED_PATHS" envSeparator:"," envDefault:"/api/v1/status/,/api/v1/unauthorized/,/api/v1/forbidden/,/api/v1/auth_session/login/"`

	Redis    RedisConfig `envPrefix:"REDIS_"`
	Database DatabaseConfig
	JWT      JWTConfig      `envPrefix:"JWT_"`
	Password PasswordConfig `envPrefix:"PASSWORD_"`
	Audit    AuditConfig    `envPrefix:"AUDIT_"`
	Login    LoginConfig    `envPrefix:"LOGIN_"`

	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	Prefix   string `env:"PREFIX" envDefault:"as"`
}

type DatabaseConfig struct {
	URL string `env:"DATABASE_URL"`
}

type JWTConfig struct {
	Secret string        `env:"SECRET"`
	TTL    time.Duration `env:"TTL" envDefault:"15m"`
	Issuer string        `env:"ISSUER" envDefault:"authlayer"`
}

type PasswordConfig struct {
	// Algorithm is "argon2id" or "bcrypt". The other algorithm is still accepted for
	// verification so stored hashes migrate on login.
	Algorithm   string `env:"ALGORITHM" envDefault:"argon2id"`
	Memory      uint32 `env:"ARGON2_MEMORY" envDefault:"65536"` // in KB
	Time        uint32 `env:"ARGON2_TIME" envDefault:"1"`
	Parallelism uint8  `env:"ARGON2_PARALLELISM" envDefault:"4"`
	SaltLength  uint32 `env:"ARGON2_SALT_LENGTH" envDefault:"16"`
	KeyLength   uint32 `env:"ARGON2_KEY_LENGTH" envDefault:"32"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"10"`

	UpgradeOnLogin bool `env:"UPGRADE_ON_LOGIN" envDefault:"true"`
}

type AuditConfig struct {
	Enabled    bool `env:"ENABLED" envDefault:"false"`
	BufferSize int  `env:"BUFFER_SIZE" envDefault:"1024"`
	DropIfFull bool `env:"DROP_IF_FULL" envDefault:"true"`
}

// LoginConfig throttles failed logins. MaxAttempts 0 disables throttling; any other
// value requires a Redis client.
type LoginConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"0"`
	Window      time.Duration `env:"WINDOW" envDefault:"15m"`
	ThrottleIP  bool          `env:"THROTTLE_IP" envDefault:"false"`
}

// DefaultConfig returns the configuration used when no variable is set.
func DefaultConfig() Config {
	argon := password.DefaultConfig()
	return Config{
		AuthType:        defaultAuthType,
		SessionName:     strategy.DefaultCookieName,
		SessionDuration: "0",
		ExcludedPaths:   append([]string(nil), DefaultExcludedPaths...),
		Redis: RedisConfig{
			Prefix: "as",
		},
		JWT: JWTConfig{
			TTL:    15 * time.Minute,
			Issuer: "authlayer",
		},
		Password: PasswordConfig{
			Algorithm:      "argon2id",
			Memory:         argon.Memory,
			Time:           argon.Time,
			Parallelism:    argon.Parallelism,
			SaltLength:     argon.SaltLength,
			KeyLength:      argon.KeyLength,
			BcryptCost:     10,
			UpgradeOnLogin: true,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Login: LoginConfig{
			Window: 15 * time.Minute,
		},
		LogFormat:  "json",
		ListenAddr: ":8080",
	}
}

// Load reads dotenv files (".env" when none are named; missing files are skipped) and then
// parses the environment. Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: dotenv: %v", ErrInvalidConfig, err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SessionLifetime is SESSION_DURATION in seconds. Unparseable or negative values disable
// expiry.
func (c *Config) SessionLifetime() time.Duration {
	return session.NormalizeDuration(c.SessionDuration)
}

// Validate checks that c is self-consistent. Backends that are supplied at build time
// (Redis client, identity store) are checked by [Builder.Build].
func (c *Config) Validate() error {
	if !c.AuthType.Valid() {
		return invalidConfig("unsupported AUTH_TYPE %q", c.AuthType)
	}
	if strings.TrimSpace(c.SessionName) == "" {
		return invalidConfig("SESSION_NAME must not be empty")
	}
	if c.SessionSweepInterval < 0 {
		return invalidConfig("SESSION_SWEEP_INTERVAL must be >= 0")
	}

	// Bearer
	if c.AuthType == AuthBearer {
		if len(c.JWT.Secret) < minJWTSecretBytes {
			return invalidConfig("JWT_SECRET must be at least %d bytes", minJWTSecretBytes)
		}
		if c.JWT.TTL <= 0 {
			return invalidConfig("JWT_TTL must be > 0")
		}
	}

	// Password
	switch c.Password.Algorithm {
	case "argon2id":
		if c.Password.Memory < 8*1024 {
			return invalidConfig("PASSWORD_ARGON2_MEMORY must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return invalidConfig("PASSWORD_ARGON2_TIME must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return invalidConfig("PASSWORD_ARGON2_PARALLELISM must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return invalidConfig("PASSWORD_ARGON2_SALT_LENGTH must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return invalidConfig("PASSWORD_ARGON2_KEY_LENGTH must be >= 16")
		}
	case "bcrypt":
	default:
		return invalidConfig("PASSWORD_ALGORITHM must be 'argon2id' or 'bcrypt'")
	}

	// Audit
	if c.Audit.BufferSize < 0 {
		return invalidConfig("AUDIT_BUFFER_SIZE must be >= 0")
	}

	// Login throttle
	if c.Login.MaxAttempts < 0 {
		return invalidConfig("LOGIN_MAX_ATTEMPTS must be >= 0")
	}
	if c.Login.MaxAttempts > 0 && c.Login.Window <= 0 {
		return invalidConfig("LOGIN_WINDOW must be > 0")
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalidConfig("LOG_FORMAT must be 'json' or 'text'")
	}

	return nil
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// NewHasher builds the configured password hasher. Hashes in the other supported format
// still verify and report NeedsUpgrade.
func NewHasher(cfg PasswordConfig) (password.Hasher, error) {
	argon, err := password.NewArgon2(password.Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil {
		if cfg.Algorithm == "argon2id" {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		argon = nil
	}
	bc, err := password.NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.Algorithm == "bcrypt" {
		if argon == nil {
			return password.NewChain(bc), nil
		}
		return password.NewChain(bc, argon), nil
	}
	return password.NewChain(argon, bc), nil
}
