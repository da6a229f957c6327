package authlayer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authlayer/identity"
	"github.com/MrEthical07/authlayer/jwt"
	"github.com/MrEthical07/authlayer/metrics"
	"github.com/MrEthical07/authlayer/middleware"
	"github.com/MrEthical07/authlayer/password"
	"github.com/MrEthical07/authlayer/session"
	"github.com/MrEthical07/authlayer/strategy"
)

// Builder assembles a [Runtime] from a Config and the backends the chosen AuthType needs.
//
// A Builder is configured once and then built once.
type Builder struct {
	config   Config
	store    identity.Store
	redis    redis.UniversalClient
	hasher   password.Hasher
	logger   *slog.Logger
	recorder metrics.Recorder
	audit    AuditSink
	now      func() time.Time

	built bool
}

// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	cfg.ExcludedPaths = append([]string(nil), cfg.ExcludedPaths...)
	b.config = cfg
	return b
}

// WithIdentityStore sets the principal store. Without one an in-memory store is used.
func (b *Builder) WithIdentityStore(s identity.Store) *Builder {
	b.store = s
	return b
}

// WithRedis sets the client used by session_redis_auth and the login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHasher overrides the hasher derived from Config.Password.
func (b *Builder) WithHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithMetrics(r metrics.Recorder) *Builder {
	b.recorder = r
	return b
}

// WithAuditSink receives facade audit events when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.audit = sink
	return b
}

// WithClock replaces time.Now for session expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Runtime is a built authentication layer.
type Runtime struct {
	Config   Config
	Strategy strategy.Strategy
	Service  *Service
	// Sessions is set for cookie-session auth types.
	Sessions *strategy.Session
	// Tokens is set for bearer_auth.
	Tokens   *jwt.Manager
	Excluded []string

	logger      *slog.Logger
	recorder    metrics.Recorder
	stopSweeper func()
}

// Build validates the configuration and wires the strategy selected by AuthType.
func (b *Builder) Build() (*Runtime, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := b.recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	store := b.store
	if store == nil {
		logger.Warn("no identity store configured, principals are held in memory")
		store = identity.NewMemoryStore()
	}
	hasher := b.hasher
	if hasher == nil {
		h, err := NewHasher(cfg.Password)
		if err != nil {
			return nil, err
		}
		hasher = h
	}

	if cfg.Login.MaxAttempts > 0 && b.redis == nil {
		return nil, fmt.Errorf("%w: LOGIN_MAX_ATTEMPTS requires a redis client", ErrMissingDependency)
	}

	svcOpts := []ServiceOption{
		WithServiceLogger(logger),
		WithServiceMetrics(recorder),
		WithHashUpgrade(cfg.Password.UpgradeOnLogin),
		WithAudit(cfg.Audit, b.audit),
		WithLoginThrottle(b.redis, cfg.Login),
	}
	if b.now != nil {
		svcOpts = append(svcOpts, withServiceClock(b.now))
	}
	svc, err := NewService(store, hasher, svcOpts...)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:   cfg,
		Service:  svc,
		Excluded: cfg.ExcludedPaths,
		logger:   logger,
		recorder: recorder,
	}

	switch cfg.AuthType {
	case AuthNull:
		rt.Strategy = strategy.NewNull(cfg.SessionName)
	case AuthBasic:
		rt.Strategy = strategy.NewBasic(store, hasher)
	case AuthBearer:
		tokens, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.JWT.TTL,
			SigningMethod: jwt.MethodHS256,
			PrivateKey:    []byte(cfg.JWT.Secret),
			Issuer:        cfg.JWT.Issuer,
			Clock:         b.now,
		})
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		rt.Tokens = tokens
		rt.Strategy = strategy.NewBearer(tokens, store)
	default:
		backing, err := b.sessionStore(cfg, store, recorder)
		if err != nil {
			svc.Close()
			return nil, err
		}
		rt.Sessions = strategy.NewSession(session.NewManager(backing, b.sessionOptions(cfg, recorder)...), store, cfg.SessionName)
		rt.Strategy = rt.Sessions

		if sweeper, ok := backing.(*session.Expiring); ok && cfg.SessionSweepInterval > 0 && sweeper.Duration() > 0 {
			rt.stopSweeper = session.StartSweeper(context.Background(), sweeper, cfg.SessionLifetime(), cfg.SessionSweepInterval, logger)
		}
	}

	return rt, nil
}

func (b *Builder) sessionOptions(cfg Config, recorder metrics.Recorder) []session.Option {
	opts := []session.Option{
		session.WithMetrics(recorder),
		session.WithBackend(sessionBackend(cfg.AuthType)),
	}
	if b.now != nil {
		opts = append(opts, session.WithClock(b.now))
	}
	return opts
}

func sessionBackend(t AuthType) string {
	switch t {
	case AuthSessionDB:
		return "db"
	case AuthSessionRedis:
		return "redis"
	default:
		return "memory"
	}
}

func (b *Builder) sessionStore(cfg Config, store identity.Store, recorder metrics.Recorder) (session.Store, error) {
	opts := b.sessionOptions(cfg, recorder)
	lifetime := cfg.SessionLifetime()

	switch cfg.AuthType {
	case AuthSession:
		return session.NewMemoryStore(opts...), nil
	case AuthSessionExp:
		return session.NewExpiring(session.NewMemoryStore(opts...), lifetime, opts...), nil
	case AuthSessionDB:
		return session.NewExpiring(session.NewIdentityStore(store, opts...), lifetime, opts...), nil
	case AuthSessionRedis:
		if b.redis == nil {
			return nil, fmt.Errorf("%w: %s requires a redis client", ErrMissingDependency, cfg.AuthType)
		}
		return session.NewExpiring(session.NewRedisStore(b.redis, cfg.Redis.Prefix, lifetime), lifetime, opts...), nil
	}
	return nil, fmt.Errorf("%w: unsupported AUTH_TYPE %q", ErrInvalidConfig, cfg.AuthType)
}

// Guard returns the request gate for this runtime's strategy and excluded paths.
func (rt *Runtime) Guard(opts ...middleware.Option) func(http.Handler) http.Handler {
	base := []middleware.Option{
		middleware.WithLogger(rt.logger),
		middleware.WithMetrics(rt.recorder, string(rt.Config.AuthType)),
	}
	return middleware.Guard(rt.Strategy, rt.Excluded, append(base, opts...)...)
}

// Close stops background work and flushes audit events.
func (rt *Runtime) Close() {
	if rt.stopSweeper != nil {
		rt.stopSweeper()
		rt.stopSweeper = nil
	}
	rt.Service.Close()
}
