package authlayer

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/MrEthical07/authlayer/identity"
	"github.com/MrEthical07/authlayer/internal/rate"
	"github.com/MrEthical07/authlayer/internal/token"
	"github.com/MrEthical07/authlayer/metrics"
	"github.com/MrEthical07/authlayer/password"
)

// facadeBackend labels session metrics for sessions held on the principal record.
const facadeBackend = "principal"

// Service registers principals, checks credentials and manages the single session and
// password reset token stored on each principal.
//
// Service is safe for concurrent use when its identity store is.
type Service struct {
	store   identity.Store
	hasher  password.Hasher
	logger  *slog.Logger
	metrics metrics.Recorder
	audit   *auditDispatcher
	// auditCfg and auditSink are turned into audit once every option has run.
	auditCfg  AuditConfig
	auditSink AuditSink
	limiter   *rate.Limiter
	now       func() time.Time

	upgradeOnLogin bool
	// dummyHash is verified against when the email is unknown, so a miss costs the same
	// as a wrong password.
	dummyHash string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for best-effort failures. Defaults to slog.Default().
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithServiceMetrics records facade session creation and destruction.
func WithServiceMetrics(r metrics.Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithAudit delivers audit events to sink through an asynchronous dispatcher. Call Close
// to flush it.
func WithAudit(cfg AuditConfig, sink AuditSink) ServiceOption {
	return func(s *Service) {
		s.auditCfg = cfg
		s.auditSink = sink
	}
}

// WithHashUpgrade controls whether ValidLogin rehashes outdated hashes. Enabled by default.
func WithHashUpgrade(enabled bool) ServiceOption {
	return func(s *Service) { s.upgradeOnLogin = enabled }
}

// WithLoginThrottle makes ValidLogin refuse an email (and, with ThrottleIP, a client IP)
// after cfg.MaxAttempts failures within cfg.Window. A zero MaxAttempts leaves login
// unthrottled.
func WithLoginThrottle(client redis.UniversalClient, cfg LoginConfig) ServiceOption {
	return func(s *Service) {
		if client == nil || cfg.MaxAttempts <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.New(client, rate.Config{
			MaxAttempts: cfg.MaxAttempts,
			Window:      cfg.Window,
			ThrottleIP:  cfg.ThrottleIP,
		})
	}
}

func withServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service over store. It hashes once at construction to obtain the
// placeholder hash used for unknown emails.
func NewService(store identity.Store, hasher password.Hasher, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, oops.Code(CodeInvalidInput).Errorf("identity store is required")
	}
	if hasher == nil {
		return nil, oops.Code(CodeInvalidInput).Errorf("password hasher is required")
	}

	s := &Service{
		store:          store,
		hasher:         hasher,
		logger:         slog.Default(),
		metrics:        metrics.Nop{},
		now:            time.Now,
		upgradeOnLogin: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := hasher.Hash("authlayer-placeholder-credential")
	if err != nil {
		return nil, oops.Code(CodeHashFailed).
			With("operation", "hash placeholder").
			Wrap(err)
	}
	s.dummyHash = dummy
	s.audit = newAuditDispatcher(s.auditCfg, s.auditSink, s.logger, s.metrics)

	return s, nil
}

// findByEmail treats a blank email as a miss: no principal can be registered under one.
func (s *Service) findByEmail(ctx context.Context, email string) (*identity.Principal, error) {
	if strings.TrimSpace(email) == "" {
		return nil, identity.ErrNotFound
	}
	return s.store.FindPrincipal(ctx, identity.Criteria{Email: email})
}

// hashFailure classifies a hasher error. Rejected passwords are caller input.
func hashFailure(err error) error {
	if errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong) {
		return oops.Code(CodeInvalidInput).Wrap(err)
	}
	return oops.Code(CodeHashFailed).Wrap(err)
}

// Close flushes pending audit events.
func (s *Service) Close() {
	s.audit.Close()
}

// Register hashes password and stores a new principal for email.
func (s *Service) Register(ctx context.Context, email, pw string) (*identity.Principal, error) {
	if strings.TrimSpace(email) == "" {
		return nil, oops.Code(CodeInvalidInput).Errorf("email is required")
	}

	_, err := s.findByEmail(ctx, email)
	switch {
	case err == nil:
		s.emit(ctx, EventRegister, "", false, ErrAlreadyExists)
		return nil, oops.Code(CodeAlreadyExists).Wrap(ErrAlreadyExists)
	case !errors.Is(err, identity.ErrNotFound):
		return nil, oops.Code(CodeStoreFailed).
			With("operation", "find principal by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return nil, hashFailure(err)
	}

	p, err := identity.NewPrincipal(email, hash)
	if err != nil {
		return nil, oops.Code(CodeInvalidInput).Wrap(err)
	}

	if err := s.store.SavePrincipal(ctx, p); err != nil {
		if errors.Is(err, identity.ErrDuplicate) {
			// Lost a race with a concurrent registration.
			s.emit(ctx, EventRegister, "", false, ErrAlreadyExists)
			return nil, oops.Code(CodeAlreadyExists).Wrap(ErrAlreadyExists)
		}
		return nil, oops.Code(CodeStoreFailed).
			With("operation", "save principal").
			Wrap(err)
	}

	s.emit(ctx, EventRegister, p.ID, true, nil)
	return p, nil
}

// ValidLogin reports whether pw matches the stored hash for email. An unknown email is
// false, not an error, and takes as long as a wrong password.
//
// With a login throttle configured, ValidLogin fails with ErrLoginThrottled once the
// failure budget is spent, without looking at the password.
func (s *Service) ValidLogin(ctx context.Context, email, pw string) (bool, error) {
	ip := clientIPFromContext(ctx)
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				s.emit(ctx, EventLogin, "", false, ErrLoginThrottled)
				return false, oops.Code(CodeThrottled).Wrap(ErrLoginThrottled)
			}
			return false, oops.Code(CodeStoreFailed).
				With("operation", "check login throttle").
				Wrap(err)
		}
	}

	p, err := s.findByEmail(ctx, email)

	var targetHash string
	switch {
	case err == nil:
		targetHash = p.PasswordHash
	case errors.Is(err, identity.ErrNotFound):
		targetHash = s.dummyHash
	default:
		return false, oops.Code(CodeStoreFailed).
			With("operation", "find principal by email").
			Wrap(err)
	}

	ok := s.hasher.Verify(pw, targetHash)
	if p == nil || !ok {
		userID := ""
		if p != nil {
			userID = p.ID
		}
		s.emitEvent(ctx, EventLogin, userID, false, nil, s.recordFailure(ctx, email, ip))
		return false, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "login throttle reset failed", "user_id", p.ID, "error", err)
		}
	}

	if s.upgradeOnLogin && s.hasher.NeedsUpgrade(p.PasswordHash) {
		s.upgradeHash(ctx, p.ID, pw)
	}

	s.emit(ctx, EventLogin, p.ID, true, nil)
	return true, nil
}

// recordFailure is best effort. It returns audit metadata carrying the failure count.
func (s *Service) recordFailure(ctx context.Context, email, ip string) map[string]string {
	if s.limiter == nil {
		return nil
	}
	count, err := s.limiter.Fail(ctx, email, ip)
	if err != nil {
		s.logger.WarnContext(ctx, "login failure not counted", "error", err)
		return nil
	}
	return map[string]string{"failed_attempts": strconv.Itoa(count)}
}

// upgradeHash is best effort: a failure leaves the old, still valid, hash in place.
func (s *Service) upgradeHash(ctx context.Context, id, pw string) {
	newHash, err := s.hasher.Hash(pw)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed",
			"user_id", id, "error", err)
		return
	}
	if err := s.store.UpdateFields(ctx, id, identity.Fields{identity.FieldPasswordHash: newHash}); err != nil {
		s.logger.WarnContext(ctx, "password rehash not persisted",
			"user_id", id, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded",
		"user_id", id, "algorithm", password.Algorithm(newHash))
}

// CreateSession stores a new session id on the principal for email, replacing any
// previous one. An unknown email yields "".
func (s *Service) CreateSession(ctx context.Context, email string) (string, error) {
	p, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return "", nil
		}
		return "", oops.Code(CodeStoreFailed).
			With("operation", "find principal by email").
			Wrap(err)
	}

	sid, err := token.NewSessionID()
	if err != nil {
		return "", oops.Code(CodeTokenFailed).Wrap(err)
	}

	if err := s.store.UpdateFields(ctx, p.ID, identity.Fields{identity.FieldSessionID: sid}); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			// Removed between lookup and update.
			return "", nil
		}
		return "", oops.Code(CodeStoreFailed).
			With("operation", "store session id").
			With("user_id", p.ID).
			Wrap(err)
	}

	s.metrics.SessionCreated(facadeBackend)
	s.emit(ctx, EventSessionCreate, p.ID, true, nil)
	return sid, nil
}

// PrincipalByEmail returns the principal registered under email, or nil when there is none.
func (s *Service) PrincipalByEmail(ctx context.Context, email string) (*identity.Principal, error) {
	p, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code(CodeStoreFailed).
			With("operation", "find principal by email").
			Wrap(err)
	}
	return p, nil
}

// PrincipalBySession returns the principal holding sessionID, or nil when none does.
func (s *Service) PrincipalBySession(ctx context.Context, sessionID string) (*identity.Principal, error) {
	if sessionID == "" {
		return nil, nil
	}

	p, err := s.store.FindPrincipal(ctx, identity.Criteria{SessionID: sessionID})
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code(CodeStoreFailed).
			With("operation", "find principal by session").
			Wrap(err)
	}
	return p, nil
}

// DestroySession clears the session held by principalID. Clearing an absent session or
// an unknown principal is not an error.
func (s *Service) DestroySession(ctx context.Context, principalID string) error {
	if principalID == "" {
		return nil
	}

	err := s.store.UpdateFields(ctx, principalID, identity.Fields{identity.FieldSessionID: ""})
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil
		}
		return oops.Code(CodeStoreFailed).
			With("operation", "clear session id").
			With("user_id", principalID).
			Wrap(err)
	}

	s.metrics.SessionDestroyed(facadeBackend)
	s.emit(ctx, EventSessionDestroy, principalID, true, nil)
	return nil
}

// ResetPasswordToken issues a fresh reset token for email, invalidating any earlier one.
func (s *Service) ResetPasswordToken(ctx context.Context, email string) (string, error) {
	p, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			s.emit(ctx, EventResetIssue, "", false, ErrNotFound)
			return "", oops.Code(CodeNotFound).Wrap(ErrNotFound)
		}
		return "", oops.Code(CodeStoreFailed).
			With("operation", "find principal by email").
			Wrap(err)
	}

	tok, err := token.NewResetToken()
	if err != nil {
		return "", oops.Code(CodeTokenFailed).Wrap(err)
	}

	if err := s.store.UpdateFields(ctx, p.ID, identity.Fields{identity.FieldResetToken: tok}); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return "", oops.Code(CodeNotFound).Wrap(ErrNotFound)
		}
		return "", oops.Code(CodeStoreFailed).
			With("operation", "store reset token").
			With("user_id", p.ID).
			Wrap(err)
	}

	s.emit(ctx, EventResetIssue, p.ID, true, nil)
	return tok, nil
}

// UpdatePassword consumes resetToken and sets newPassword. The new hash is written and
// the token cleared in one update, which only applies while the principal still holds
// resetToken.
func (s *Service) UpdatePassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return oops.Code(CodeInvalidToken).Wrap(ErrInvalidToken)
	}

	p, err := s.store.FindPrincipal(ctx, identity.Criteria{ResetToken: resetToken})
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			s.emit(ctx, EventResetConsume, "", false, ErrInvalidToken)
			return oops.Code(CodeInvalidToken).Wrap(ErrInvalidToken)
		}
		return oops.Code(CodeStoreFailed).
			With("operation", "find principal by reset token").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return hashFailure(err)
	}

	// Conditional on the token so that concurrent consumers cannot both succeed.
	err = s.store.UpdateFieldsWhere(ctx, p.ID,
		identity.Fields{identity.FieldResetToken: resetToken},
		identity.Fields{
			identity.FieldPasswordHash: hash,
			identity.FieldResetToken:   "",
		})
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			s.emit(ctx, EventResetConsume, p.ID, false, ErrInvalidToken)
			return oops.Code(CodeInvalidToken).Wrap(ErrInvalidToken)
		}
		return oops.Code(CodeStoreFailed).
			With("operation", "update password").
			With("user_id", p.ID).
			Wrap(err)
	}

	s.emit(ctx, EventResetConsume, p.ID, true, nil)
	return nil
}

func (s *Service) emit(ctx context.Context, eventType, userID string, success bool, err error) {
	s.emitEvent(ctx, eventType, userID, success, err, nil)
}

func (s *Service) emitEvent(ctx context.Context, eventType, userID string, success bool, err error, metadata map[string]string) {
	if s.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: s.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	s.audit.Emit(ctx, event)
}
