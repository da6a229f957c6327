package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/authlayer/identity"
	"github.com/MrEthical07/authlayer/metrics"
	"github.com/MrEthical07/authlayer/strategy"
)

type principalContextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *identity.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal attached by Guard.
func PrincipalFromContext(ctx context.Context) (*identity.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*identity.Principal)
	return p, ok && p != nil
}

type config struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	label    string
}

// Option configures Guard.
type Option func(*config)

// WithLogger logs backend failures to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics reports every decision to r, labelled with the strategy name.
func WithMetrics(r metrics.Recorder, strategyName string) Option {
	return func(c *config) {
		if r != nil {
			c.recorder = r
		}
		if strategyName != "" {
			c.label = strategyName
		}
	}
}

// Guard gates handlers behind s. Paths for which s.RequireAuth(path, excluded) is false
// pass through without any credential lookup.
func Guard(s strategy.Strategy, excluded []string, opts ...Option) func(http.Handler) http.Handler {
	cfg := config{
		logger:   slog.Default(),
		recorder: metrics.Nop{},
		label:    "auth",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s == nil {
				writeError(w, http.StatusUnauthorized)
				return
			}

			if !s.RequireAuth(r.URL.Path, excluded) {
				cfg.recorder.AuthAttempt(cfg.label, metrics.OutcomeExempt)
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := s.AuthToken(r); !ok {
				cfg.recorder.AuthAttempt(cfg.label, metrics.OutcomeUnauthenticated)
				writeError(w, http.StatusUnauthorized)
				return
			}

			p, err := s.CurrentPrincipal(r)
			if err != nil {
				cfg.logger.ErrorContext(r.Context(), "principal resolution failed",
					"strategy", cfg.label,
					"path", r.URL.Path,
					"error", err,
				)
				cfg.recorder.AuthAttempt(cfg.label, metrics.OutcomeError)
				writeError(w, http.StatusServiceUnavailable)
				return
			}
			if p == nil {
				cfg.recorder.AuthAttempt(cfg.label, metrics.OutcomeForbidden)
				writeError(w, http.StatusForbidden)
				return
			}

			cfg.recorder.AuthAttempt(cfg.label, metrics.OutcomeAuthenticated)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
}
