package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/MrEthical07/authlayer"
	"github.com/MrEthical07/authlayer/identity"
)

// AccountCookieName carries the session created through POST /sessions.
const AccountCookieName = "session_id"

// Server routes requests to the authentication runtime.
type Server struct {
	rt      *authlayer.Runtime
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsHandler exposes h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func New(rt *authlayer.Runtime, opts ...Option) *Server {
	s := &Server{
		rt:     rt,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the complete route table.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	handleBoth(api, "GET /api/v1/status", s.status)
	handleBoth(api, "GET /api/v1/unauthorized", statusOnly(http.StatusUnauthorized))
	handleBoth(api, "GET /api/v1/forbidden", statusOnly(http.StatusForbidden))
	handleBoth(api, "GET /api/v1/users/me", s.me)
	handleBoth(api, "POST /api/v1/auth_session/login", s.sessionLogin)
	handleBoth(api, "DELETE /api/v1/auth_session/logout", s.sessionLogout)
	api.HandleFunc("/api/v1/", notFound)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", s.rt.Guard()(api))
	mux.HandleFunc("GET /{$}", welcome)
	mux.HandleFunc("POST /users", s.register)
	mux.HandleFunc("POST /sessions", s.login)
	mux.HandleFunc("DELETE /sessions", s.logout)
	mux.HandleFunc("GET /profile", s.profile)
	mux.HandleFunc("POST /reset_password", s.resetToken)
	mux.HandleFunc("PUT /reset_password", s.updatePassword)
	mux.HandleFunc("POST /auth_token", s.issueToken)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return withClientIP(mux)
}

// handleBoth registers pattern with and without a trailing slash.
func handleBoth(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, h)
	mux.HandleFunc(pattern+"/{$}", h)
}

// withClientIP records the peer address for audit events.
func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(authlayer.WithClientIP(r.Context(), host)))
	})
}

type principalView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewOf(p *identity.Principal) principalView {
	return principalView{
		ID:        p.ID,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusOnly(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, status, http.StatusText(status))
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bienvenue"})
}

// verifyError answers a failed ValidLogin call.
func (s *Server) verifyError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, authlayer.ErrLoginThrottled) {
		writeError(w, http.StatusTooManyRequests, "too many failed logins")
		return
	}
	s.internalError(w, r, op, err)
}

func invalidInput(err error) bool {
	oe, ok := oops.AsOops(err)
	return ok && oe.Code() == authlayer.CodeInvalidInput
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.ErrorContext(r.Context(), "request failed",
		"operation", op,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
}
