package httpapi

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/authlayer"
	"github.com/MrEthical07/authlayer/identity"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	pw := r.FormValue("password")
	if email == "" || pw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "email and password required"})
		return
	}

	if _, err := s.rt.Service.Register(r.Context(), email, pw); err != nil {
		if errors.Is(err, authlayer.ErrAlreadyExists) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "email already registered"})
			return
		}
		if invalidInput(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid password"})
			return
		}
		s.internalError(w, r, "register", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "message": "user created"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	ok, err := s.rt.Service.ValidLogin(r.Context(), email, r.FormValue("password"))
	if err != nil {
		s.verifyError(w, r, "login", err)
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	sid, err := s.rt.Service.CreateSession(r.Context(), email)
	if err != nil {
		s.internalError(w, r, "create session", err)
		return
	}
	if sid == "" {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccountCookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "message": "logged in"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	p, ok := s.accountPrincipal(w, r)
	if !ok {
		return
	}

	if err := s.rt.Service.DestroySession(r.Context(), p.ID); err != nil {
		s.internalError(w, r, "destroy session", err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: AccountCookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	p, ok := s.accountPrincipal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": p.Email})
}

func (s *Server) resetToken(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	tok, err := s.rt.Service.ResetPasswordToken(r.Context(), email)
	if err != nil {
		if errors.Is(err, authlayer.ErrNotFound) {
			writeError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
			return
		}
		s.internalError(w, r, "reset token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "reset_token": tok})
}

func (s *Server) updatePassword(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	err := s.rt.Service.UpdatePassword(r.Context(), r.FormValue("reset_token"), r.FormValue("new_password"))
	if err != nil {
		if errors.Is(err, authlayer.ErrInvalidToken) {
			writeError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
			return
		}
		if invalidInput(err) {
			writeError(w, http.StatusBadRequest, "invalid password")
			return
		}
		s.internalError(w, r, "update password", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "message": "Password updated"})
}

// issueToken exchanges form credentials for a bearer token when the runtime uses
// bearer_auth.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	if s.rt.Tokens == nil {
		notFound(w, r)
		return
	}

	email := r.FormValue("email")
	ok, err := s.rt.Service.ValidLogin(r.Context(), email, r.FormValue("password"))
	if err != nil {
		s.verifyError(w, r, "token login", err)
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	p, err := s.rt.Service.PrincipalByEmail(r.Context(), email)
	if err != nil || p == nil {
		s.internalError(w, r, "token lookup", err)
		return
	}
	tok, err := s.rt.Tokens.Issue(p.ID)
	if err != nil {
		s.internalError(w, r, "token issue", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": tok,
		"token_type":   "Bearer",
	})
}

func (s *Server) accountPrincipal(w http.ResponseWriter, r *http.Request) (*identity.Principal, bool) {
	c, err := r.Cookie(AccountCookieName)
	if err != nil || c.Value == "" {
		writeError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
		return nil, false
	}
	p, err := s.rt.Service.PrincipalBySession(r.Context(), c.Value)
	if err != nil {
		s.internalError(w, r, "session lookup", err)
		return nil, false
	}
	if p == nil {
		writeError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
		return nil, false
	}
	return p, true
}
