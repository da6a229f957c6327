package httpapi

import (
	"net/http"

	"github.com/MrEthical07/authlayer/middleware"
)

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		notFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

// sessionLogin checks form credentials and sets the strategy's session cookie.
func (s *Server) sessionLogin(w http.ResponseWriter, r *http.Request) {
	if s.rt.Sessions == nil {
		notFound(w, r)
		return
	}

	email := r.FormValue("email")
	pw := r.FormValue("password")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email missing")
		return
	}
	if pw == "" {
		writeError(w, http.StatusBadRequest, "password missing")
		return
	}

	p, err := s.rt.Service.PrincipalByEmail(r.Context(), email)
	if err != nil {
		s.internalError(w, r, "session login lookup", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "no user found for this email")
		return
	}

	ok, err := s.rt.Service.ValidLogin(r.Context(), email, pw)
	if err != nil {
		s.verifyError(w, r, "session login verify", err)
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "wrong password")
		return
	}

	sid, err := s.rt.Sessions.CreateSession(r.Context(), p.ID)
	if err != nil {
		s.internalError(w, r, "session login create", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.rt.Sessions.CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, viewOf(p))
}

func (s *Server) sessionLogout(w http.ResponseWriter, r *http.Request) {
	if s.rt.Sessions == nil {
		notFound(w, r)
		return
	}

	ok, err := s.rt.Sessions.DestroySession(r)
	if err != nil {
		s.internalError(w, r, "session logout", err)
		return
	}
	if !ok {
		notFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}
