package api

import (
	"errors"
	"net/http"

	"github.com/opshub-io/opshub/pkg/auth"
	"github.com/opshub-io/opshub/pkg/httputil"
)

// Login verifies credentials and returns a bearer token. Every failure mode
// (unknown email, wrong password, inactive account) produces the same 401 so
// the response does not leak which part failed.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.countLogin("failure")
			httputil.WriteUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.WithError(err).Error("login failed")
		httputil.WriteInternalError(w, errors.New("internal error"))
		return
	}

	s.countLogin("success")
	httputil.WriteSuccess(w, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (s *Server) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}
