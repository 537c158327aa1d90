// Package middleware provides HTTP middleware for authentication and
// role-based access control.
package middleware

import (
	"context"
	"net/http"

	"github.com/opshub-io/opshub/pkg/auth"
	"github.com/opshub-io/opshub/pkg/contextkeys"
	"github.com/opshub-io/opshub/pkg/httputil"
	"github.com/opshub-io/opshub/pkg/observability"
)

// Authenticator resolves bearer tokens into users and enforces role gates.
type Authenticator struct {
	service *auth.Service
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewAuthenticator creates an Authenticator. metrics may be nil when metrics
// are disabled.
func NewAuthenticator(service *auth.Service, logger *observability.Logger, metrics *observability.Metrics) *Authenticator {
	return &Authenticator{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Authenticate requires a valid bearer token on the request. The resolved
// user is stored in the request context for downstream handlers. Requests
// without a token, with an invalid token, or belonging to an inactive or
// deleted user are rejected with 401 and a bearer challenge.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := httputil.BearerToken(r)
		if !ok {
			a.countVerification("missing")
			httputil.WriteUnauthorized(w, "not authenticated")
			return
		}

		user, err := a.service.Resolve(r.Context(), token)
		if err != nil {
			a.countVerification("rejected")
			a.logger.WithField("request_id", contextkeys.GetRequestID(r.Context())).
				Debug("bearer token rejected")
			httputil.WriteUnauthorized(w, "not authenticated")
			return
		}

		a.countVerification("accepted")
		ctx := contextkeys.WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles returns middleware that rejects authenticated users whose role
// is not in the allowed set. There is no role hierarchy; membership is exact.
// Must run after Authenticate.
func (a *Authenticator) RequireRoles(allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				httputil.WriteUnauthorized(w, "not authenticated")
				return
			}

			if _, err := a.service.Require(user, allowed...); err != nil {
				if a.metrics != nil {
					a.metrics.AccessDeniedTotal.WithLabelValues(r.URL.Path).Inc()
				}
				a.logger.WithFields(map[string]interface{}{
					"email": user.Email,
					"role":  string(user.Role),
					"path":  r.URL.Path,
				}).Warn("access denied")
				httputil.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *Authenticator) countVerification(outcome string) {
	if a.metrics != nil {
		a.metrics.TokenVerificationsTotal.WithLabelValues(outcome).Inc()
	}
}

// GetUser retrieves the authenticated user from the request context. Returns
// nil when the request did not pass through Authenticate.
func GetUser(ctx context.Context) *auth.User {
	if user, ok := ctx.Value(contextkeys.UserKey).(*auth.User); ok {
		return user
	}
	return nil
}
