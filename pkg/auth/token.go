package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL bounds token lifetime when no TTL is configured.
const DefaultTokenTTL = 30 * time.Minute

// Claims is the token payload: the registered subject/issued-at/expiry set
// plus the role claim OpsHub gates on.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// TokenService issues and verifies HMAC-SHA256 signed bearer tokens. The
// signing secret and default TTL are fixed at construction; the service holds
// no other state and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service with the process-wide signing
// secret and default TTL. A zero ttl falls back to DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Expiry checks become deterministic
// in tests; production code keeps the time.Now default.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue builds and signs a token for the subject with the given role claim.
// Expiry is issued-at plus ttl; pass 0 to use the configured default.
func (s *TokenService) Issue(subject string, role Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	issuedAt := s.now().UTC()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Role: role,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims. Any
// failure yields ErrInvalidToken: bad signature, malformed structure,
// wrong signing method, or expiry at or before the current instant.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	// jwt treats exp == now as still valid; the contract here is strict
	// (now < expiry), so the boundary instant is rejected explicitly.
	if claims.ExpiresAt == nil || !s.now().UTC().Before(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
