package auth

import (
	"context"
	"errors"
	"time"
)

// Service wires the password hasher, token service, and identity store into
// the three checks the HTTP layer consumes: Login, Resolve, and Require.
type Service struct {
	hasher *PasswordHasher
	tokens *TokenService
	users  UserStore
}

// NewService creates the authentication service.
func NewService(hasher *PasswordHasher, tokens *TokenService, users UserStore) *Service {
	return &Service{
		hasher: hasher,
		tokens: tokens,
		users:  users,
	}
}

// Tokens exposes the underlying token service.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Hasher exposes the underlying password hasher.
func (s *Service) Hasher() *PasswordHasher {
	return s.hasher
}

// Login verifies the credentials and issues a bearer token carrying the
// user's role. Unknown handle, wrong password, and inactive account all
// collapse into ErrInvalidCredentials so callers cannot tell them apart.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email, user.Role, 0)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Resolve validates a bearer token and loads the identity it names. The
// signature and expiry are checked before the store is touched; the lookup
// runs exactly once per call so a deactivation is observed on the very next
// request even while the token is still unexpired.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// Require checks that the user's role is a member of the allowed set and
// passes the user through unchanged. Pure and stateless; no I/O.
func (s *Service) Require(user *User, allowed ...Role) (*User, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	for _, role := range allowed {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, ErrForbidden
}

// IssueFor issues a token for an already-verified user. Used by tests and
// administrative tooling; the HTTP login path goes through Login.
func (s *Service) IssueFor(user *User, ttl time.Duration) (string, error) {
	return s.tokens.Issue(user.Email, user.Role, ttl)
}
