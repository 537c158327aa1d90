package auth

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for unknown handle, wrong
	// password, or inactive account. Callers must surface it as a single
	// generic message so the failing check is not revealed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned by the token service when the signature
	// does not verify, the structure is malformed, or the expiry has passed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthenticated is returned by Resolve when no active identity can
	// be derived from the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned by Require when the identity resolved but its
	// role is not in the allowed set. Never downgraded to ErrUnauthenticated.
	ErrForbidden = errors.New("forbidden")
)
