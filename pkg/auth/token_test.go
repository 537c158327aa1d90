package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

// fixedClock returns a clock function pinned to t
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestIssueVerify_RoundTrip verifies subject and role survive issue/verify
func TestIssueVerify_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue("a@x.com", RoleAdmin, 0)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
}

// TestIssue_ExpiryFromTTL verifies expiry is issued-at plus the ttl
func TestIssue_ExpiryFromTTL(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret, 30*time.Minute).WithClock(fixedClock(issuedAt))

	token, err := svc.Issue("a@x.com", RoleViewer, 0)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, issuedAt, claims.IssuedAt.Time.UTC())
	assert.Equal(t, issuedAt.Add(30*time.Minute), claims.ExpiresAt.Time.UTC())
}

// TestVerify_Expired verifies an expired token fails with ErrInvalidToken
// even though its signature is valid
func TestVerify_Expired(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret, 30*time.Minute).WithClock(fixedClock(issuedAt))

	token, err := svc.Issue("a@x.com", RoleAdmin, 0)
	require.NoError(t, err)

	// Advance the clock past expiry; the signature is untouched.
	svc.WithClock(fixedClock(issuedAt.Add(31 * time.Minute)))
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestVerify_ExpiryBoundary verifies the strict now < expiry comparison:
// a token is rejected at the exact expiry instant
func TestVerify_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret, 30*time.Minute).WithClock(fixedClock(issuedAt))

	token, err := svc.Issue("a@x.com", RoleAdmin, 0)
	require.NoError(t, err)

	// One second before expiry: still valid.
	svc.WithClock(fixedClock(issuedAt.Add(30*time.Minute - time.Second)))
	_, err = svc.Verify(token)
	assert.NoError(t, err)

	// At the expiry instant: rejected.
	svc.WithClock(fixedClock(issuedAt.Add(30 * time.Minute)))
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestVerify_TamperedSignature verifies a bit flip in the signature is rejected
func TestVerify_TamperedSignature(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue("a@x.com", RoleAdmin, 0)
	require.NoError(t, err)

	// Flip one character in the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestVerify_WrongSecret verifies tokens signed with another secret fail
func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewTokenService([]byte("other-secret"), time.Hour)
	verifier := NewTokenService(testSecret, time.Hour)

	token, err := issuer.Issue("a@x.com", RoleAdmin, 0)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestVerify_Malformed verifies structurally broken tokens fail
func TestVerify_Malformed(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "this-is-not-a-token"},
		{"two segments", "abc.def"},
		{"garbage segments", "a.b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

// TestVerify_UnsignedAlgorithmRejected verifies alg=none tokens never pass
func TestVerify_UnsignedAlgorithmRejected(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	// Header {"alg":"none","typ":"JWT"} with an arbitrary payload and empty
	// signature. Must be rejected by the valid-methods restriction.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJzdWIiOiJhQHguY29tIiwiZXhwIjo0MTAyNDQ0ODAwfQ."
	_, err := svc.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestNewTokenService_DefaultTTL verifies the zero-value TTL fallback
func TestNewTokenService_DefaultTTL(t *testing.T) {
	svc := NewTokenService(testSecret, 0)
	assert.Equal(t, DefaultTokenTTL, svc.ttl)
}

// TestIssue_ExplicitTTLOverridesDefault verifies per-call TTLs
func TestIssue_ExplicitTTLOverridesDefault(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret, time.Hour).WithClock(fixedClock(issuedAt))

	token, err := svc.Issue("a@x.com", RoleAgent, 5*time.Minute)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(5*time.Minute), claims.ExpiresAt.Time.UTC())
}
