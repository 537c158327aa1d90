package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserStore is an in-memory UserStore keyed by email.
type fakeUserStore struct {
	users map[string]*User
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := f.users[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*User, error) {
	for _, u := range f.users {
		if u.ID == id {
			copy := *u
			return &copy, nil
		}
	}
	return nil, ErrUserNotFound
}

func newTestService(t *testing.T, users ...*User) (*Service, *fakeUserStore) {
	t.Helper()
	store := &fakeUserStore{users: make(map[string]*User)}
	hasher := NewPasswordHasher(testIterations)
	for _, u := range users {
		store.users[u.Email] = u
	}
	tokens := NewTokenService(testSecret, 30*time.Minute)
	return NewService(hasher, tokens, store), store
}

func testUser(t *testing.T, hasher *PasswordHasher, email, password string, role Role, active bool) *User {
	t.Helper()
	credential, err := hasher.Hash(password)
	require.NoError(t, err)
	return &User{
		ID:           1,
		Email:        email,
		FullName:     "Test User",
		IsActive:     active,
		Role:         role,
		PasswordHash: credential,
		CreatedAt:    time.Now().UTC(),
	}
}

// TestLogin_Success verifies an active user with the right password gets a token
func TestLogin_Success(t *testing.T) {
	svc, store := newTestService(t)
	store.users["a@x.com"] = testUser(t, svc.Hasher(), "a@x.com", "secret", RoleAdmin, true)

	token, err := svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	claims, err := svc.Tokens().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

// TestLogin_FailuresAreIndistinguishable verifies unknown handle, wrong
// password, and inactive account all yield the same error
func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, store := newTestService(t)
	store.users["a@x.com"] = testUser(t, svc.Hasher(), "a@x.com", "secret", RoleAdmin, true)
	store.users["off@x.com"] = testUser(t, svc.Hasher(), "off@x.com", "secret", RoleAdmin, false)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown handle", "nobody@x.com", "secret"},
		{"wrong password", "a@x.com", "wrong"},
		{"inactive account", "off@x.com", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

// TestResolve_Success verifies a fresh token resolves to the full identity
func TestResolve_Success(t *testing.T) {
	svc, store := newTestService(t)
	store.users["a@x.com"] = testUser(t, svc.Hasher(), "a@x.com", "secret", RoleManager, true)

	token, err := svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	user, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, RoleManager, user.Role)
	assert.True(t, user.IsActive)
}

// TestResolve_DeactivatedAfterIssue verifies deactivation takes effect on the
// next request even though the token is still validly signed and unexpired
func TestResolve_DeactivatedAfterIssue(t *testing.T) {
	svc, store := newTestService(t)
	store.users["a@x.com"] = testUser(t, svc.Hasher(), "a@x.com", "secret", RoleAdmin, true)

	token, err := svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	store.users["a@x.com"].IsActive = false

	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// TestResolve_InvalidToken verifies garbage and tampered tokens are rejected
func TestResolve_InvalidToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// TestResolve_DeletedUser verifies a valid token for a vanished identity fails
func TestResolve_DeletedUser(t *testing.T) {
	svc, store := newTestService(t)
	store.users["a@x.com"] = testUser(t, svc.Hasher(), "a@x.com", "secret", RoleAdmin, true)

	token, err := svc.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	delete(store.users, "a@x.com")

	_, err = svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// TestRequire_Membership verifies authorization is strict set membership
func TestRequire_Membership(t *testing.T) {
	svc, _ := newTestService(t)

	viewer := &User{Email: "v@x.com", Role: RoleViewer, IsActive: true}
	admin := &User{Email: "a@x.com", Role: RoleAdmin, IsActive: true}

	_, err := svc.Require(viewer, RoleAdmin, RoleManager)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Require(admin, RoleAdmin, RoleManager)
	require.NoError(t, err)
	assert.Same(t, admin, got, "identity should pass through unchanged")
}

// TestRequire_NoHierarchy verifies admin does not satisfy a viewer-only gate
func TestRequire_NoHierarchy(t *testing.T) {
	svc, _ := newTestService(t)

	admin := &User{Email: "a@x.com", Role: RoleAdmin, IsActive: true}
	_, err := svc.Require(admin, RoleViewer)
	assert.ErrorIs(t, err, ErrForbidden)
}

// TestRequire_NilUser verifies a missing identity is unauthenticated, not forbidden
func TestRequire_NilUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Require(nil, RoleAdmin)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// TestRoleValid verifies the closed role set
func TestRoleValid(t *testing.T) {
	for _, r := range Roles() {
		assert.True(t, r.Valid(), "role %s should be valid", r)
	}
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}
