package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipfeed/clipfeed/internal/repository"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	users, err := repository.NewJSONUserRepository(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	return NewAuthService(users, "test-secret", time.Hour)
}

func TestRegister(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, " Alice ", "correct horse", "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Alice", res.User.Username)
	assert.Equal(t, "Alice", res.User.DisplayName, "display name defaults to username")
	assert.False(t, res.User.Banned)

	stored, err := s.userRepository.ByUsername("alice")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)
	assert.NoError(t, s.ComparePassword("correct horse", stored.PasswordHash))
}

func TestRegister_DuplicateIsCaseInsensitive(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "correct horse", "")
	require.NoError(t, err)

	_, err = s.Register(ctx, "ALICE", "another secret", "")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRegister_Validation(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "al", "correct horse", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Register(ctx, "alice", "short", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()
	_, err := s.Register(ctx, "alice", "correct horse", "Alice L")
	require.NoError(t, err)

	res, err := s.Login(ctx, "ALICE", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "Alice L", res.User.DisplayName)

	_, err = s.Login(ctx, "alice", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_Banned(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()
	_, err := s.Register(ctx, "alice", "correct horse", "")
	require.NoError(t, err)

	_, err = s.SetBanned("alice", true)
	require.NoError(t, err)

	_, err = s.Login(ctx, "alice", "correct horse")
	assert.ErrorIs(t, err, ErrBanned)

	_, err = s.Login(ctx, "alice", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "ban status is not revealed without the password")
}

func TestBanStatus(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()
	res, err := s.Register(ctx, "alice", "correct horse", "")
	require.NoError(t, err)

	banned, err := s.BanStatus(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, banned)

	_, err = s.SetBanned(res.User.ID, true)
	require.NoError(t, err)

	banned, err = s.BanStatus(ctx, res.User.ID)
	require.NoError(t, err)
	assert.True(t, banned, "lookup by id")

	banned, err = s.BanStatus(ctx, "Alice")
	require.NoError(t, err)
	assert.True(t, banned, "lookup by username")

	banned, err = s.BanStatus(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestUser(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()
	_, err := s.Register(ctx, "alice", "correct horse", "Alice L")
	require.NoError(t, err)

	u, err := s.User(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice L", u.DisplayName)

	_, err = s.User(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyToken(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()
	res, err := s.Register(ctx, "alice", "correct horse", "")
	require.NoError(t, err)

	u, err := s.VerifyToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, u.ID)

	_, err = s.VerifyToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	other := NewAuthService(s.userRepository, "other-secret", time.Hour)
	_, err = other.VerifyToken(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized, "wrong signing key")
}

func TestVerifyToken_Expired(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	res, err := s.Register(ctx, "alice", "correct horse", "")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = s.VerifyToken(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSetBanned_UnknownUser(t *testing.T) {
	s := newAuthService(t)

	_, err := s.SetBanned("ghost", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()
	_, err := s.Register(ctx, "alice", "correct horse", "")
	require.NoError(t, err)
	_, err = s.Register(ctx, "bob_b", "battery staple", "")
	require.NoError(t, err)

	users, err := s.Users()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob_b", users[1].Username)
}
