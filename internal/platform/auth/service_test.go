package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/clock"
	"LIBRA-backend/internal/platform/config"
)

type memStore struct {
	mu    sync.Mutex
	users []*User
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uint64(len(m.users) + 1)
	cp := *u
	m.users = append(m.users, &cp)
	return nil
}

func (m *memStore) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memStore) Delete(_ context.Context, id uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService(store UserStore) *Service {
	return NewService(store, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}, clock.Fixed{T: testNow})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(&memStore{})
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Username: "reader", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role)

	tok, err := svc.Login(ctx, "reader", "secret1")
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Hour), tok.ExpiresAt)

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (any, error) { return svc.Secret(), nil },
		jwt.WithTimeFunc(func() time.Time { return testNow }))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "reader", claims["sub"])
	assert.Equal(t, RoleUser, claims["role"])
}

func TestRegisterRejects(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Username: "taken", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)

	cases := []struct {
		name string
		in   RegisterRequest
		code apierr.Code
	}{
		{"mismatch", RegisterRequest{Username: "a", Password: "secret1", ConfirmPassword: "secret2"}, apierr.CodeInvalidArgument},
		{"short password", RegisterRequest{Username: "a", Password: "123", ConfirmPassword: "123"}, apierr.CodeInvalidArgument},
		{"blank username", RegisterRequest{Username: "  ", Password: "secret1", ConfirmPassword: "secret1"}, apierr.CodeInvalidArgument},
		{"duplicate", RegisterRequest{Username: "taken", Password: "secret1", ConfirmPassword: "secret1"}, apierr.CodeConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			assert.True(t, apierr.Is(err, tc.code), "got %v", err)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	svc := newTestService(&memStore{})
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Username: "reader", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "reader", "wrong")
	assert.True(t, apierr.Is(err, apierr.CodeUnauthorized))
	_, err = svc.Login(ctx, "ghost", "secret1")
	assert.True(t, apierr.Is(err, apierr.CodeUnauthorized))
}

func TestEnsureDefaultAdmin(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.EnsureDefaultAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	u, err := store.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.IsAdmin())

	// 2回目は何もしない
	created, err = svc.EnsureDefaultAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.False(t, created)
	n, _ := store.Count(ctx)
	assert.EqualValues(t, 1, n)
}

func TestDelete(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterRequest{Username: "reader", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, u.ID))
	assert.True(t, apierr.Is(svc.Delete(ctx, u.ID), apierr.CodeNotFound))
}
