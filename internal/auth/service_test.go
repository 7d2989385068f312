package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/identity-api/internal/password"
	"github.com/redmonkez12/identity-api/internal/token"
	"github.com/redmonkez12/identity-api/internal/user"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// mockUserFinder is a hand-written UserFinder keyed by email
type mockUserFinder struct {
	users map[string]*user.User
	err   error
}

func (m *mockUserFinder) FindByEmail(_ context.Context, email string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type fixture struct {
	svc    *Service
	users  *mockUserFinder
	tokens *token.Service
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher, err := password.New(password.SchemeBcrypt, 4)
	require.NoError(t, err)
	hash, err := hasher.Hash("s3nha")
	require.NoError(t, err)

	codec, err := token.NewJWTCodec(testSecret)
	require.NoError(t, err)

	f := &fixture{
		users: &mockUserFinder{users: map[string]*user.User{
			"ana@x.com": {ID: 1, Name: "Ana", Email: "ana@x.com", PasswordHash: hash},
		}},
		now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
	f.tokens = token.NewService(codec, token.WithClock(func() time.Time { return f.now }))
	f.svc = NewService(f.users, hasher, f.tokens)
	return f
}

func TestService_Login(t *testing.T) {
	f := newFixture(t)

	tokens, err := f.svc.Login(context.Background(), " Ana@X.com ", "s3nha")
	require.NoError(t, err)

	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)
	assert.Equal(t, "Bearer "+tokens.AccessToken, tokens.Authorization)
	assert.True(t, f.tokens.Validate(tokens.AccessToken, "ana@x.com"))
}

func TestService_Login_InvalidCredentials(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "ana@x.com", password: "wrong"},
		{name: "unknown email", email: "bia@x.com", password: "s3nha"},
		{name: "empty email", email: "", password: "s3nha"},
		{name: "empty password", email: "ana@x.com", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestService_Login_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.users.err = errors.New("connection refused")

	_, err := f.svc.Login(context.Background(), "ana@x.com", "s3nha")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
