package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/identity-api/internal/password"
	"github.com/redmonkez12/identity-api/internal/token"
	"github.com/redmonkez12/identity-api/internal/user"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// dummyHash is verified when the email is unknown so both failure paths
// cost one hash comparison.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z2XU3YkC5CUg8b8tS6x1yE9u"

// UserFinder looks users up by normalized email
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// TokenIssuer issues bearer tokens for a subject
type TokenIssuer interface {
	Issue(subject string) (string, error)
	Validity() time.Duration
}

// AuthTokens is returned on successful login
type AuthTokens struct {
	AccessToken   string `json:"access_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int64  `json:"expires_in"`
	Authorization string `json:"authorization"`
}

// Service handles credential checks and token issuance
type Service struct {
	users  UserFinder
	hasher password.Hasher
	tokens TokenIssuer
}

func NewService(users UserFinder, hasher password.Hasher, tokens TokenIssuer) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Login authenticates a user and returns a bearer token
func (s *Service) Login(ctx context.Context, email, plaintext string) (*AuthTokens, error) {
	email = user.NormalizeEmail(email)
	if email == "" || plaintext == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Matches(plaintext, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Matches(plaintext, existingUser.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	raw, err := s.tokens.Issue(existingUser.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthTokens{
		AccessToken:   raw,
		TokenType:     "Bearer",
		ExpiresIn:     int64(s.tokens.Validity().Seconds()),
		Authorization: token.FormatBearer(raw),
	}, nil
}
