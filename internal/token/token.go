// Package token issues and validates stateless bearer tokens.
//
// A token carries the subject (the user's email), an issued-at and an expiry
// timestamp, plus a random jti used only for log correlation. Tokens are never
// stored server-side and cannot be revoked; they are either valid or expired.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultValidity is the lifetime of an issued token
const DefaultValidity = time.Hour

// Claims is the decoded payload of a token
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs claims into a string and verifies them back.
// Decode must check integrity and structure but not expiry.
type Codec interface {
	Encode(c Claims) (string, error)
	Decode(raw string) (*Claims, error)
}

// Service issues tokens through a Codec and answers expiry questions
// against its clock. The codec key is immutable after construction, so a
// Service is safe for concurrent use.
type Service struct {
	codec    Codec
	validity time.Duration
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithValidity overrides DefaultValidity
func WithValidity(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.validity = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(codec Codec, opts ...Option) *Service {
	s := &Service{
		codec:    codec,
		validity: DefaultValidity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validity returns how long issued tokens stay valid
func (s *Service) Validity() time.Duration {
	return s.validity
}

// Issue creates a token for subject valid from now until now+validity
func (s *Service) Issue(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is empty")
	}

	now := s.now().UTC().Truncate(time.Second)
	raw, err := s.codec.Encode(Claims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.validity),
	})
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return raw, nil
}

// Parse verifies raw and returns its claims. Expired tokens still parse.
func (s *Service) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, invalid("token is empty", nil)
	}
	c, err := s.codec.Decode(raw)
	if err != nil {
		var tokenErr *InvalidTokenError
		if errors.As(err, &tokenErr) {
			return nil, err
		}
		return nil, invalid("verification failed", err)
	}
	if c.Subject == "" {
		return nil, invalid("missing subject", nil)
	}
	if c.ExpiresAt.IsZero() {
		return nil, invalid("missing expiry", nil)
	}
	return c, nil
}

// ExtractSubject verifies raw and returns its subject
func (s *Service) ExtractSubject(raw string) (string, error) {
	c, err := s.Parse(raw)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// IsExpired reports whether the current time is at or after the token expiry
func (s *Service) IsExpired(raw string) (bool, error) {
	c, err := s.Parse(raw)
	if err != nil {
		return false, err
	}
	return s.expired(c), nil
}

// Validate reports whether raw is authentic, unexpired and issued to
// expectedSubject. Parse failures yield false.
func (s *Service) Validate(raw, expectedSubject string) bool {
	c, err := s.Parse(raw)
	if err != nil {
		return false
	}
	return c.Subject == expectedSubject && !s.expired(c)
}

// Authenticate parses raw and rejects expired tokens, returning the
// claims of a currently valid token.
func (s *Service) Authenticate(raw string) (*Claims, error) {
	c, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	if s.expired(c) {
		return nil, &InvalidTokenError{Reason: "token expired", Expired: true}
	}
	return c, nil
}

func (s *Service) expired(c *Claims) bool {
	return !s.now().Before(c.ExpiresAt)
}
