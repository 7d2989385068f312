package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinJWTSecretBytes is the shortest HS256 secret accepted
const MinJWTSecretBytes = 32

// JWTCodec signs HS256 JWTs with a shared secret
type JWTCodec struct {
	secret []byte
}

// NewJWTCodec copies secret so later mutation by the caller has no effect
func NewJWTCodec(secret []byte) (*JWTCodec, error) {
	if len(secret) < MinJWTSecretBytes {
		return nil, fmt.Errorf("%w: HS256 secret must be at least %d bytes, got %d", ErrKeyMisconfigured, MinJWTSecretBytes, len(secret))
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &JWTCodec{secret: key}, nil
}

func (c *JWTCodec) Encode(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Subject,
		ID:        claims.ID,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	return t.SignedString(c.secret)
}

// Decode verifies the signature only; expiry is judged by Service against
// its own clock.
func (c *JWTCodec) Decode(raw string) (*Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &rc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	claims := &Claims{Subject: rc.Subject, ID: rc.ID}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time.UTC()
	}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time.UTC()
	}
	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return invalid("signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return invalid("signing method is not accepted", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return invalid("token is malformed", err)
	default:
		return invalid("verification failed", err)
	}
}
