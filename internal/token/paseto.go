package token

import (
	"fmt"

	"aidanwoods.dev/go-paseto"
)

// PasetoKeyBytes is the required symmetric key length for v4.local
const PasetoKeyBytes = 32

// PasetoCodec handles PASETO v4.local tokens
// (symmetric authenticated encryption with XChaCha20 and BLAKE2b)
type PasetoCodec struct {
	symmetricKey paseto.V4SymmetricKey
}

func NewPasetoCodec(symmetricKey []byte) (*PasetoCodec, error) {
	if len(symmetricKey) != PasetoKeyBytes {
		return nil, fmt.Errorf("%w: symmetric key must be exactly %d bytes, got %d", ErrKeyMisconfigured, PasetoKeyBytes, len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyMisconfigured, err)
	}

	return &PasetoCodec{symmetricKey: key}, nil
}

func (c *PasetoCodec) Encode(claims Claims) (string, error) {
	t := paseto.NewToken()
	t.SetSubject(claims.Subject)
	t.SetJti(claims.ID)
	t.SetIssuedAt(claims.IssuedAt)
	t.SetExpiration(claims.ExpiresAt)

	return t.V4Encrypt(c.symmetricKey, nil), nil
}

// Decode authenticates and decrypts raw without applying the library's
// expiry rule.
func (c *PasetoCodec) Decode(raw string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()

	t, err := parser.ParseV4Local(c.symmetricKey, raw, nil)
	if err != nil {
		return nil, invalid("decryption failed", err)
	}

	subject, err := t.GetSubject()
	if err != nil {
		return nil, invalid("missing subject", err)
	}
	expiresAt, err := t.GetExpiration()
	if err != nil {
		return nil, invalid("missing expiry", err)
	}
	claims := &Claims{Subject: subject, ExpiresAt: expiresAt.UTC()}

	if issuedAt, err := t.GetIssuedAt(); err == nil {
		claims.IssuedAt = issuedAt.UTC()
	}
	if jti, err := t.GetJti(); err == nil {
		claims.ID = jti
	}

	return claims, nil
}
