// Package password hashes and verifies user credentials.
//
// Two schemes are available: bcrypt (the default, compatible with hashes
// produced by the previous system) and argon2id. Matches dispatches on the
// stored hash prefix, so switching the configured scheme does not lock out
// users whose password was hashed under the other one.
package password

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPassword   = errors.New("password is empty")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	ErrInvalidHash     = errors.New("invalid password hash")
	ErrUnknownScheme   = errors.New("unknown password hashing scheme")
)

// Hasher hashes plaintext passwords and checks plaintext against stored hashes.
// Implementations must be safe for concurrent use.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, hash string) bool
}

// Scheme names accepted by New
const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// New returns the hasher for scheme. bcryptCost is ignored for argon2id.
func New(scheme string, bcryptCost int) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case SchemeBcrypt, "":
		b, err := NewBcrypt(bcryptCost)
		if err != nil {
			return nil, err
		}
		return &dispatcher{primary: b, bcrypt: b, argon2id: NewArgon2id()}, nil
	case SchemeArgon2id:
		b, err := NewBcrypt(0)
		if err != nil {
			return nil, err
		}
		a := NewArgon2id()
		return &dispatcher{primary: a, bcrypt: b, argon2id: a}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

// dispatcher hashes with the configured scheme and verifies with whichever
// scheme produced the stored hash.
type dispatcher struct {
	primary  Hasher
	bcrypt   *Bcrypt
	argon2id *Argon2id
}

func (d *dispatcher) Hash(plaintext string) (string, error) {
	return d.primary.Hash(plaintext)
}

func (d *dispatcher) Matches(plaintext, hash string) bool {
	if strings.HasPrefix(hash, argon2idPrefix) {
		return d.argon2id.Matches(plaintext, hash)
	}
	return d.bcrypt.Matches(plaintext, hash)
}
