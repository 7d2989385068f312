package token

import (
	"errors"
	"fmt"
)

// ErrKeyMisconfigured is returned by codec constructors when the signing key
// is unusable. Callers treat it as fatal at startup.
var ErrKeyMisconfigured = errors.New("token signing key misconfigured")

// InvalidTokenError reports a token that failed signature, structure or
// expiry checks.
type InvalidTokenError struct {
	Reason  string
	Expired bool
	Err     error
}

func (e *InvalidTokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid token: %s: %v", e.Reason, e.Err)
	}
	return "invalid token: " + e.Reason
}

func (e *InvalidTokenError) Unwrap() error { return e.Err }

// MalformedHeaderError reports an Authorization header that does not carry a
// bearer credential.
type MalformedHeaderError struct {
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return "malformed authorization header: " + e.Reason
}

func invalid(reason string, err error) error {
	return &InvalidTokenError{Reason: reason, Err: err}
}
