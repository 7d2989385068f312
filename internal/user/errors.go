package user

import (
	"errors"
	"fmt"
	"strconv"
)

// Store-level sentinels
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Input validation
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooLong  = errors.New("password is too long")
)

// ConflictError reports a registration whose email is already taken
type ConflictError struct {
	Email string
}

func (e *ConflictError) Error() string {
	return "email already registered: " + e.Email
}

// NotFoundError reports a lookup miss. Key is the email or identifier used.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// Resource names used in NotFoundError
const (
	ResourceUser    = "user"
	ResourceAddress = "address"
	ResourcePhone   = "phone"
)

func userNotFound(email string) error {
	return &NotFoundError{Resource: ResourceUser, Key: email}
}

func recordNotFound(resource string, id int64) error {
	return &NotFoundError{Resource: resource, Key: strconv.FormatInt(id, 10)}
}
