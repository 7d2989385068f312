package user

import "strings"

// User is the persisted identity record. Email is unique across users and
// stored normalized (see NormalizeEmail). PasswordHash never holds plaintext.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Addresses    []Address
	Phones       []Phone
}

// Address belongs to a user through UserID only
type Address struct {
	ID         int64
	Street     string
	Number     string
	Complement string
	City       string
	State      string
	PostalCode string
	UserID     int64
}

// Phone belongs to a user through UserID only
type Phone struct {
	ID       int64
	Number   string
	AreaCode string
	UserID   int64
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Every email entering the service passes through it, which makes email
// uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
