package user

import "context"

// UserStore persists users. FindByEmail returns ErrNotFound on a miss and
// SaveUser returns ErrDuplicateEmail when the unique email constraint
// rejects the write. DeleteByEmail treats a missing user as success.
type UserStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// SaveUser inserts when u.ID is zero, assigning identifiers to the user
	// and its nested records; otherwise it updates the user row by ID.
	SaveUser(ctx context.Context, u *User) (*User, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// AddressStore persists addresses
type AddressStore interface {
	FindAddressByID(ctx context.Context, id int64) (*Address, error)
	SaveAddress(ctx context.Context, a *Address) (*Address, error)
}

// PhoneStore persists phones
type PhoneStore interface {
	FindPhoneByID(ctx context.Context, id int64) (*Phone, error)
	SavePhone(ctx context.Context, p *Phone) (*Phone, error)
}

// Store is everything the identity service needs from persistence
type Store interface {
	UserStore
	AddressStore
	PhoneStore
}
