package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/identity-api/internal/database"
)

// Repository implements Store on Postgres through Bun
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// ExistsByEmail reports whether a user with email exists
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("email = ?", email).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// FindByEmail retrieves a user with its addresses and phones
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Relation("Addresses", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id")
		}).
		Relation("Phones", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id")
		}).
		Where("u.email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SaveUser inserts a new user together with its nested records in one
// transaction, or updates name and password of an existing one.
func (r *Repository) SaveUser(ctx context.Context, u *User) (*User, error) {
	if u.ID != 0 {
		return r.updateUser(ctx, u)
	}

	dbUser := mapModelUserToDB(u)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(dbUser).Returning("id").Exec(ctx); err != nil {
			return err
		}

		if len(dbUser.Addresses) > 0 {
			for _, a := range dbUser.Addresses {
				a.UserID = dbUser.ID
			}
			if _, err := tx.NewInsert().Model(&dbUser.Addresses).Returning("id").Exec(ctx); err != nil {
				return err
			}
		}

		if len(dbUser.Phones) > 0 {
			for _, p := range dbUser.Phones {
				p.UserID = dbUser.ID
			}
			if _, err := tx.NewInsert().Model(&dbUser.Phones).Returning("id").Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

func (r *Repository) updateUser(ctx context.Context, u *User) (*User, error) {
	result, err := r.db.NewUpdate().
		Model(mapModelUserToDB(u)).
		Column("name", "password").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err := requireAffected(result); err != nil {
		return nil, err
	}

	saved := *u
	return &saved, nil
}

// DeleteByEmail removes the user and, through cascading foreign keys, its
// addresses and phones. Deleting an absent user is not an error.
func (r *Repository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.NewDelete().
		Model((*database.User)(nil)).
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// FindAddressByID retrieves an address by ID
func (r *Repository) FindAddressByID(ctx context.Context, id int64) (*Address, error) {
	dbAddress := &database.Address{ID: id}
	if err := r.db.NewSelect().Model(dbAddress).WherePK().Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get address by id: %w", err)
	}
	return mapDBAddressToModel(dbAddress), nil
}

// SaveAddress inserts a new address or updates an existing one by ID
func (r *Repository) SaveAddress(ctx context.Context, a *Address) (*Address, error) {
	dbAddress := mapModelAddressToDB(a)

	if a.ID == 0 {
		if _, err := r.db.NewInsert().Model(dbAddress).Returning("id").Exec(ctx); err != nil {
			if isForeignKeyViolation(err) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to create address: %w", err)
		}
		return mapDBAddressToModel(dbAddress), nil
	}

	result, err := r.db.NewUpdate().Model(dbAddress).WherePK().Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return mapDBAddressToModel(dbAddress), nil
}

// FindPhoneByID retrieves a phone by ID
func (r *Repository) FindPhoneByID(ctx context.Context, id int64) (*Phone, error) {
	dbPhone := &database.Phone{ID: id}
	if err := r.db.NewSelect().Model(dbPhone).WherePK().Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get phone by id: %w", err)
	}
	return mapDBPhoneToModel(dbPhone), nil
}

// SavePhone inserts a new phone or updates an existing one by ID
func (r *Repository) SavePhone(ctx context.Context, p *Phone) (*Phone, error) {
	dbPhone := mapModelPhoneToDB(p)

	if p.ID == 0 {
		if _, err := r.db.NewInsert().Model(dbPhone).Returning("id").Exec(ctx); err != nil {
			if isForeignKeyViolation(err) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to create phone: %w", err)
		}
		return mapDBPhoneToModel(dbPhone), nil
	}

	result, err := r.db.NewUpdate().Model(dbPhone).WherePK().Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update phone: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return mapDBPhoneToModel(dbPhone), nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation"
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	u := &User{
		ID:           dbu.ID,
		Name:         dbu.Name,
		Email:        dbu.Email,
		PasswordHash: dbu.Password,
		Addresses:    make([]Address, 0, len(dbu.Addresses)),
		Phones:       make([]Phone, 0, len(dbu.Phones)),
	}
	for _, a := range dbu.Addresses {
		u.Addresses = append(u.Addresses, *mapDBAddressToModel(a))
	}
	for _, p := range dbu.Phones {
		u.Phones = append(u.Phones, *mapDBPhoneToModel(p))
	}
	return u
}

func mapModelUserToDB(u *User) *database.User {
	dbu := &database.User{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Password: u.PasswordHash,
	}
	for i := range u.Addresses {
		dbu.Addresses = append(dbu.Addresses, mapModelAddressToDB(&u.Addresses[i]))
	}
	for i := range u.Phones {
		dbu.Phones = append(dbu.Phones, mapModelPhoneToDB(&u.Phones[i]))
	}
	return dbu
}

func mapDBAddressToModel(dba *database.Address) *Address {
	return &Address{
		ID:         dba.ID,
		Street:     dba.Street,
		Number:     dba.Number,
		Complement: dba.Complement,
		City:       dba.City,
		State:      dba.State,
		PostalCode: dba.PostalCode,
		UserID:     dba.UserID,
	}
}

func mapModelAddressToDB(a *Address) *database.Address {
	return &database.Address{
		ID:         a.ID,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		UserID:     a.UserID,
	}
}

func mapDBPhoneToModel(dbp *database.Phone) *Phone {
	return &Phone{
		ID:       dbp.ID,
		Number:   dbp.Number,
		AreaCode: dbp.AreaCode,
		UserID:   dbp.UserID,
	}
}

func mapModelPhoneToDB(p *Phone) *database.Phone {
	return &database.Phone{
		ID:       p.ID,
		Number:   p.Number,
		AreaCode: p.AreaCode,
		UserID:   p.UserID,
	}
}
