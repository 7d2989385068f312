package database

import "github.com/uptrace/bun"

// User maps the users table. Email carries the unique constraint that backs
// the service's duplicate check.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64      `bun:"id,pk,autoincrement"`
	Name      string     `bun:"name,notnull"`
	Email     string     `bun:"email,notnull,unique"`
	Password  string     `bun:"password,notnull"`
	Addresses []*Address `bun:"rel:has-many,join:id=user_id"`
	Phones    []*Phone   `bun:"rel:has-many,join:id=user_id"`
}

// Address maps the addresses table
type Address struct {
	bun.BaseModel `bun:"table:addresses,alias:a"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Street     string `bun:"street,notnull"`
	Number     string `bun:"number,notnull"`
	Complement string `bun:"complement,nullzero"`
	City       string `bun:"city,notnull"`
	State      string `bun:"state,notnull"`
	PostalCode string `bun:"postal_code,notnull"`
	UserID     int64  `bun:"user_id,notnull"`
}

// Phone maps the phones table
type Phone struct {
	bun.BaseModel `bun:"table:phones,alias:p"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Number   string `bun:"number,type:varchar(10),notnull"`
	AreaCode string `bun:"area_code,type:varchar(3),notnull"`
	UserID   int64  `bun:"user_id,notnull"`
}
