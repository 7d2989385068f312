package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateSchema creates the identity tables if they do not exist.
// Sub-records cascade on user deletion so deleting by email leaves no orphans.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().
			Model((*User)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create users table: %w", err)
		}

		children := []struct {
			model any
			table string
		}{
			{(*Address)(nil), "addresses"},
			{(*Phone)(nil), "phones"},
		}
		for _, child := range children {
			if _, err := tx.NewCreateTable().
				Model(child.model).
				IfNotExists().
				ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
				Exec(ctx); err != nil {
				return fmt.Errorf("create %s table: %w", child.table, err)
			}

			if _, err := tx.NewCreateIndex().
				Model(child.model).
				Index(child.table + "_user_id_idx").
				Column("user_id").
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("create %s user_id index: %w", child.table, err)
			}
		}

		return nil
	})
}
