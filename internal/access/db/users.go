package db

import (
	"context"

	"controle-acesso/internal/models"
)

func (d *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UpsertUser inserts the user or, when the username exists, replaces its
// password hash and admin flag.
func (d *DB) UpsertUser(ctx context.Context, user models.User) error {
	_, err := d.Bun.NewInsert().
		Model(&user).
		On("CONFLICT (username) DO UPDATE").
		Set("password_hash = EXCLUDED.password_hash").
		Set("is_admin = EXCLUDED.is_admin").
		Exec(ctx)
	return err
}
