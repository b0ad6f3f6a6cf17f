package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"controle-acesso/internal/models"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("record not found")

type DB struct {
	Bun *bun.DB
}

var tables = []interface{}{
	(*models.User)(nil),
	(*models.Event)(nil),
	(*models.VipEntry)(nil),
	(*models.TicketCode)(nil),
	(*models.AccessAttempt)(nil),
}

// CreateSchema creates every table from the bun models. Used for sqlite and
// tests; postgres deployments run the SQL migrations instead.
func (d *DB) CreateSchema(ctx context.Context) error {
	for _, m := range tables {
		if _, err := d.Bun.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	indexes := []struct {
		model  interface{}
		name   string
		column string
	}{
		{(*models.VipEntry)(nil), "idx_vip_entries_event_id", "event_id"},
		{(*models.TicketCode)(nil), "idx_ticket_codes_event_id", "event_id"},
		{(*models.AccessAttempt)(nil), "idx_access_attempts_event_id", "event_id"},
	}
	for _, idx := range indexes {
		_, err := d.Bun.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.column).IfNotExists().Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
