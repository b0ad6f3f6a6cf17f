package db

import (
	"context"
	"time"

	"controle-acesso/internal/models"

	"github.com/uptrace/bun"
)

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// ListEvents returns every event ordered by start time.
func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Order("starts_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CurrentEvent returns the event running at now. When none is running it
// falls back to the event with the latest start time.
func (d *DB) CurrentEvent(ctx context.Context, now time.Time) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("starts_at <= ?", now).
		Where("ends_at >= ?", now).
		Order("starts_at DESC").
		Limit(1).
		Scan(ctx)
	if err == nil {
		return &event, nil
	}
	if notFound(err) != ErrNotFound {
		return nil, err
	}

	err = d.Bun.NewSelect().
		Model(&event).
		Order("starts_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// DeleteEvent removes the event together with its VIP list, tickets and
// access log in one transaction.
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		children := []interface{}{
			(*models.AccessAttempt)(nil),
			(*models.VipEntry)(nil),
			(*models.TicketCode)(nil),
		}
		for _, m := range children {
			if _, err := tx.NewDelete().Model(m).Where("event_id = ?", id).Exec(ctx); err != nil {
				return err
			}
		}

		res, err := tx.NewDelete().Model((*models.Event)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
