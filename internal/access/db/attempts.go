package db

import (
	"context"

	"controle-acesso/internal/models"
)

// AttemptFilter narrows ListAttempts. Empty fields match everything.
type AttemptFilter struct {
	EventID string
	Verdict string
}

func (d *DB) AppendAccessAttempt(ctx context.Context, attempt models.AccessAttempt) error {
	_, err := d.Bun.NewInsert().Model(&attempt).Exec(ctx)
	return err
}

func (d *DB) ListAttempts(ctx context.Context, filter AttemptFilter) ([]models.AccessAttempt, error) {
	attempts := []models.AccessAttempt{}
	q := d.Bun.NewSelect().Model(&attempts)
	if filter.EventID != "" {
		q = q.Where("event_id = ?", filter.EventID)
	}
	if filter.Verdict != "" {
		q = q.Where("verdict = ?", filter.Verdict)
	}
	if err := q.Order("attempted_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	return attempts, nil
}

// ClearAttempts deletes the whole access log and returns how many rows went.
func (d *DB) ClearAttempts(ctx context.Context) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.AccessAttempt)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
