package db

import (
	"context"

	"controle-acesso/internal/models"
)

func (d *DB) AddVip(ctx context.Context, vip models.VipEntry) error {
	_, err := d.Bun.NewInsert().Model(&vip).Exec(ctx)
	return err
}

// LoadVipList returns the event's VIP entries in insertion order, which is
// the order duplicate names are resolved in.
func (d *DB) LoadVipList(ctx context.Context, eventID string) ([]models.VipEntry, error) {
	vips := []models.VipEntry{}
	err := d.Bun.NewSelect().
		Model(&vips).
		Where("event_id = ?", eventID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return vips, nil
}

func (d *DB) GetVip(ctx context.Context, eventID, id string) (*models.VipEntry, error) {
	var vip models.VipEntry
	err := d.Bun.NewSelect().
		Model(&vip).
		Where("id = ?", id).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &vip, nil
}

func (d *DB) UpdateVip(ctx context.Context, vip models.VipEntry) error {
	res, err := d.Bun.NewUpdate().
		Model(&vip).
		Column("full_name", "id_number").
		Where("id = ?", vip.ID).
		Where("event_id = ?", vip.EventID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) DeleteVip(ctx context.Context, eventID, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.VipEntry)(nil)).
		Where("id = ?", id).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
