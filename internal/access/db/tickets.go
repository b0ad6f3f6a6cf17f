package db

import (
	"context"
	"time"

	"controle-acesso/internal/access"
	"controle-acesso/internal/models"

	"github.com/uptrace/bun"
)

func (d *DB) CreateTickets(ctx context.Context, tickets []models.TicketCode) error {
	if len(tickets) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&tickets).Exec(ctx)
	return err
}

func (d *DB) ListTickets(ctx context.Context, eventID string) ([]models.TicketCode, error) {
	tickets := []models.TicketCode{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("event_id = ?", eventID).
		Order("code ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// LoadTicketIndex keys the event's tickets by normalised code.
func (d *DB) LoadTicketIndex(ctx context.Context, eventID string) (map[string]models.TicketCode, error) {
	tickets, err := d.ListTickets(ctx, eventID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]models.TicketCode, len(tickets))
	for _, t := range tickets {
		index[access.NormalizeTicketCode(t.Code)] = t
	}
	return index, nil
}

func (d *DB) GetTicket(ctx context.Context, eventID, id string) (*models.TicketCode, error) {
	var ticket models.TicketCode
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &ticket, nil
}

// ClaimTicket marks the ticket consumed if and only if it is still available.
// The conditional update is the serialisation point between concurrent
// admissions on the same code. at is stored as consumed_at.
func (d *DB) ClaimTicket(ctx context.Context, ticketID string, at time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.TicketCode)(nil)).
		Set("consumed = ?", true).
		Set("consumed_at = ?", at.UTC()).
		Where("id = ?", ticketID).
		Where("consumed = ?", false).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return access.ErrTicketAlreadyConsumed
	}
	return nil
}

func (d *DB) DeleteTicket(ctx context.Context, eventID, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.TicketCode)(nil)).
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

// ExistingTicketCodes returns which of codes are already taken by any event.
func (d *DB) ExistingTicketCodes(ctx context.Context, codes []string) ([]string, error) {
	taken := []string{}
	if len(codes) == 0 {
		return taken, nil
	}
	err := d.Bun.NewSelect().
		Model((*models.TicketCode)(nil)).
		Column("code").
		Where("code IN (?)", bun.In(codes)).
		Order("code ASC").
		Scan(ctx, &taken)
	if err != nil {
		return nil, err
	}
	return taken, nil
}
