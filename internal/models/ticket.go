package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TicketType string

const (
	TicketTypeStandard TicketType = "standard"
	TicketTypeVIP      TicketType = "vip"
	TicketTypeStaff    TicketType = "staff"
	TicketTypePress    TicketType = "press"
	TicketTypeCourtesy TicketType = "courtesy"
)

func (t TicketType) Valid() bool {
	switch t {
	case TicketTypeStandard, TicketTypeVIP, TicketTypeStaff, TicketTypePress, TicketTypeCourtesy:
		return true
	}
	return false
}

// TicketCode is a single-use admission credential. Consumed only ever moves
// from false to true.
type TicketCode struct {
	bun.BaseModel `bun:"table:ticket_codes"`

	ID         string     `bun:"id,pk" json:"id"`
	EventID    string     `bun:"event_id,notnull" json:"event_id"`
	Code       string     `bun:"code,unique,notnull" json:"code"`
	Type       TicketType `bun:"type,notnull" json:"type"`
	Consumed   bool       `bun:"consumed,notnull" json:"consumed"`
	ConsumedAt *time.Time `bun:"consumed_at" json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `bun:"created_at,notnull" json:"created_at"`
}
