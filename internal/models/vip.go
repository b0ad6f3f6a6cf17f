package models

import (
	"time"

	"github.com/uptrace/bun"
)

// VipEntry is a guest pre-authorised by name for one event.
type VipEntry struct {
	bun.BaseModel `bun:"table:vip_entries"`

	ID        string    `bun:"id,pk" json:"id"`
	EventID   string    `bun:"event_id,notnull" json:"event_id"`
	FullName  string    `bun:"full_name,notnull" json:"full_name"`
	IDNumber  *string   `bun:"id_number" json:"id_number,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}
