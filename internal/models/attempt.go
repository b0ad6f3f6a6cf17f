package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	VerdictAdmit = "ADMIT"
	VerdictDeny  = "DENY"
)

// AccessAttempt is the append-only log entry written once per submission.
// At most one of MatchedTicketID and MatchedVipID is set, and neither on denial.
type AccessAttempt struct {
	bun.BaseModel `bun:"table:access_attempts"`

	ID              string    `bun:"id,pk" json:"id"`
	EventID         string    `bun:"event_id,notnull" json:"event_id"`
	SubmittedName   string    `bun:"submitted_name,notnull" json:"submitted_name"`
	SubmittedID     string    `bun:"submitted_id,notnull" json:"submitted_id"`
	Timestamp       time.Time `bun:"attempted_at,notnull" json:"timestamp"`
	Verdict         string    `bun:"verdict,notnull" json:"verdict"`
	DenyReason      *string   `bun:"deny_reason" json:"deny_reason,omitempty"`
	MatchedTicketID *string   `bun:"matched_ticket_id" json:"matched_ticket_id,omitempty"`
	MatchedVipID    *string   `bun:"matched_vip_id" json:"matched_vip_id,omitempty"`
}

func (a AccessAttempt) Admitted() bool {
	return a.Verdict == VerdictAdmit
}
