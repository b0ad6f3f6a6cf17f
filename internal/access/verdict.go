package access

import (
	"errors"

	"controle-acesso/internal/models"
)

// Denial reasons recorded on the access log.
const (
	ReasonInvalidID      = "invalid identification number"
	ReasonTicketRequired = "ticket required"
	ReasonTicketNotFound = "ticket not found"
	ReasonTicketUsed     = "ticket already used"
)

// ErrTicketAlreadyConsumed is returned by a TicketClaimer when the ticket was
// consumed before the claim could be made.
var ErrTicketAlreadyConsumed = errors.New("ticket already consumed")

// Submission is what an attendee types at the gate.
type Submission struct {
	Name       string `json:"name"`
	IDNumber   string `json:"cpf"`
	TicketCode string `json:"ticket,omitempty"`
}

// Verdict is the outcome of one decision. MatchedVip and MatchedTicket are
// mutually exclusive and both nil on denial.
type Verdict struct {
	Admitted      bool                 `json:"admitted"`
	Reason        string               `json:"reason,omitempty"`
	MatchedVip    *models.VipEntry     `json:"matched_vip,omitempty"`
	MatchedTicket *models.TicketCode   `json:"matched_ticket,omitempty"`
	Attempt       models.AccessAttempt `json:"attempt"`
}

func admit() Verdict {
	return Verdict{Admitted: true}
}

func deny(reason string) Verdict {
	return Verdict{Reason: reason}
}

func (v Verdict) Status() string {
	if v.Admitted {
		return models.VerdictAdmit
	}
	return models.VerdictDeny
}
