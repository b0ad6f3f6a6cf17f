// Package access decides whether an attendee is admitted to an event.
//
// Evaluate applies the admission rules to data already in memory and has no
// side effects; it is what the public hint endpoint runs. Engine.Decide is
// the authoritative path: it loads the event's VIP list and tickets, runs
// Evaluate, claims the ticket when one is used and appends the attempt to the
// access log.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"controle-acesso/internal/cpf"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"

	"github.com/google/uuid"
)

// Directory loads an event's VIP list and ticket index.
type Directory interface {
	LoadVipList(ctx context.Context, eventID string) ([]models.VipEntry, error)
	// LoadTicketIndex maps NormalizeTicketCode(code) to the ticket.
	LoadTicketIndex(ctx context.Context, eventID string) (map[string]models.TicketCode, error)
}

// TicketClaimer flips a ticket to consumed. Implementations must be atomic
// with respect to concurrent claims and return ErrTicketAlreadyConsumed when
// the ticket was already taken. at is stored as the consumption time.
type TicketClaimer interface {
	ClaimTicket(ctx context.Context, ticketID string, at time.Time) error
}

// AttemptLog appends to the access log.
type AttemptLog interface {
	AppendAccessAttempt(ctx context.Context, attempt models.AccessAttempt) error
}

// Engine is the authoritative admission path. One Now reading per decision
// stamps the claim and the logged attempt.
type Engine struct {
	Directory Directory
	Claimer   TicketClaimer
	Attempts  AttemptLog
	Logger    *logger.Logger

	Now   func() time.Time
	NewID func() string
}

func NewEngine(dir Directory, claimer TicketClaimer, attempts AttemptLog, log *logger.Logger) *Engine {
	return &Engine{
		Directory: dir,
		Claimer:   claimer,
		Attempts:  attempts,
		Logger:    log,
		Now:       func() time.Time { return time.Now().UTC() },
		NewID:     uuid.NewString,
	}
}

// Decide admits or denies a submission for eventID. Business-rule denials are
// returned as a Verdict with a nil error; malformed input yields a
// *ValidationError and collaborator failures are returned wrapped.
func (e *Engine) Decide(ctx context.Context, eventID string, sub Submission) (Verdict, error) {
	if err := ValidateSubmission(sub); err != nil {
		return Verdict{}, err
	}

	vips, err := e.Directory.LoadVipList(ctx, eventID)
	if err != nil {
		return Verdict{}, fmt.Errorf("load vip list for event %s: %w", eventID, err)
	}
	tickets, err := e.Directory.LoadTicketIndex(ctx, eventID)
	if err != nil {
		return Verdict{}, fmt.Errorf("load tickets for event %s: %w", eventID, err)
	}

	verdict := Evaluate(sub, vips, tickets)
	now := e.Now()

	if verdict.Admitted && verdict.MatchedTicket != nil {
		err := e.Claimer.ClaimTicket(ctx, verdict.MatchedTicket.ID, now)
		switch {
		case err == nil:
			verdict.MatchedTicket.Consumed = true
			verdict.MatchedTicket.ConsumedAt = &now
		case errors.Is(err, ErrTicketAlreadyConsumed):
			e.Logger.Warn("ACCESS", fmt.Sprintf("Lost claim race on ticket %s", verdict.MatchedTicket.ID))
			verdict = deny(ReasonTicketUsed)
		default:
			return Verdict{}, fmt.Errorf("claim ticket %s: %w", verdict.MatchedTicket.ID, err)
		}
	}

	attempt := e.newAttempt(eventID, sub, verdict, now)
	if err := e.Attempts.AppendAccessAttempt(ctx, attempt); err != nil {
		return Verdict{}, fmt.Errorf("append access attempt: %w", err)
	}
	verdict.Attempt = attempt

	e.Logger.LogAccess(eventID, attempt.Verdict, verdict.Reason)
	return verdict, nil
}

func (e *Engine) newAttempt(eventID string, sub Submission, v Verdict, at time.Time) models.AccessAttempt {
	attempt := models.AccessAttempt{
		ID:            e.NewID(),
		EventID:       eventID,
		SubmittedName: strings.TrimSpace(sub.Name),
		SubmittedID:   cpf.Digits(sub.IDNumber),
		Timestamp:     at,
		Verdict:       v.Status(),
	}
	switch {
	case !v.Admitted:
		reason := v.Reason
		attempt.DenyReason = &reason
	case v.MatchedVip != nil:
		id := v.MatchedVip.ID
		attempt.MatchedVipID = &id
	case v.MatchedTicket != nil:
		id := v.MatchedTicket.ID
		attempt.MatchedTicketID = &id
	}
	return attempt
}

// Evaluate applies the admission rules in order, first match wins:
//
//  1. checksum failure denies
//  2. a VIP name match admits
//  3. no ticket code denies
//  4. an unknown or consumed ticket denies
//  5. an available ticket admits
//
// A rule 5 admission returns the matched ticket without claiming it.
func Evaluate(sub Submission, vips []models.VipEntry, tickets map[string]models.TicketCode) Verdict {
	if !cpf.Validate(sub.IDNumber) {
		return deny(ReasonInvalidID)
	}

	if vip := MatchVip(sub.Name, vips); vip != nil {
		v := admit()
		v.MatchedVip = vip
		return v
	}

	code := NormalizeTicketCode(sub.TicketCode)
	if code == "" {
		return deny(ReasonTicketRequired)
	}

	ticket, ok := tickets[code]
	if !ok {
		return deny(ReasonTicketNotFound)
	}
	if ticket.Consumed {
		return deny(ReasonTicketUsed)
	}

	v := admit()
	v.MatchedTicket = &ticket
	return v
}

// MatchVip returns the first entry whose normalised full name equals the
// normalised name, or nil.
func MatchVip(name string, vips []models.VipEntry) *models.VipEntry {
	want := NormalizeName(name)
	if want == "" {
		return nil
	}
	for i := range vips {
		if NormalizeName(vips[i].FullName) == want {
			vip := vips[i]
			return &vip
		}
	}
	return nil
}
