package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"controle-acesso/internal/access"
	"controle-acesso/internal/access/db"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNoActiveEvent = errors.New("no event is open for access control")
)

type EventStore interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	CurrentEvent(ctx context.Context, now time.Time) (*models.Event, error)
}

type Decider interface {
	Decide(ctx context.Context, eventID string, sub access.Submission) (access.Verdict, error)
}

// AccessService is what the public endpoints call. It resolves which event a
// submission is for and hands it to the engine.
type AccessService struct {
	Events    EventStore
	Engine    Decider
	Directory access.Directory
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewAccessService(events EventStore, engine Decider, dir access.Directory, log *logger.Logger) *AccessService {
	return &AccessService{
		Events:    events,
		Engine:    engine,
		Directory: dir,
		Logger:    log,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// ResolveEvent returns the named event, or the current one when eventID is
// empty.
func (s *AccessService) ResolveEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if eventID != "" {
		event, err := s.Events.GetEvent(ctx, eventID)
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get event %s: %w", eventID, err)
		}
		return event, nil
	}

	event, err := s.Events.CurrentEvent(ctx, s.Now())
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoActiveEvent
	}
	if err != nil {
		return nil, fmt.Errorf("resolve current event: %w", err)
	}
	return event, nil
}

// Submit runs the authoritative decision for a gate submission.
func (s *AccessService) Submit(ctx context.Context, eventID string, sub access.Submission) (access.Verdict, error) {
	event, err := s.ResolveEvent(ctx, eventID)
	if err != nil {
		return access.Verdict{}, err
	}
	return s.Engine.Decide(ctx, event.ID, sub)
}

// Preview evaluates the rules against current data without claiming a ticket
// or writing to the access log.
func (s *AccessService) Preview(ctx context.Context, eventID string, sub access.Submission) (access.Verdict, error) {
	if err := access.ValidateSubmission(sub); err != nil {
		return access.Verdict{}, err
	}

	event, err := s.ResolveEvent(ctx, eventID)
	if err != nil {
		return access.Verdict{}, err
	}

	vips, err := s.Directory.LoadVipList(ctx, event.ID)
	if err != nil {
		return access.Verdict{}, fmt.Errorf("load vip list for event %s: %w", event.ID, err)
	}
	tickets, err := s.Directory.LoadTicketIndex(ctx, event.ID)
	if err != nil {
		return access.Verdict{}, fmt.Errorf("load tickets for event %s: %w", event.ID, err)
	}

	return access.Evaluate(sub, vips, tickets), nil
}
