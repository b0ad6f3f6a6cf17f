package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"controle-acesso/internal/access"
	"controle-acesso/internal/access/db"
	"controle-acesso/internal/access/service"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventStore) CurrentEvent(ctx context.Context, now time.Time) (*models.Event, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

type MockDecider struct {
	mock.Mock
}

func (m *MockDecider) Decide(ctx context.Context, eventID string, sub access.Submission) (access.Verdict, error) {
	args := m.Called(ctx, eventID, sub)
	return args.Get(0).(access.Verdict), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) LoadVipList(ctx context.Context, eventID string) ([]models.VipEntry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VipEntry), args.Error(1)
}

func (m *MockDirectory) LoadTicketIndex(ctx context.Context, eventID string) (map[string]models.TicketCode, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.TicketCode), args.Error(1)
}

var (
	ctx   = context.Background()
	now   = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	event = &models.Event{ID: "ev-1", Name: "Festival"}
	sub   = access.Submission{Name: "Maria Silva", IDNumber: "123.456.789-09", TicketCode: "ing123festival"}
)

func newService(events *MockEventStore, decider *MockDecider, dir *MockDirectory) *service.AccessService {
	s := service.NewAccessService(events, decider, dir, logger.NewNopLogger())
	s.Now = func() time.Time { return now }
	return s
}

func TestSubmit_DefaultsToCurrentEvent(t *testing.T) {
	events := new(MockEventStore)
	decider := new(MockDecider)
	events.On("CurrentEvent", ctx, now).Return(event, nil)
	decider.On("Decide", ctx, "ev-1", sub).Return(access.Verdict{Admitted: true}, nil)

	verdict, err := newService(events, decider, nil).Submit(ctx, "", sub)

	require.NoError(t, err)
	assert.True(t, verdict.Admitted)
	events.AssertExpectations(t)
	decider.AssertExpectations(t)
}

func TestSubmit_ExplicitEvent(t *testing.T) {
	events := new(MockEventStore)
	decider := new(MockDecider)
	events.On("GetEvent", ctx, "ev-1").Return(event, nil)
	decider.On("Decide", ctx, "ev-1", sub).Return(access.Verdict{Reason: access.ReasonTicketUsed}, nil)

	verdict, err := newService(events, decider, nil).Submit(ctx, "ev-1", sub)

	require.NoError(t, err)
	assert.False(t, verdict.Admitted)
	events.AssertNotCalled(t, "CurrentEvent", mock.Anything, mock.Anything)
}

func TestResolveEvent_Errors(t *testing.T) {
	boom := errors.New("db down")

	tests := []struct {
		name    string
		eventID string
		setup   func(m *MockEventStore)
		want    error
	}{
		{
			name:    "unknown event",
			eventID: "nope",
			setup:   func(m *MockEventStore) { m.On("GetEvent", ctx, "nope").Return(nil, db.ErrNotFound) },
			want:    service.ErrEventNotFound,
		},
		{
			name:  "no events at all",
			setup: func(m *MockEventStore) { m.On("CurrentEvent", ctx, now).Return(nil, db.ErrNotFound) },
			want:  service.ErrNoActiveEvent,
		},
		{
			name:    "store failure",
			eventID: "ev-1",
			setup:   func(m *MockEventStore) { m.On("GetEvent", ctx, "ev-1").Return(nil, boom) },
			want:    boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := new(MockEventStore)
			tt.setup(events)
			decider := new(MockDecider)

			_, err := newService(events, decider, nil).Submit(ctx, tt.eventID, sub)

			assert.ErrorIs(t, err, tt.want)
			decider.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPreview_NoSideEffects(t *testing.T) {
	events := new(MockEventStore)
	dir := new(MockDirectory)
	decider := new(MockDecider)
	events.On("CurrentEvent", ctx, now).Return(event, nil)
	dir.On("LoadVipList", ctx, "ev-1").Return([]models.VipEntry{}, nil)
	dir.On("LoadTicketIndex", ctx, "ev-1").Return(map[string]models.TicketCode{
		"ING123FESTIVAL": {ID: "t1", Code: "ING123FESTIVAL"},
	}, nil)

	verdict, err := newService(events, decider, dir).Preview(ctx, "", sub)

	require.NoError(t, err)
	assert.True(t, verdict.Admitted)
	require.NotNil(t, verdict.MatchedTicket)
	assert.False(t, verdict.MatchedTicket.Consumed)
	decider.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything, mock.Anything)
}

func TestPreview_ValidatesFirst(t *testing.T) {
	events := new(MockEventStore)

	_, err := newService(events, nil, nil).Preview(ctx, "", access.Submission{Name: "M", IDNumber: "123"})

	assert.True(t, access.IsValidationError(err))
	events.AssertNotCalled(t, "CurrentEvent", mock.Anything, mock.Anything)
}
