package analytics

import (
	"context"
	"errors"
	"time"

	"controle-acesso/internal/models"

	"github.com/uptrace/bun"
)

var ErrEventNotFound = errors.New("event not found")

// HourLayout labels the hourly buckets, always in UTC.
const HourLayout = "2006-01-02T15:00Z"

// Service handles analytics operations
type Service struct {
	db *bun.DB
}

// NewService creates a new analytics service
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// EventAnalytics represents the access picture of one event
type EventAnalytics struct {
	EventID       string              `json:"event_id"`
	Totals        VerdictTotals       `json:"totals"`
	HourlyAccess  []HourlyMetrics     `json:"hourly_access"`
	DenyReasons   []ReasonCount       `json:"deny_reasons"`
	TicketsByType []TicketTypeMetrics `json:"tickets_by_type"`
}

// VerdictTotals splits admissions by the rule that admitted them
type VerdictTotals struct {
	Attempts     int `json:"attempts"`
	Admitted     int `json:"admitted"`
	Denied       int `json:"denied"`
	VipAdmits    int `json:"vip_admits"`
	TicketAdmits int `json:"ticket_admits"`
}

// HourlyMetrics counts the attempts made within one clock hour
type HourlyMetrics struct {
	Hour     string `json:"hour"`
	Admitted int    `json:"admitted"`
	Denied   int    `json:"denied"`
}

type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// TicketTypeMetrics tracks how many codes of a category were used
type TicketTypeMetrics struct {
	Type     models.TicketType `json:"type"`
	Issued   int               `json:"issued"`
	Consumed int               `json:"consumed"`
}

// GetEventAnalytics returns access analytics for a specific event
func (s *Service) GetEventAnalytics(ctx context.Context, eventID string) (*EventAnalytics, error) {
	exists, err := s.db.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrEventNotFound
	}

	ids := []string{eventID}
	totals, err := s.verdictTotals(ctx, ids)
	if err != nil {
		return nil, err
	}
	hourly, err := s.hourlyAccess(ctx, ids)
	if err != nil {
		return nil, err
	}
	reasons, err := s.denyReasons(ctx, ids)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ticketsByType(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &EventAnalytics{
		EventID:       eventID,
		Totals:        totals,
		HourlyAccess:  hourly,
		DenyReasons:   reasons,
		TicketsByType: tickets,
	}, nil
}

func (s *Service) verdictTotals(ctx context.Context, eventIDs []string) (VerdictTotals, error) {
	var rows []struct {
		Verdict      string `bun:"verdict"`
		Attempts     int    `bun:"attempts"`
		VipAdmits    int    `bun:"vip_admits"`
		TicketAdmits int    `bun:"ticket_admits"`
	}
	rawSQL := `
		SELECT
			verdict,
			COUNT(*) AS attempts,
			COUNT(matched_vip_id) AS vip_admits,
			COUNT(matched_ticket_id) AS ticket_admits
		FROM
			access_attempts
		WHERE
			event_id IN (?)
		GROUP BY
			verdict
	`
	if err := s.db.NewRaw(rawSQL, bun.In(eventIDs)).Scan(ctx, &rows); err != nil {
		return VerdictTotals{}, err
	}

	var totals VerdictTotals
	for _, row := range rows {
		totals.Attempts += row.Attempts
		if row.Verdict == models.VerdictAdmit {
			totals.Admitted += row.Attempts
			totals.VipAdmits += row.VipAdmits
			totals.TicketAdmits += row.TicketAdmits
		} else {
			totals.Denied += row.Attempts
		}
	}
	return totals, nil
}

// hourlyAccess buckets in Go since sqlite and postgres disagree on date
// truncation functions.
func (s *Service) hourlyAccess(ctx context.Context, eventIDs []string) ([]HourlyMetrics, error) {
	var rows []struct {
		AttemptedAt time.Time `bun:"attempted_at"`
		Verdict     string    `bun:"verdict"`
	}
	err := s.db.NewSelect().
		Model((*models.AccessAttempt)(nil)).
		Column("attempted_at", "verdict").
		Where("event_id IN (?)", bun.In(eventIDs)).
		Order("attempted_at ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	hourly := []HourlyMetrics{}
	for _, row := range rows {
		hour := row.AttemptedAt.UTC().Truncate(time.Hour).Format(HourLayout)
		if n := len(hourly); n == 0 || hourly[n-1].Hour != hour {
			hourly = append(hourly, HourlyMetrics{Hour: hour})
		}
		bucket := &hourly[len(hourly)-1]
		if row.Verdict == models.VerdictAdmit {
			bucket.Admitted++
		} else {
			bucket.Denied++
		}
	}
	return hourly, nil
}

func (s *Service) denyReasons(ctx context.Context, eventIDs []string) ([]ReasonCount, error) {
	reasons := []ReasonCount{}
	rawSQL := `
		SELECT
			COALESCE(deny_reason, '') AS reason,
			COUNT(*) AS count
		FROM
			access_attempts
		WHERE
			event_id IN (?) AND verdict = ?
		GROUP BY
			deny_reason
		ORDER BY
			count DESC, reason
	`
	if err := s.db.NewRaw(rawSQL, bun.In(eventIDs), models.VerdictDeny).Scan(ctx, &reasons); err != nil {
		return nil, err
	}
	return reasons, nil
}

func (s *Service) ticketsByType(ctx context.Context, eventIDs []string) ([]TicketTypeMetrics, error) {
	tickets := []TicketTypeMetrics{}
	rawSQL := `
		SELECT
			type,
			COUNT(*) AS issued,
			SUM(CASE WHEN consumed THEN 1 ELSE 0 END) AS consumed
		FROM
			ticket_codes
		WHERE
			event_id IN (?)
		GROUP BY
			type
		ORDER BY
			type
	`
	if err := s.db.NewRaw(rawSQL, bun.In(eventIDs)).Scan(ctx, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}
