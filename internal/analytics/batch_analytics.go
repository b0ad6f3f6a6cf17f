package analytics

import (
	"context"
)

// BatchEventAnalytics aggregates several events into one picture
type BatchEventAnalytics struct {
	EventIDs      []string            `json:"event_ids"`
	Totals        VerdictTotals       `json:"totals"`
	HourlyAccess  []HourlyMetrics     `json:"hourly_access"`
	DenyReasons   []ReasonCount       `json:"deny_reasons"`
	TicketsByType []TicketTypeMetrics `json:"tickets_by_type"`
}

// GetBatchEventAnalytics returns aggregated analytics data for multiple
// events. Unknown IDs simply contribute nothing.
func (s *Service) GetBatchEventAnalytics(ctx context.Context, eventIDs []string) (*BatchEventAnalytics, error) {
	if len(eventIDs) == 0 {
		return &BatchEventAnalytics{
			EventIDs:      []string{},
			HourlyAccess:  []HourlyMetrics{},
			DenyReasons:   []ReasonCount{},
			TicketsByType: []TicketTypeMetrics{},
		}, nil
	}

	totals, err := s.verdictTotals(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	hourly, err := s.hourlyAccess(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	reasons, err := s.denyReasons(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ticketsByType(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	return &BatchEventAnalytics{
		EventIDs:      eventIDs,
		Totals:        totals,
		HourlyAccess:  hourly,
		DenyReasons:   reasons,
		TicketsByType: tickets,
	}, nil
}
