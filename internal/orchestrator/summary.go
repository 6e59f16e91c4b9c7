package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/domain"
)

// ImpactWindow is the trailing window the impact summary aggregates over.
const ImpactWindow = 30 * 24 * time.Hour

// maxRecentEvents bounds the recent-event list in a summary.
const maxRecentEvents = 10

// ImpactSummary is a read-only report over one schema's recent change
// history.
type ImpactSummary struct {
	SchemaID     uuid.UUID                     `json:"schema_id"`
	WindowStart  time.Time                     `json:"window_start"`
	TotalEvents  int                           `json:"total_events"`
	ByChangeType map[domain.ChangeType]int     `json:"by_change_type"`
	BySystem     map[domain.SystemCategory]int `json:"by_system"`
	RecentEvents []domain.SchemaChangeEvent    `json:"recent_events"`
}

// SchemaChangeImpactSummary aggregates the trailing window of events for one
// schema: counts by change type, affected-item counts summed per consumer
// category, and the ten most recent events newest first.
func (o *Orchestrator) SchemaChangeImpactSummary(ctx context.Context, schemaID uuid.UUID) (ImpactSummary, error) {
	windowStart := time.Now().Add(-ImpactWindow)
	events, err := o.events.ListBySchemaSince(ctx, schemaID, windowStart)
	if err != nil {
		return ImpactSummary{}, fmt.Errorf("list events for schema %s: %w", schemaID, err)
	}

	summary := ImpactSummary{
		SchemaID:     schemaID,
		WindowStart:  windowStart,
		TotalEvents:  len(events),
		ByChangeType: map[domain.ChangeType]int{},
		BySystem:     map[domain.SystemCategory]int{},
	}

	for _, event := range events {
		summary.ByChangeType[event.ChangeType]++
		for _, affected := range event.AffectedSystems {
			summary.BySystem[affected.System] += affected.ItemsAffected
		}
	}

	sorted := append([]domain.SchemaChangeEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > maxRecentEvents {
		sorted = sorted[:maxRecentEvents]
	}
	summary.RecentEvents = sorted

	return summary, nil
}
