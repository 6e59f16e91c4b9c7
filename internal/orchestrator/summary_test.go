package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/domain"
)

func TestSchemaChangeImpactSummary(t *testing.T) {
	schemaID := uuid.New()
	now := time.Now()

	events := []domain.SchemaChangeEvent{}
	for i := 0; i < 12; i++ {
		event := domain.SchemaChangeEvent{
			ID:         uuid.New(),
			SchemaID:   schemaID,
			Timestamp:  now.Add(-time.Duration(i) * time.Hour),
			ChangeType: domain.ChangeFieldRenamed,
			AffectedSystems: []domain.AffectedSystem{
				{System: domain.SystemWorkflows, ItemsAffected: 2},
			},
		}
		events = append(events, event)
	}
	deletion := domain.SchemaChangeEvent{
		ID:         uuid.New(),
		SchemaID:   schemaID,
		Timestamp:  now.Add(-13 * time.Hour),
		ChangeType: domain.ChangeFieldDeleted,
		AffectedSystems: []domain.AffectedSystem{
			{System: domain.SystemWorkflows, ItemsAffected: 1},
			{System: domain.SystemIntegrations, ItemsAffected: 4},
		},
	}
	events = append(events, deletion)

	store := &fakeEventStore{backlog: events}
	orch := New(store, &fakeSink{}, nil, nil, quietLogger())

	summary, err := orch.SchemaChangeImpactSummary(context.Background(), schemaID)
	if err != nil {
		t.Fatalf("SchemaChangeImpactSummary failed: %v", err)
	}

	if summary.TotalEvents != 13 {
		t.Errorf("expected 13 total events, got %d", summary.TotalEvents)
	}
	if summary.ByChangeType[domain.ChangeFieldRenamed] != 12 {
		t.Errorf("wrong rename count: %d", summary.ByChangeType[domain.ChangeFieldRenamed])
	}
	if summary.ByChangeType[domain.ChangeFieldDeleted] != 1 {
		t.Errorf("wrong deletion count: %d", summary.ByChangeType[domain.ChangeFieldDeleted])
	}
	if summary.BySystem[domain.SystemWorkflows] != 25 {
		t.Errorf("workflows items should sum to 25, got %d", summary.BySystem[domain.SystemWorkflows])
	}
	if summary.BySystem[domain.SystemIntegrations] != 4 {
		t.Errorf("integrations items should sum to 4, got %d", summary.BySystem[domain.SystemIntegrations])
	}

	if len(summary.RecentEvents) != 10 {
		t.Fatalf("recent events capped at 10, got %d", len(summary.RecentEvents))
	}
	for i := 1; i < len(summary.RecentEvents); i++ {
		if summary.RecentEvents[i].Timestamp.After(summary.RecentEvents[i-1].Timestamp) {
			t.Fatal("recent events not sorted newest first")
		}
	}
}

func TestSchemaChangeImpactSummaryEmpty(t *testing.T) {
	orch := New(&fakeEventStore{}, &fakeSink{}, nil, nil, quietLogger())

	summary, err := orch.SchemaChangeImpactSummary(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SchemaChangeImpactSummary failed: %v", err)
	}
	if summary.TotalEvents != 0 || len(summary.RecentEvents) != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}
