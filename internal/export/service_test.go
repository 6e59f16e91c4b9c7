package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/domain"
	"github.com/rpattn/schemaflow/internal/orchestrator"
)

type fakeSummaryProvider struct {
	summary orchestrator.ImpactSummary
	err     error
}

func (f *fakeSummaryProvider) SchemaChangeImpactSummary(ctx context.Context, schemaID uuid.UUID) (orchestrator.ImpactSummary, error) {
	if f.err != nil {
		return orchestrator.ImpactSummary{}, f.err
	}
	return f.summary, nil
}

func sampleSummary() orchestrator.ImpactSummary {
	schemaID := uuid.New()
	return orchestrator.ImpactSummary{
		SchemaID:    schemaID,
		WindowStart: time.Now().Add(-30 * 24 * time.Hour),
		TotalEvents: 2,
		ByChangeType: map[domain.ChangeType]int{
			domain.ChangeFieldRenamed: 1,
			domain.ChangeFieldDeleted: 1,
		},
		BySystem: map[domain.SystemCategory]int{
			domain.SystemWorkflows: 3,
		},
		RecentEvents: []domain.SchemaChangeEvent{
			{
				ID:         uuid.New(),
				SchemaID:   schemaID,
				Timestamp:  time.Now(),
				ChangeType: domain.ChangeFieldRenamed,
				OldName:    "Price",
				NewName:    "Unit Price",
				AffectedSystems: []domain.AffectedSystem{
					{System: domain.SystemWorkflows, ItemsAffected: 3},
				},
			},
		},
	}
}

func TestImpactSummaryRequiresSchemaID(t *testing.T) {
	service := NewService(&fakeSummaryProvider{})
	if _, err := service.ImpactSummary(context.Background(), uuid.Nil); err == nil {
		t.Fatal("expected error for nil schema id")
	}
}

func TestBuildImpactWorkbook(t *testing.T) {
	service := NewService(&fakeSummaryProvider{})
	summary := sampleSummary()

	file, err := service.BuildImpactWorkbook(summary)
	if err != nil {
		t.Fatalf("BuildImpactWorkbook failed: %v", err)
	}
	defer func() { _ = file.Close() }()

	sheets := file.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Summary" || sheets[1] != "Recent Events" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	schemaCell, err := file.GetCellValue("Summary", "B1")
	if err != nil {
		t.Fatalf("read schema cell: %v", err)
	}
	if schemaCell != summary.SchemaID.String() {
		t.Errorf("schema id not written: %q", schemaCell)
	}

	eventType, err := file.GetCellValue("Recent Events", "B2")
	if err != nil {
		t.Fatalf("read event cell: %v", err)
	}
	if eventType != string(domain.ChangeFieldRenamed) {
		t.Errorf("event row not written: %q", eventType)
	}

	affected, err := file.GetCellValue("Recent Events", "H2")
	if err != nil {
		t.Fatalf("read affected cell: %v", err)
	}
	if affected != "workflows=3" {
		t.Errorf("affected systems not formatted: %q", affected)
	}
}

func TestImpactReportFileName(t *testing.T) {
	service := NewService(&fakeSummaryProvider{})
	service.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	schemaID := uuid.New()
	name := service.ImpactReportFileName(schemaID)
	if !strings.HasPrefix(name, "impact-report-"+schemaID.String()) {
		t.Errorf("filename missing schema id: %s", name)
	}
	if !strings.HasSuffix(name, "2026-08-01.xlsx") {
		t.Errorf("filename missing date stamp: %s", name)
	}
}

func TestEventFieldLabelPrecedence(t *testing.T) {
	event := domain.SchemaChangeEvent{FieldID: "f1", OldName: "Price", NewName: "Unit Price"}
	if got := eventFieldLabel(event); got != "Unit Price" {
		t.Errorf("new name takes precedence, got %q", got)
	}
	if got := eventFieldLabel(domain.SchemaChangeEvent{FieldID: "f1"}); got != "f1" {
		t.Errorf("falls back to field id, got %q", got)
	}
}
