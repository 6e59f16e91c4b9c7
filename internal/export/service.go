package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/schemaflow/internal/domain"
	"github.com/rpattn/schemaflow/internal/orchestrator"
)

// SummaryProvider produces impact summaries for a schema.
type SummaryProvider interface {
	SchemaChangeImpactSummary(ctx context.Context, schemaID uuid.UUID) (orchestrator.ImpactSummary, error)
}

// Service builds downloadable impact reports from the change event log.
type Service struct {
	summaries SummaryProvider
	now       func() time.Time
}

func NewService(summaries SummaryProvider) *Service {
	return &Service{
		summaries: summaries,
		now:       time.Now,
	}
}

// ImpactSummary returns the aggregated impact summary for a schema.
func (s *Service) ImpactSummary(ctx context.Context, schemaID uuid.UUID) (orchestrator.ImpactSummary, error) {
	if schemaID == uuid.Nil {
		return orchestrator.ImpactSummary{}, errors.New("schema ID is required")
	}
	return s.summaries.SchemaChangeImpactSummary(ctx, schemaID)
}

// BuildImpactWorkbook renders an impact summary as an xlsx workbook with a
// Summary sheet and a Recent Events sheet.
func (s *Service) BuildImpactWorkbook(summary orchestrator.ImpactSummary) (*excelize.File, error) {
	file := excelize.NewFile()

	const summarySheet = "Summary"
	if err := file.SetSheetName(file.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}

	rows := [][]any{
		{"Schema ID", summary.SchemaID.String()},
		{"Window start", summary.WindowStart.UTC().Format(time.RFC3339)},
		{"Generated at", s.now().UTC().Format(time.RFC3339)},
		{"Total events", summary.TotalEvents},
		{},
		{"Change type", "Events"},
	}
	for _, changeType := range sortedChangeTypes(summary.ByChangeType) {
		rows = append(rows, []any{string(changeType), summary.ByChangeType[changeType]})
	}
	rows = append(rows, []any{}, []any{"Consumer system", "Items affected"})
	for _, system := range sortedSystems(summary.BySystem) {
		rows = append(rows, []any{string(system), summary.BySystem[system]})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("resolve summary cell: %w", err)
		}
		if err := file.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}

	const eventsSheet = "Recent Events"
	if _, err := file.NewSheet(eventsSheet); err != nil {
		return nil, fmt.Errorf("create events sheet: %w", err)
	}
	header := []any{"Timestamp", "Change type", "Field", "Old key", "New key", "Old type", "New type", "Affected systems"}
	if err := file.SetSheetRow(eventsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write events header: %w", err)
	}
	for i, event := range summary.RecentEvents {
		row := []any{
			event.Timestamp.UTC().Format(time.RFC3339),
			string(event.ChangeType),
			eventFieldLabel(event),
			event.OldKey,
			event.NewKey,
			string(event.OldType),
			string(event.NewType),
			formatAffectedSystems(event.AffectedSystems),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("resolve events cell: %w", err)
		}
		if err := file.SetSheetRow(eventsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write events row: %w", err)
		}
	}

	return file, nil
}

// ImpactReportFileName returns the download filename for a schema's report.
func (s *Service) ImpactReportFileName(schemaID uuid.UUID) string {
	return fmt.Sprintf("impact-report-%s-%s.xlsx", schemaID.String(), s.now().UTC().Format("2006-01-02"))
}

func eventFieldLabel(event domain.SchemaChangeEvent) string {
	if event.NewName != "" {
		return event.NewName
	}
	if event.OldName != "" {
		return event.OldName
	}
	return event.FieldID
}

func formatAffectedSystems(systems []domain.AffectedSystem) string {
	if len(systems) == 0 {
		return ""
	}
	parts := make([]string, 0, len(systems))
	for _, system := range systems {
		parts = append(parts, fmt.Sprintf("%s=%d", system.System, system.ItemsAffected))
	}
	return strings.Join(parts, ", ")
}

func sortedChangeTypes(counts map[domain.ChangeType]int) []domain.ChangeType {
	keys := make([]domain.ChangeType, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedSystems(counts map[domain.SystemCategory]int) []domain.SystemCategory {
	keys := make([]domain.SystemCategory, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
