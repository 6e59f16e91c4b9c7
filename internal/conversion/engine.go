package conversion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/domain"
	"github.com/rpattn/schemaflow/internal/resolver"
	"github.com/rpattn/schemaflow/internal/severity"
)

// DefaultSampleSize bounds conversion previews when the caller does not ask
// for a specific sample size.
const DefaultSampleSize = 10

// Record is one stored record's values, keyed by field key.
type Record struct {
	ID     uuid.UUID
	Values map[string]any
}

// RecordSource supplies sample records and performs the actual bulk rewrite
// of stored values. The engine decides when to convert; the source owns how
// values are persisted.
type RecordSource interface {
	SampleRecords(ctx context.Context, organizationID, schemaID uuid.UUID, limit int) ([]Record, error)
	RewriteFieldValues(ctx context.Context, organizationID, schemaID uuid.UUID, fieldKey string, convert func(any) (any, error)) (int, error)
}

// ApprovalStore persists pending-approval records for unsafe conversions.
type ApprovalStore interface {
	CreateConversionApproval(ctx context.Context, approval domain.ConversionApproval) (domain.ConversionApproval, error)
}

// Engine implements the type-conversion collaborator: a safe-pair matrix, a
// sampled dry run, and approval request creation.
type Engine struct {
	records   RecordSource
	approvals ApprovalStore
	logger    *logrus.Logger
}

// NewEngine wires a conversion engine.
func NewEngine(records RecordSource, approvals ApprovalStore, logger *logrus.Logger) *Engine {
	return &Engine{records: records, approvals: approvals, logger: logger}
}

// IsSafeConversion reports whether values convert between the two types
// without risk of failure on existing data.
func (e *Engine) IsSafeConversion(oldType, newType domain.FieldType) bool {
	if oldType == newType {
		return true
	}
	return resolver.TypesCompatible(oldType, newType) && !severity.IsRiskyTypeChange(oldType, newType)
}

// GenerateConversionPreview dry-runs the conversion over a sample of stored
// records without writing anything.
func (e *Engine) GenerateConversionPreview(ctx context.Context, organizationID, schemaID uuid.UUID, fieldKey string, oldType, newType domain.FieldType, sampleSize int) (domain.ConversionPreview, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	records, err := e.records.SampleRecords(ctx, organizationID, schemaID, sampleSize)
	if err != nil {
		return domain.ConversionPreview{}, fmt.Errorf("sample records for schema %s: %w", schemaID, err)
	}

	preview := domain.ConversionPreview{
		SchemaID:    schemaID,
		FieldKey:    fieldKey,
		OldType:     oldType,
		NewType:     newType,
		SampleSize:  len(records),
		GeneratedAt: time.Now(),
	}

	for _, record := range records {
		before, ok := resolver.GetFieldValue(record.Values, fieldKey)
		if !ok {
			continue
		}
		sample := domain.ConversionSample{RecordID: record.ID, Before: before}
		after, convErr := CoerceValue(before, newType)
		if convErr != nil {
			sample.Error = convErr.Error()
			preview.FailedCount++
		} else {
			sample.After = after
		}
		preview.Samples = append(preview.Samples, sample)
	}

	return preview, nil
}

// ConvertFieldType performs the bulk rewrite for a safe conversion. Repeating
// the call is safe: coercing an already-converted value is a no-op.
func (e *Engine) ConvertFieldType(ctx context.Context, event domain.SchemaChangeEvent) error {
	fieldKey := event.NewKey
	if fieldKey == "" {
		fieldKey = event.OldKey
	}
	if fieldKey == "" {
		return fmt.Errorf("event %s carries no field key to convert", event.ID)
	}

	converted, err := e.records.RewriteFieldValues(ctx, event.OrganizationID, event.SchemaID, fieldKey, func(value any) (any, error) {
		return CoerceValue(value, event.NewType)
	})
	if err != nil {
		return fmt.Errorf("rewrite %q values on schema %s: %w", fieldKey, event.SchemaID, err)
	}

	e.logger.WithFields(logrus.Fields{
		"event_id":  event.ID,
		"schema_id": event.SchemaID,
	}).Infof("converted %d value(s) of %q from %s to %s", converted, fieldKey, event.OldType, event.NewType)
	return nil
}

// CreateConversionApprovalRequest persists a pending-approval record carrying
// the preview, instead of converting.
func (e *Engine) CreateConversionApprovalRequest(ctx context.Context, event domain.SchemaChangeEvent, preview domain.ConversionPreview) (domain.ConversionApproval, error) {
	approval := domain.ConversionApproval{
		ID:             uuid.New(),
		OrganizationID: event.OrganizationID,
		SchemaID:       event.SchemaID,
		EventID:        event.ID,
		FieldKey:       preview.FieldKey,
		OldType:        event.OldType,
		NewType:        event.NewType,
		Preview:        preview,
		Status:         domain.ConversionApprovalPending,
		CreatedAt:      time.Now(),
	}

	created, err := e.approvals.CreateConversionApproval(ctx, approval)
	if err != nil {
		return domain.ConversionApproval{}, fmt.Errorf("create conversion approval for event %s: %w", event.ID, err)
	}
	return created, nil
}
