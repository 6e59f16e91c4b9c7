package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/domain"
)

// EventStore is the durable log of schema change events. Storage technology
// is a collaborator concern; only this contract matters to the orchestrator.
type EventStore interface {
	Append(ctx context.Context, event domain.SchemaChangeEvent) error
	ListUnprocessed(ctx context.Context, organizationID uuid.UUID, schemaID *uuid.UUID) ([]domain.SchemaChangeEvent, error)
	// MarkProcessed flips processed false -> true atomically. Marking an
	// already-processed event is a no-op, which keeps reprocessing idempotent.
	MarkProcessed(ctx context.Context, organizationID, eventID uuid.UUID) error
	ListBySchemaSince(ctx context.Context, schemaID uuid.UUID, since time.Time) ([]domain.SchemaChangeEvent, error)
}

// ConversionEngine is the type-conversion collaborator. The orchestrator
// decides when to call it, never how conversion executes.
type ConversionEngine interface {
	IsSafeConversion(oldType, newType domain.FieldType) bool
	ConvertFieldType(ctx context.Context, event domain.SchemaChangeEvent) error
	GenerateConversionPreview(ctx context.Context, organizationID, schemaID uuid.UUID, fieldKey string, oldType, newType domain.FieldType, sampleSize int) (domain.ConversionPreview, error)
	CreateConversionApprovalRequest(ctx context.Context, event domain.SchemaChangeEvent, preview domain.ConversionPreview) (domain.ConversionApproval, error)
}

// Adapter is one downstream consumer's adaptation entry point. The only
// requirements imposed on implementations are independent awaitability and
// side-effect isolation.
type Adapter interface {
	// Name returns the consumer category tag, matching an AffectedSystem.
	Name() string
	Adapt(ctx context.Context, event domain.SchemaChangeEvent) error
}

// Measurer is implemented by adapters that can refine the diff-time impact
// prediction for their category with a real affected-item count.
type Measurer interface {
	Measure(ctx context.Context, event domain.SchemaChangeEvent) (int, error)
}
