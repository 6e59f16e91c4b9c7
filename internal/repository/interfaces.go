package repository

import (
	"context"
	"time"

	"github.com/rpattn/schemaflow/internal/domain"

	"github.com/google/uuid"
)

// SchemaRepository stores schema snapshots.
type SchemaRepository interface {
	Create(ctx context.Context, schema domain.Schema) (domain.Schema, error)
	GetSchema(ctx context.Context, organizationID, schemaID uuid.UUID) (domain.Schema, error)
	Update(ctx context.Context, schema domain.Schema) (domain.Schema, error)
	List(ctx context.Context, organizationID uuid.UUID) ([]domain.Schema, error)
}

// SchemaChangeEventRepository defines the durable schema-change log.
type SchemaChangeEventRepository interface {
	Append(ctx context.Context, event domain.SchemaChangeEvent) error
	ListUnprocessed(ctx context.Context, organizationID uuid.UUID, schemaID *uuid.UUID) ([]domain.SchemaChangeEvent, error)
	// MarkProcessed performs an atomic compare-and-set of processed
	// false -> true. Already-processed events are left untouched.
	MarkProcessed(ctx context.Context, organizationID, eventID uuid.UUID) error
	ListBySchemaSince(ctx context.Context, schemaID uuid.UUID, since time.Time) ([]domain.SchemaChangeEvent, error)
	// ListUnprocessedOrganizations returns the organizations that currently
	// have unprocessed events, for the background sweep to iterate.
	ListUnprocessedOrganizations(ctx context.Context) ([]uuid.UUID, error)
}

// WorkflowRepository defines the interface for stored automation lookups.
type WorkflowRepository interface {
	Create(ctx context.Context, workflow domain.Workflow) (domain.Workflow, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Workflow, error)
	ListActiveBySchema(ctx context.Context, organizationID, schemaID uuid.UUID) ([]domain.Workflow, error)
}

// ConversionApprovalRepository stores pending-approval records for unsafe
// field type conversions.
type ConversionApprovalRepository interface {
	CreateConversionApproval(ctx context.Context, approval domain.ConversionApproval) (domain.ConversionApproval, error)
	ListPending(ctx context.Context, organizationID uuid.UUID) ([]domain.ConversionApproval, error)
}
