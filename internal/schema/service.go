package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/diff"
	"github.com/rpattn/schemaflow/internal/domain"
	"github.com/rpattn/schemaflow/internal/orchestrator"
	"github.com/rpattn/schemaflow/internal/repository"
	"github.com/rpattn/schemaflow/internal/resolver"
	"github.com/rpattn/schemaflow/internal/schema/validator"
)

// Service owns the schema update flow: validate, diff against the stored
// snapshot, persist, invalidate resolution caches, and hand the detected
// changes to the orchestrator.
type Service struct {
	schemas      repository.SchemaRepository
	diff         *diff.Engine
	orchestrator *orchestrator.Orchestrator
	resolver     *resolver.Resolver
	logger       *logrus.Logger
}

// NewService wires a schema service.
func NewService(schemas repository.SchemaRepository, diffEngine *diff.Engine, orch *orchestrator.Orchestrator, fieldResolver *resolver.Resolver, logger *logrus.Logger) *Service {
	return &Service{
		schemas:      schemas,
		diff:         diffEngine,
		orchestrator: orch,
		resolver:     fieldResolver,
		logger:       logger,
	}
}

// Create validates and persists a brand new schema. No change events are
// produced: there is no previous snapshot to diff against.
func (s *Service) Create(ctx context.Context, schema domain.Schema) (domain.Schema, error) {
	if err := validator.ValidateFields(schema.Fields); err != nil {
		return domain.Schema{}, fmt.Errorf("invalid schema fields: %w", err)
	}
	return s.schemas.Create(ctx, schema)
}

// Get returns one stored schema snapshot.
func (s *Service) Get(ctx context.Context, organizationID, schemaID uuid.UUID) (domain.Schema, error) {
	return s.schemas.GetSchema(ctx, organizationID, schemaID)
}

// List returns every schema in the organization.
func (s *Service) List(ctx context.Context, organizationID uuid.UUID) ([]domain.Schema, error) {
	return s.schemas.List(ctx, organizationID)
}

// UpdateResult reports what one schema update set in motion.
type UpdateResult struct {
	Schema domain.Schema              `json:"schema"`
	Events []domain.SchemaChangeEvent `json:"events"`
	Sweep  orchestrator.SweepStats    `json:"sweep"`
}

// ApplyUpdate diffs the submitted snapshot against the stored one, persists
// the new snapshot, records the detected change events, and processes them
// immediately. The stored snapshot is only replaced once the diff succeeds.
func (s *Service) ApplyUpdate(ctx context.Context, updated domain.Schema) (UpdateResult, error) {
	old, err := s.schemas.GetSchema(ctx, updated.OrganizationID, updated.ID)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("load schema %s: %w", updated.ID, err)
	}

	events, err := s.diff.DetectChanges(old, updated)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("detect changes on schema %s: %w", updated.ID, err)
	}

	updated.CreatedAt = old.CreatedAt
	updated.UpdatedAt = time.Now()
	persisted, err := s.schemas.Update(ctx, updated)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("persist schema %s: %w", updated.ID, err)
	}

	// Cached resolutions against the old snapshot are stale the moment the
	// new one lands.
	s.resolver.InvalidateSchema(persisted.ID)

	if len(events) == 0 {
		return UpdateResult{Schema: persisted, Events: events}, nil
	}

	if err := s.orchestrator.RecordChanges(ctx, events); err != nil {
		return UpdateResult{}, fmt.Errorf("record changes for schema %s: %w", updated.ID, err)
	}

	schemaID := persisted.ID
	stats, err := s.orchestrator.ProcessUnprocessedEvents(ctx, persisted.OrganizationID, &schemaID)
	if err != nil {
		// Events are durable; the background sweep will pick them up.
		s.logger.WithField("schema_id", persisted.ID).Warnf("immediate processing failed, deferring to sweep: %v", err)
	}

	return UpdateResult{Schema: persisted, Events: events, Sweep: stats}, nil
}
