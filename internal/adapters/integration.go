package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/domain"
)

// IntegrationMappingStatus represents lifecycle status of an external mapping
type IntegrationMappingStatus string

const (
	IntegrationMappingActive      IntegrationMappingStatus = "active"
	IntegrationMappingNeedsReview IntegrationMappingStatus = "needs_review"
	IntegrationMappingBroken      IntegrationMappingStatus = "broken"
)

// IntegrationMapping links a third-party system's field to a schema field key.
type IntegrationMapping struct {
	ID           uuid.UUID                `json:"id"`
	SchemaID     uuid.UUID                `json:"schema_id"`
	Provider     string                   `json:"provider"`
	ExternalPath string                   `json:"external_path"`
	FieldKey     string                   `json:"field_key"`
	Status       IntegrationMappingStatus `json:"status"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// IntegrationMappingStore persists third-party field mappings.
type IntegrationMappingStore interface {
	ListBySchema(ctx context.Context, organizationID, schemaID uuid.UUID) ([]IntegrationMapping, error)
	Update(ctx context.Context, mapping IntegrationMapping) error
}

// IntegrationMappingManager reacts to schema changes on behalf of external
// integrations. Mappings are never rewritten automatically: external systems
// own their side of the contract, so affected mappings are flagged for human
// review instead.
type IntegrationMappingManager struct {
	store  IntegrationMappingStore
	logger *logrus.Logger
}

// NewIntegrationMappingManager wires an integration mapping manager.
func NewIntegrationMappingManager(store IntegrationMappingStore, logger *logrus.Logger) *IntegrationMappingManager {
	return &IntegrationMappingManager{store: store, logger: logger}
}

func (a *IntegrationMappingManager) Name() string {
	return string(domain.SystemIntegrations)
}

// Measure counts the external mappings bound to the changed field.
func (a *IntegrationMappingManager) Measure(ctx context.Context, event domain.SchemaChangeEvent) (int, error) {
	mappings, err := a.store.ListBySchema(ctx, event.OrganizationID, event.SchemaID)
	if err != nil {
		return 0, fmt.Errorf("list integration mappings: %w", err)
	}
	affected := 0
	for _, mapping := range mappings {
		if event.OldKey != "" && mapping.FieldKey == event.OldKey {
			affected++
		}
	}
	return affected, nil
}

// Adapt marks affected mappings as needing review, or broken when the field
// was deleted outright.
func (a *IntegrationMappingManager) Adapt(ctx context.Context, event domain.SchemaChangeEvent) error {
	if event.OldKey == "" {
		return nil
	}

	var status IntegrationMappingStatus
	switch event.ChangeType {
	case domain.ChangeFieldDeleted:
		status = IntegrationMappingBroken
	case domain.ChangeFieldKeyChanged, domain.ChangeFieldRenamed, domain.ChangeFieldTypeChanged:
		status = IntegrationMappingNeedsReview
	default:
		return nil
	}

	mappings, err := a.store.ListBySchema(ctx, event.OrganizationID, event.SchemaID)
	if err != nil {
		return fmt.Errorf("list integration mappings: %w", err)
	}

	flagged := 0
	for _, mapping := range mappings {
		if mapping.FieldKey != event.OldKey || mapping.Status == status {
			continue
		}
		mapping.Status = status
		mapping.UpdatedAt = time.Now()
		if err := a.store.Update(ctx, mapping); err != nil {
			return fmt.Errorf("update integration mapping %s: %w", mapping.ID, err)
		}
		flagged++
	}

	if flagged > 0 {
		a.logger.WithFields(logrus.Fields{
			"event_id":  event.ID,
			"schema_id": event.SchemaID,
		}).Infof("flagged %d integration mapping(s) as %s", flagged, status)
	}
	return nil
}
