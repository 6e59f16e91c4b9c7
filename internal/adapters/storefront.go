package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/domain"
)

// ProductMapping links one storefront product attribute set to schema field
// keys.
type ProductMapping struct {
	ID        uuid.UUID         `json:"id"`
	SchemaID  uuid.UUID         `json:"schema_id"`
	ProductID string            `json:"product_id"`
	FieldKeys map[string]string `json:"field_keys"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// StorefrontMappingStore persists product field mappings.
type StorefrontMappingStore interface {
	ListBySchema(ctx context.Context, organizationID, schemaID uuid.UUID) ([]ProductMapping, error)
	Update(ctx context.Context, mapping ProductMapping) error
}

// StorefrontAdapter rewrites storefront product mappings after a schema
// change. Key changes are auto-fixable: stored keys are swapped in place.
type StorefrontAdapter struct {
	store  StorefrontMappingStore
	logger *logrus.Logger
}

// NewStorefrontAdapter wires a storefront mapping adapter.
func NewStorefrontAdapter(store StorefrontMappingStore, logger *logrus.Logger) *StorefrontAdapter {
	return &StorefrontAdapter{store: store, logger: logger}
}

func (a *StorefrontAdapter) Name() string {
	return string(domain.SystemStorefront)
}

// Measure counts the product mappings that reference the changed field.
func (a *StorefrontAdapter) Measure(ctx context.Context, event domain.SchemaChangeEvent) (int, error) {
	mappings, err := a.store.ListBySchema(ctx, event.OrganizationID, event.SchemaID)
	if err != nil {
		return 0, fmt.Errorf("list storefront mappings: %w", err)
	}
	affected := 0
	for _, mapping := range mappings {
		if mappingReferencesKey(mapping, event.OldKey) {
			affected++
		}
	}
	return affected, nil
}

// Adapt swaps renamed keys inside stored mappings. Deletions are left alone:
// they require a human decision and are surfaced through the impact report.
func (a *StorefrontAdapter) Adapt(ctx context.Context, event domain.SchemaChangeEvent) error {
	if event.ChangeType != domain.ChangeFieldKeyChanged || event.OldKey == "" || event.NewKey == "" {
		return nil
	}

	mappings, err := a.store.ListBySchema(ctx, event.OrganizationID, event.SchemaID)
	if err != nil {
		return fmt.Errorf("list storefront mappings: %w", err)
	}

	updated := 0
	for _, mapping := range mappings {
		if !mappingReferencesKey(mapping, event.OldKey) {
			continue
		}
		for attr, key := range mapping.FieldKeys {
			if key == event.OldKey {
				mapping.FieldKeys[attr] = event.NewKey
			}
		}
		mapping.UpdatedAt = time.Now()
		if err := a.store.Update(ctx, mapping); err != nil {
			return fmt.Errorf("update storefront mapping %s: %w", mapping.ID, err)
		}
		updated++
	}

	if updated > 0 {
		a.logger.WithFields(logrus.Fields{
			"event_id":  event.ID,
			"schema_id": event.SchemaID,
		}).Infof("rewrote %d storefront mapping(s) from %q to %q", updated, event.OldKey, event.NewKey)
	}
	return nil
}

func mappingReferencesKey(mapping ProductMapping, key string) bool {
	if key == "" {
		return false
	}
	for _, mapped := range mapping.FieldKeys {
		if mapped == key {
			return true
		}
	}
	return false
}
