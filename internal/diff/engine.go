package diff

import (
	"fmt"

	"github.com/rpattn/schemaflow/internal/domain"
	"github.com/rpattn/schemaflow/internal/schema/validator"
)

// Engine compares two snapshots of the same schema and emits one atomic
// change event per changed axis. Fields are joined by immutable identity, not
// key, so a coincidental delete plus add-with-same-key pair is never misread
// as a rename.
type Engine struct{}

// NewEngine constructs a schema diff engine.
func NewEngine() *Engine {
	return &Engine{}
}

// DetectChanges diffs two snapshots of one schema. A field edited on several
// axes in one diff yields one sibling event per axis, never a composite
// event. Diffing a schema against an identical copy yields no events.
func (e *Engine) DetectChanges(old, updated domain.Schema) ([]domain.SchemaChangeEvent, error) {
	if old.ID != updated.ID {
		return nil, fmt.Errorf("cannot diff snapshots of different schemas: %s vs %s", old.ID, updated.ID)
	}
	if err := validator.ValidateFields(old.Fields); err != nil {
		return nil, fmt.Errorf("old snapshot invalid: %w", err)
	}
	if err := validator.ValidateFields(updated.Fields); err != nil {
		return nil, fmt.Errorf("new snapshot invalid: %w", err)
	}

	events := []domain.SchemaChangeEvent{}

	if old.Name != updated.Name {
		event := domain.NewSchemaChangeEvent(updated, domain.ChangeSchemaRenamed)
		event.OldName = old.Name
		event.NewName = updated.Name
		event.AffectedSystems = PredictImpact(domain.ChangeSchemaRenamed)
		events = append(events, event)
	}

	updatedByID := make(map[string]domain.SchemaField, len(updated.Fields))
	for _, field := range updated.Fields {
		updatedByID[field.ID] = field
	}
	oldByID := make(map[string]domain.SchemaField, len(old.Fields))
	for _, field := range old.Fields {
		oldByID[field.ID] = field
	}

	for _, oldField := range old.Fields {
		newField, exists := updatedByID[oldField.ID]
		if !exists {
			event := domain.NewSchemaChangeEvent(updated, domain.ChangeFieldDeleted)
			event.FieldID = oldField.ID
			event.OldName = oldField.Label
			event.OldKey = oldField.Key
			event.OldType = oldField.Type
			event.AffectedSystems = PredictImpact(domain.ChangeFieldDeleted)
			events = append(events, event)
			continue
		}

		// Label, key and type are compared independently; a key change is a
		// separate event from a label rename because key changes are strictly
		// more severe even without a label change.
		if oldField.Label != newField.Label {
			event := domain.NewSchemaChangeEvent(updated, domain.ChangeFieldRenamed)
			event.FieldID = oldField.ID
			event.OldName = oldField.Label
			event.NewName = newField.Label
			event.AffectedSystems = PredictImpact(domain.ChangeFieldRenamed)
			events = append(events, event)
		}
		if oldField.Key != newField.Key {
			event := domain.NewSchemaChangeEvent(updated, domain.ChangeFieldKeyChanged)
			event.FieldID = oldField.ID
			event.OldKey = oldField.Key
			event.NewKey = newField.Key
			event.AffectedSystems = PredictImpact(domain.ChangeFieldKeyChanged)
			events = append(events, event)
		}
		if oldField.Type != newField.Type {
			event := domain.NewSchemaChangeEvent(updated, domain.ChangeFieldTypeChanged)
			event.FieldID = oldField.ID
			event.OldKey = oldField.Key
			event.NewKey = newField.Key
			event.OldType = oldField.Type
			event.NewType = newField.Type
			event.AffectedSystems = PredictImpact(domain.ChangeFieldTypeChanged)
			events = append(events, event)
		}
	}

	for _, newField := range updated.Fields {
		if _, exists := oldByID[newField.ID]; exists {
			continue
		}
		event := domain.NewSchemaChangeEvent(updated, domain.ChangeFieldAdded)
		event.FieldID = newField.ID
		event.NewName = newField.Label
		event.NewKey = newField.Key
		event.NewType = newField.Type
		event.AffectedSystems = PredictImpact(domain.ChangeFieldAdded)
		events = append(events, event)
	}

	return events, nil
}
