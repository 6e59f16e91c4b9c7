package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChangeType identifies one atomic kind of schema change
type ChangeType string

const (
	ChangeFieldAdded       ChangeType = "field_added"
	ChangeFieldDeleted     ChangeType = "field_deleted"
	ChangeFieldRenamed     ChangeType = "field_renamed"
	ChangeFieldKeyChanged  ChangeType = "field_key_changed"
	ChangeFieldTypeChanged ChangeType = "field_type_changed"
	ChangeSchemaRenamed    ChangeType = "schema_renamed"
)

// SystemCategory tags one downstream consumer category
type SystemCategory string

const (
	SystemWorkflows    SystemCategory = "workflows"
	SystemIntegrations SystemCategory = "integrations"
	SystemStorefront   SystemCategory = "storefront"
	SystemForms        SystemCategory = "forms"
	SystemKnowledge    SystemCategory = "knowledge"
	SystemAPIConsumers SystemCategory = "api_consumers"
)

// AffectedSystem describes the predicted or measured impact of one change on
// one consumer category. ItemsAffected is a category-level prediction at diff
// time and is refined later by that category's own validator.
type AffectedSystem struct {
	System             SystemCategory `json:"system"`
	ItemsAffected      int            `json:"items_affected"`
	RequiresUserAction bool           `json:"requires_user_action"`
	AutoFixable        bool           `json:"auto_fixable"`
	Details            string         `json:"details"`
}

// SchemaChangeEvent is the immutable record of one atomic change to a schema.
// A single edit to a field can legitimately produce several sibling events,
// one per changed axis.
type SchemaChangeEvent struct {
	ID              uuid.UUID        `json:"id"`
	OrganizationID  uuid.UUID        `json:"organization_id"`
	WorkspaceID     uuid.UUID        `json:"workspace_id"`
	SchemaID        uuid.UUID        `json:"schema_id"`
	Timestamp       time.Time        `json:"timestamp"`
	ChangeType      ChangeType       `json:"change_type"`
	FieldID         string           `json:"field_id,omitempty"`
	OldName         string           `json:"old_name,omitempty"`
	NewName         string           `json:"new_name,omitempty"`
	OldKey          string           `json:"old_key,omitempty"`
	NewKey          string           `json:"new_key,omitempty"`
	OldType         FieldType        `json:"old_type,omitempty"`
	NewType         FieldType        `json:"new_type,omitempty"`
	AffectedSystems []AffectedSystem `json:"affected_systems"`
	Processed       bool             `json:"processed"`
	ProcessedAt     *time.Time       `json:"processed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NewSchemaChangeEvent creates an event scoped to the given schema snapshot.
func NewSchemaChangeEvent(schema Schema, changeType ChangeType) SchemaChangeEvent {
	now := time.Now()
	return SchemaChangeEvent{
		ID:              uuid.New(),
		OrganizationID:  schema.OrganizationID,
		WorkspaceID:     schema.WorkspaceID,
		SchemaID:        schema.ID,
		Timestamp:       now,
		ChangeType:      changeType,
		AffectedSystems: []AffectedSystem{},
		CreatedAt:       now,
	}
}

// WithProcessed returns a copy of the event marked processed. Processed is
// monotonic: it never transitions back to false.
func (e SchemaChangeEvent) WithProcessed(at time.Time) SchemaChangeEvent {
	clone := e
	clone.Processed = true
	clone.ProcessedAt = &at
	clone.AffectedSystems = copyAffectedSystems(e.AffectedSystems)
	return clone
}

// WithMeasuredImpact returns a copy of the event with the affected-item count
// for one consumer category replaced by a measured value.
func (e SchemaChangeEvent) WithMeasuredImpact(system SystemCategory, itemsAffected int) SchemaChangeEvent {
	clone := e
	clone.AffectedSystems = copyAffectedSystems(e.AffectedSystems)
	for i, affected := range clone.AffectedSystems {
		if affected.System == system {
			clone.AffectedSystems[i].ItemsAffected = itemsAffected
			return clone
		}
	}
	return clone
}

// AffectedItemCount sums the affected-item counts across all categories.
func (e SchemaChangeEvent) AffectedItemCount() int {
	total := 0
	for _, affected := range e.AffectedSystems {
		total += affected.ItemsAffected
	}
	return total
}

// GetAffectedSystemsAsJSONB returns the affected systems as JSONB for database storage
func (e SchemaChangeEvent) GetAffectedSystemsAsJSONB() (json.RawMessage, error) {
	if e.AffectedSystems == nil {
		return json.Marshal([]AffectedSystem{})
	}
	return json.Marshal(e.AffectedSystems)
}

// FromJSONBAffectedSystems creates affected systems from JSONB data
func FromJSONBAffectedSystems(affectedJSON json.RawMessage) ([]AffectedSystem, error) {
	var affected []AffectedSystem
	err := json.Unmarshal(affectedJSON, &affected)
	return affected, err
}

func copyAffectedSystems(affected []AffectedSystem) []AffectedSystem {
	if affected == nil {
		return nil
	}
	clone := make([]AffectedSystem, len(affected))
	copy(clone, affected)
	return clone
}
