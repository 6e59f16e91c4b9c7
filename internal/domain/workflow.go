package domain

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus represents lifecycle status of a stored automation
type WorkflowStatus string

const (
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusPaused   WorkflowStatus = "paused"
	WorkflowStatusArchived WorkflowStatus = "archived"
)

// WorkflowTrigger describes what starts a workflow and which fields it reads.
// FieldRefs are loose references resolved against the schema at run time.
type WorkflowTrigger struct {
	SchemaID  uuid.UUID `json:"schema_id"`
	FieldRefs []string  `json:"field_refs"`
}

// WorkflowAction is one step of a workflow. FieldMappings maps action
// parameter names to loose field references.
type WorkflowAction struct {
	Name          string            `json:"name"`
	FieldMappings map[string]string `json:"field_mappings"`
}

// Workflow represents a stored automation that depends on a schema's shape
type Workflow struct {
	ID             uuid.UUID        `json:"id"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	WorkspaceID    uuid.UUID        `json:"workspace_id"`
	Name           string           `json:"name"`
	Status         WorkflowStatus   `json:"status"`
	Trigger        WorkflowTrigger  `json:"trigger"`
	Actions        []WorkflowAction `json:"actions"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ReferencesSchema reports whether the workflow depends on the given schema.
func (w Workflow) ReferencesSchema(schemaID uuid.UUID) bool {
	return w.Trigger.SchemaID == schemaID
}

// FieldReferences returns every loose field reference the workflow stores,
// trigger refs first, then action mappings in declaration order.
func (w Workflow) FieldReferences() []string {
	refs := append([]string(nil), w.Trigger.FieldRefs...)
	for _, action := range w.Actions {
		for _, ref := range sortedMappingValues(action.FieldMappings) {
			refs = append(refs, ref)
		}
	}
	return refs
}

// GetTriggerAsJSONB returns the trigger as JSONB for database storage
func (w Workflow) GetTriggerAsJSONB() (json.RawMessage, error) {
	return json.Marshal(w.Trigger)
}

// GetActionsAsJSONB returns the actions as JSONB for database storage
func (w Workflow) GetActionsAsJSONB() (json.RawMessage, error) {
	if w.Actions == nil {
		return json.Marshal([]WorkflowAction{})
	}
	return json.Marshal(w.Actions)
}

// FromJSONBTrigger creates a workflow trigger from JSONB data
func FromJSONBTrigger(triggerJSON json.RawMessage) (WorkflowTrigger, error) {
	var trigger WorkflowTrigger
	err := json.Unmarshal(triggerJSON, &trigger)
	return trigger, err
}

// FromJSONBActions creates workflow actions from JSONB data
func FromJSONBActions(actionsJSON json.RawMessage) ([]WorkflowAction, error) {
	var actions []WorkflowAction
	err := json.Unmarshal(actionsJSON, &actions)
	return actions, err
}

func sortedMappingValues(mappings map[string]string) []string {
	if len(mappings) == 0 {
		return nil
	}
	keys := make([]string, 0, len(mappings))
	for key := range mappings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		values = append(values, mappings[key])
	}
	return values
}
