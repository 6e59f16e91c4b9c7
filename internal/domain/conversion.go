package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConversionSample shows how one stored value would convert under a field
// type change.
type ConversionSample struct {
	RecordID uuid.UUID `json:"record_id"`
	Before   any       `json:"before"`
	After    any       `json:"after,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ConversionPreview summarizes a sampled dry run of a field type conversion.
type ConversionPreview struct {
	SchemaID    uuid.UUID          `json:"schema_id"`
	FieldKey    string             `json:"field_key"`
	OldType     FieldType          `json:"old_type"`
	NewType     FieldType          `json:"new_type"`
	SampleSize  int                `json:"sample_size"`
	Samples     []ConversionSample `json:"samples"`
	FailedCount int                `json:"failed_count"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// ConversionApprovalStatus represents lifecycle status of an approval request
type ConversionApprovalStatus string

const (
	ConversionApprovalPending  ConversionApprovalStatus = "pending"
	ConversionApprovalApproved ConversionApprovalStatus = "approved"
	ConversionApprovalRejected ConversionApprovalStatus = "rejected"
)

// ConversionApproval is a pending-approval record created when a type change
// is not safe to auto-convert.
type ConversionApproval struct {
	ID             uuid.UUID                `json:"id"`
	OrganizationID uuid.UUID                `json:"organization_id"`
	SchemaID       uuid.UUID                `json:"schema_id"`
	EventID        uuid.UUID                `json:"event_id"`
	FieldKey       string                   `json:"field_key"`
	OldType        FieldType                `json:"old_type"`
	NewType        FieldType                `json:"new_type"`
	Preview        ConversionPreview        `json:"preview"`
	Status         ConversionApprovalStatus `json:"status"`
	CreatedAt      time.Time                `json:"created_at"`
	DecidedAt      *time.Time               `json:"decided_at,omitempty"`
}

// GetPreviewAsJSONB returns the preview as JSONB for database storage
func (a ConversionApproval) GetPreviewAsJSONB() (json.RawMessage, error) {
	return json.Marshal(a.Preview)
}

// FromJSONBPreview creates a conversion preview from JSONB data
func FromJSONBPreview(previewJSON json.RawMessage) (ConversionPreview, error) {
	var preview ConversionPreview
	err := json.Unmarshal(previewJSON, &preview)
	return preview, err
}
