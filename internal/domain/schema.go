package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FieldType represents the type of a field in a record schema
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeLongText    FieldType = "long_text"
	FieldTypeEmail       FieldType = "email"
	FieldTypeURL         FieldType = "url"
	FieldTypePhoneNumber FieldType = "phone_number"
	FieldTypeNumber      FieldType = "number"
	FieldTypeCurrency    FieldType = "currency"
	FieldTypePercent     FieldType = "percent"
	FieldTypeDate        FieldType = "date"
	FieldTypeDateTime    FieldType = "date_time"
	FieldTypeTime        FieldType = "time"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multi_select"
	FieldTypeFile        FieldType = "file"
	FieldTypeRelation    FieldType = "relation"
)

// SchemaField represents one field definition in a record schema. The ID is
// the immutable identity that ties a logical field across renames; Key, Label
// and Type may all change over the schema's lifetime.
type SchemaField struct {
	ID      string         `json:"id"`
	Key     string         `json:"key"`
	Label   string         `json:"label"`
	Type    FieldType      `json:"type"`
	Hidden  bool           `json:"hidden,omitempty"`
	Options []string       `json:"options,omitempty"`
	Config  map[string]any `json:"config,omitempty"`
}

// Schema represents one snapshot of a record schema
type Schema struct {
	ID             uuid.UUID     `json:"id"`
	OrganizationID uuid.UUID     `json:"organization_id"`
	WorkspaceID    uuid.UUID     `json:"workspace_id"`
	Name           string        `json:"name"`
	Fields         []SchemaField `json:"fields"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewSchema creates a new schema snapshot with immutable pattern
func NewSchema(organizationID, workspaceID uuid.UUID, name string, fields []SchemaField) Schema {
	now := time.Now()
	return Schema{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		WorkspaceID:    workspaceID,
		Name:           name,
		Fields:         copySchemaFields(fields),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// WithName returns a new snapshot with an updated display name
func (s Schema) WithName(name string) Schema {
	clone := s
	clone.Name = name
	clone.Fields = copySchemaFields(s.Fields)
	clone.UpdatedAt = time.Now()
	return clone
}

// WithField returns a new snapshot with the field added, or replaced when a
// field with the same identity already exists.
func (s Schema) WithField(field SchemaField) Schema {
	clone := s
	clone.Fields = copySchemaFields(s.Fields)
	clone.UpdatedAt = time.Now()

	for i, existing := range clone.Fields {
		if existing.ID == field.ID {
			clone.Fields[i] = field
			return clone
		}
	}

	clone.Fields = append(clone.Fields, field)
	return clone
}

// WithoutField returns a new snapshot without the identified field
func (s Schema) WithoutField(fieldID string) Schema {
	clone := s
	clone.Fields = make([]SchemaField, 0, len(s.Fields))
	for _, field := range s.Fields {
		if field.ID != fieldID {
			clone.Fields = append(clone.Fields, field)
		}
	}
	clone.UpdatedAt = time.Now()
	return clone
}

// FieldByID returns the field with the given identity and whether it exists.
func (s Schema) FieldByID(fieldID string) (SchemaField, bool) {
	for _, field := range s.Fields {
		if field.ID == fieldID {
			return field, true
		}
	}
	return SchemaField{}, false
}

// FieldByKey returns the field with the given machine name and whether it exists.
func (s Schema) FieldByKey(key string) (SchemaField, bool) {
	for _, field := range s.Fields {
		if field.Key == key {
			return field, true
		}
	}
	return SchemaField{}, false
}

// VisibleFields returns the non-hidden fields in declaration order.
func (s Schema) VisibleFields() []SchemaField {
	visible := make([]SchemaField, 0, len(s.Fields))
	for _, field := range s.Fields {
		if !field.Hidden {
			visible = append(visible, field)
		}
	}
	return visible
}

// GetFieldsAsJSONB returns the fields as JSONB for database storage
func (s Schema) GetFieldsAsJSONB() (json.RawMessage, error) {
	return json.Marshal(s.Fields)
}

// FromJSONBSchemaFields creates field definitions from JSONB data
func FromJSONBSchemaFields(fieldsJSON json.RawMessage) ([]SchemaField, error) {
	var fields []SchemaField
	err := json.Unmarshal(fieldsJSON, &fields)
	return fields, err
}

// copySchemaFields creates a deep copy of the fields slice to ensure immutability
func copySchemaFields(fields []SchemaField) []SchemaField {
	if fields == nil {
		return nil
	}
	newFields := make([]SchemaField, len(fields))
	copy(newFields, fields)
	for i, field := range newFields {
		if field.Options != nil {
			newFields[i].Options = append([]string(nil), field.Options...)
		}
		if field.Config != nil {
			config := make(map[string]any, len(field.Config))
			for k, v := range field.Config {
				config[k] = v
			}
			newFields[i].Config = config
		}
	}
	return newFields
}
