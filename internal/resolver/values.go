package resolver

import (
	"fmt"
	"strings"

	"github.com/rpattn/schemaflow/internal/domain"
)

// GetFieldValue reads a value from a record via dot-path traversal. On a
// direct miss it retries lowercase, camelCase and snake_case variants of the
// whole reference string; segments are never fuzzy-matched individually.
func GetFieldValue(record map[string]any, ref string) (any, bool) {
	if value, ok := lookupPath(record, ref); ok {
		return value, true
	}

	for _, variant := range []string{strings.ToLower(ref), toCamelCase(ref), toSnakeCase(ref)} {
		if variant == "" || variant == ref {
			continue
		}
		if value, ok := lookupPath(record, variant); ok {
			return value, true
		}
	}

	return nil, false
}

// GetResolvedValue reads the record value behind a resolved field.
func GetResolvedValue(record map[string]any, resolved domain.ResolvedField) (any, bool) {
	return GetFieldValue(record, resolved.FieldKey)
}

// SetFieldValue writes a value into a record via dot-path, creating
// intermediate containers as needed.
func SetFieldValue(record map[string]any, ref string, value any) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	segments := strings.Split(ref, ".")
	if len(segments) == 0 || ref == "" {
		return fmt.Errorf("field reference is empty")
	}

	current := record
	for _, segment := range segments[:len(segments)-1] {
		next, exists := current[segment]
		if !exists {
			child := map[string]any{}
			current[segment] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("path segment %q holds a non-container value", segment)
		}
		current = child
	}

	current[segments[len(segments)-1]] = value
	return nil
}

func lookupPath(record map[string]any, ref string) (any, bool) {
	current := any(record)
	for _, segment := range strings.Split(ref, ".") {
		container, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		value, exists := container[segment]
		if !exists {
			return nil, false
		}
		current = value
	}
	return current, true
}
