package validator

import (
	"fmt"
	"strings"

	"github.com/rpattn/schemaflow/internal/domain"
)

// ValidateFields ensures a schema snapshot is internally consistent before it
// is diffed: every field carries a stable identity and machine name, and
// neither identities nor keys collide.
func ValidateFields(fields []domain.SchemaField) error {
	seenIDs := make(map[string]struct{}, len(fields))
	seenKeys := make(map[string]struct{}, len(fields))

	for _, field := range fields {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			return fmt.Errorf("field %q is missing an identity", field.Key)
		}
		if _, ok := seenIDs[id]; ok {
			return fmt.Errorf("duplicate field identity %s", id)
		}
		seenIDs[id] = struct{}{}

		key := strings.TrimSpace(field.Key)
		if key == "" {
			return fmt.Errorf("field %s is missing a key", id)
		}
		if _, ok := seenKeys[key]; ok {
			return fmt.Errorf("duplicate field key %q", key)
		}
		seenKeys[key] = struct{}{}

		if field.Type == "" {
			return fmt.Errorf("field %s is missing a type", id)
		}
	}

	return nil
}
