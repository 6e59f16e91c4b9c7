package diff

import (
	"testing"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/domain"
)

func testSchema(fields ...domain.SchemaField) domain.Schema {
	return domain.Schema{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		WorkspaceID:    uuid.New(),
		Name:           "Products",
		Fields:         fields,
	}
}

func field(id, key, label string, fieldType domain.FieldType) domain.SchemaField {
	return domain.SchemaField{ID: id, Key: key, Label: label, Type: fieldType}
}

func countByType(events []domain.SchemaChangeEvent) map[domain.ChangeType]int {
	counts := map[domain.ChangeType]int{}
	for _, event := range events {
		counts[event.ChangeType]++
	}
	return counts
}

func TestDetectChangesIdenticalSnapshots(t *testing.T) {
	engine := NewEngine()
	old := testSchema(field("f1", "price", "Price", domain.FieldTypeCurrency))
	updated := old

	events, err := engine.DetectChanges(old, updated)
	if err != nil {
		t.Fatalf("DetectChanges failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events for identical snapshots, got %d", len(events))
	}
}

func TestDetectChangesDifferentSchemas(t *testing.T) {
	engine := NewEngine()
	old := testSchema(field("f1", "price", "Price", domain.FieldTypeCurrency))
	other := testSchema(field("f1", "price", "Price", domain.FieldTypeCurrency))

	if _, err := engine.DetectChanges(old, other); err == nil {
		t.Fatal("expected error when diffing snapshots of different schemas")
	}
}

func TestDetectChangesFieldAddedAndDeleted(t *testing.T) {
	engine := NewEngine()
	old := testSchema(
		field("f1", "price", "Price", domain.FieldTypeCurrency),
		field("f2", "sku", "SKU", domain.FieldTypeText),
	)
	updated := old
	updated.Fields = []domain.SchemaField{
		field("f1", "price", "Price", domain.FieldTypeCurrency),
		field("f3", "stock", "Stock", domain.FieldTypeNumber),
	}

	events, err := engine.DetectChanges(old, updated)
	if err != nil {
		t.Fatalf("DetectChanges failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	counts := countByType(events)
	if counts[domain.ChangeFieldDeleted] != 1 {
		t.Errorf("expected 1 deletion event, got %d", counts[domain.ChangeFieldDeleted])
	}
	if counts[domain.ChangeFieldAdded] != 1 {
		t.Errorf("expected 1 addition event, got %d", counts[domain.ChangeFieldAdded])
	}

	for _, event := range events {
		switch event.ChangeType {
		case domain.ChangeFieldDeleted:
			if event.FieldID != "f2" || event.OldKey != "sku" {
				t.Errorf("deletion event carries wrong field: %+v", event)
			}
		case domain.ChangeFieldAdded:
			if event.FieldID != "f3" || event.NewKey != "stock" {
				t.Errorf("addition event carries wrong field: %+v", event)
			}
		}
	}
}

// A field deleted and a new field added under the same key must never be
// misread as a rename: identity, not key, joins the snapshots.
func TestDetectChangesDeleteThenAddSameKey(t *testing.T) {
	engine := NewEngine()
	old := testSchema(field("f1", "price", "Price", domain.FieldTypeCurrency))
	updated := old
	updated.Fields = []domain.SchemaField{field("f9", "price", "Price", domain.FieldTypeCurrency)}

	events, err := engine.DetectChanges(old, updated)
	if err != nil {
		t.Fatalf("DetectChanges failed: %v", err)
	}

	counts := countByType(events)
	if counts[domain.ChangeFieldDeleted] != 1 || counts[domain.ChangeFieldAdded] != 1 {
		t.Fatalf("expected delete+add pair, got %v", counts)
	}
	if counts[domain.ChangeFieldRenamed] != 0 || counts[domain.ChangeFieldKeyChanged] != 0 {
		t.Errorf("delete+add pair misread as rename: %v", counts)
	}
}

// One field edited on several axes produces one sibling event per axis.
func TestDetectChangesSiblingEvents(t *testing.T) {
	engine := NewEngine()
	old := testSchema(field("f1", "price", "Price", domain.FieldTypeNumber))
	updated := old
	updated.Fields = []domain.SchemaField{field("f1", "unit_price", "Unit Price", domain.FieldTypeCurrency)}

	events, err := engine.DetectChanges(old, updated)
	if err != nil {
		t.Fatalf("DetectChanges failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 sibling events, got %d", len(events))
	}

	counts := countByType(events)
	for _, changeType := range []domain.ChangeType{domain.ChangeFieldRenamed, domain.ChangeFieldKeyChanged, domain.ChangeFieldTypeChanged} {
		if counts[changeType] != 1 {
			t.Errorf("expected one %s event, got %d", changeType, counts[changeType])
		}
	}

	for _, event := range events {
		if event.FieldID != "f1" {
			t.Errorf("sibling event lost field identity: %+v", event)
		}
		switch event.ChangeType {
		case domain.ChangeFieldRenamed:
			if event.OldName != "Price" || event.NewName != "Unit Price" {
				t.Errorf("rename event wrong: %+v", event)
			}
		case domain.ChangeFieldKeyChanged:
			if event.OldKey != "price" || event.NewKey != "unit_price" {
				t.Errorf("key change event wrong: %+v", event)
			}
		case domain.ChangeFieldTypeChanged:
			if event.OldType != domain.FieldTypeNumber || event.NewType != domain.FieldTypeCurrency {
				t.Errorf("type change event wrong: %+v", event)
			}
		}
	}
}

func TestDetectChangesSchemaRenamed(t *testing.T) {
	engine := NewEngine()
	old := testSchema(field("f1", "price", "Price", domain.FieldTypeCurrency))
	updated := old
	updated.Name = "Catalog Items"

	events, err := engine.DetectChanges(old, updated)
	if err != nil {
		t.Fatalf("DetectChanges failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.ChangeType != domain.ChangeSchemaRenamed {
		t.Fatalf("expected schema_renamed, got %s", event.ChangeType)
	}
	if event.OldName != "Products" || event.NewName != "Catalog Items" {
		t.Errorf("schema rename event wrong: %+v", event)
	}
}

func TestDetectChangesInvalidSnapshot(t *testing.T) {
	engine := NewEngine()
	old := testSchema(field("f1", "price", "Price", domain.FieldTypeCurrency))
	updated := old
	updated.Fields = []domain.SchemaField{
		field("f1", "price", "Price", domain.FieldTypeCurrency),
		field("f2", "price", "Other Price", domain.FieldTypeCurrency), // duplicate key
	}

	if _, err := engine.DetectChanges(old, updated); err == nil {
		t.Fatal("expected error for snapshot with duplicate keys")
	}
}

func TestPredictImpactFieldAdded(t *testing.T) {
	predicted := PredictImpact(domain.ChangeFieldAdded)
	if len(predicted) != 0 {
		t.Errorf("additions should predict no impact, got %d entries", len(predicted))
	}
}

func TestPredictImpactFieldDeleted(t *testing.T) {
	predicted := PredictImpact(domain.ChangeFieldDeleted)
	if len(predicted) == 0 {
		t.Fatal("deletions should predict impact across consumer categories")
	}
	for _, affected := range predicted {
		if affected.System == "" {
			t.Errorf("predicted impact missing system category: %+v", affected)
		}
	}
}
