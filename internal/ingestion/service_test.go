package ingestion

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/conversion"
	"github.com/rpattn/schemaflow/internal/domain"
	"github.com/rpattn/schemaflow/internal/resolver"
)

type fakeSchemaStore struct {
	schema domain.Schema
	err    error
}

func (f *fakeSchemaStore) Create(ctx context.Context, schema domain.Schema) (domain.Schema, error) {
	return schema, nil
}

func (f *fakeSchemaStore) GetSchema(ctx context.Context, organizationID, schemaID uuid.UUID) (domain.Schema, error) {
	if f.err != nil {
		return domain.Schema{}, f.err
	}
	return f.schema, nil
}

func (f *fakeSchemaStore) Update(ctx context.Context, schema domain.Schema) (domain.Schema, error) {
	return schema, nil
}

func (f *fakeSchemaStore) List(ctx context.Context, organizationID uuid.UUID) ([]domain.Schema, error) {
	return []domain.Schema{f.schema}, nil
}

type fakeRecordStore struct {
	created   []map[string]any
	createErr error
}

func (f *fakeRecordStore) CreateRecord(ctx context.Context, organizationID, schemaID uuid.UUID, values map[string]any) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	f.created = append(f.created, values)
	return uuid.New(), nil
}

func (f *fakeRecordStore) SampleRecords(ctx context.Context, organizationID, schemaID uuid.UUID, limit int) ([]conversion.Record, error) {
	return nil, nil
}

func (f *fakeRecordStore) RewriteFieldValues(ctx context.Context, organizationID, schemaID uuid.UUID, fieldKey string, convert func(any) (any, error)) (int, error) {
	return 0, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func productSchema() domain.Schema {
	return domain.Schema{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Name:           "Products",
		Fields: []domain.SchemaField{
			{ID: "f1", Key: "name", Label: "Name", Type: domain.FieldTypeText},
			{ID: "f2", Key: "price", Label: "Price", Type: domain.FieldTypeCurrency},
			{ID: "f3", Key: "in_stock", Label: "In Stock", Type: domain.FieldTypeCheckbox},
		},
	}
}

func newTestService(schema domain.Schema, records *fakeRecordStore) *Service {
	return NewService(&fakeSchemaStore{schema: schema}, records, resolver.New(nil), quietLogger())
}

func importRequest(schema domain.Schema, fileName, data string) Request {
	return Request{
		OrganizationID: schema.OrganizationID,
		SchemaID:       schema.ID,
		FileName:       fileName,
		Data:           strings.NewReader(data),
	}
}

func TestImportCSV(t *testing.T) {
	schema := productSchema()
	records := &fakeRecordStore{}
	service := newTestService(schema, records)

	csv := "Name,Price,In Stock\nWidget,$9.99,true\nGadget,12.50,false\n"
	summary, err := service.Import(context.Background(), importRequest(schema, "products.csv", csv))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if summary.TotalRows != 2 || summary.ImportedRows != 2 || summary.InvalidRows != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(records.created) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records.created))
	}

	first := records.created[0]
	if first["name"] != "Widget" {
		t.Errorf("text value wrong: %v", first["name"])
	}
	if first["price"] != 9.99 {
		t.Errorf("currency value not coerced: %v (%T)", first["price"], first["price"])
	}
	if first["in_stock"] != true {
		t.Errorf("checkbox value not coerced: %v", first["in_stock"])
	}
}

// Headers bind through the resolver, so a column named after a well-known
// alias of a field still imports.
func TestImportBindsHeadersLoosely(t *testing.T) {
	schema := domain.Schema{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Name:           "Services",
		Fields: []domain.SchemaField{
			{ID: "f1", Key: "name", Label: "Name", Type: domain.FieldTypeText},
			{ID: "f2", Key: "hourly_rate", Label: "Billing", Type: domain.FieldTypeCurrency},
		},
	}
	records := &fakeRecordStore{}
	service := newTestService(schema, records)

	// "price" is not a key or label here; it binds to hourly_rate by alias.
	csv := "name,price\nConsulting,150\n"
	summary, err := service.Import(context.Background(), importRequest(schema, "services.csv", csv))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if summary.ImportedRows != 1 {
		t.Fatalf("expected 1 imported row: %+v", summary)
	}
	if records.created[0]["hourly_rate"] != float64(150) {
		t.Errorf("aliased column not bound to hourly_rate: %v", records.created[0])
	}

	for _, binding := range summary.Bindings {
		if binding.Column == "price" {
			if !binding.Bound || binding.FieldKey != "hourly_rate" {
				t.Errorf("price binding wrong: %+v", binding)
			}
			if binding.MatchType != domain.MatchAlias {
				t.Errorf("expected alias match for price, got %s", binding.MatchType)
			}
		}
	}
}

func TestImportSkipsInvalidRows(t *testing.T) {
	schema := productSchema()
	records := &fakeRecordStore{}
	service := newTestService(schema, records)

	csv := "Name,Price\nWidget,9.99\nBroken,not-a-price\n"
	summary, err := service.Import(context.Background(), importRequest(schema, "products.csv", csv))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if summary.ImportedRows != 1 || summary.InvalidRows != 1 {
		t.Errorf("expected one good and one bad row: %+v", summary)
	}
}

func TestImportNoMatchingColumns(t *testing.T) {
	schema := productSchema()
	service := newTestService(schema, &fakeRecordStore{})

	csv := "zzz,qqq\n1,2\n"
	if _, err := service.Import(context.Background(), importRequest(schema, "data.csv", csv)); err == nil {
		t.Fatal("expected error when no column matches any field")
	}
}

func TestImportUnsupportedFormat(t *testing.T) {
	schema := productSchema()
	service := newTestService(schema, &fakeRecordStore{})

	_, err := service.Import(context.Background(), importRequest(schema, "data.pdf", "x"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestImportEmptyFile(t *testing.T) {
	schema := productSchema()
	service := newTestService(schema, &fakeRecordStore{})

	if _, err := service.Import(context.Background(), importRequest(schema, "data.csv", "")); err == nil {
		t.Fatal("expected error for empty upload")
	}
}

func TestImportRequiresScope(t *testing.T) {
	schema := productSchema()
	service := newTestService(schema, &fakeRecordStore{})

	req := importRequest(schema, "data.csv", "Name\nWidget\n")
	req.OrganizationID = uuid.Nil
	if _, err := service.Import(context.Background(), req); err == nil {
		t.Fatal("expected error without organization id")
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	schema := productSchema()
	records := &fakeRecordStore{}
	service := newTestService(schema, records)

	csv := "Name,Price\nWidget,9.99\n"
	preview, err := service.Preview(context.Background(), importRequest(schema, "products.csv", csv))
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}

	if preview.TotalRows != 1 {
		t.Errorf("expected 1 data row, got %d", preview.TotalRows)
	}
	if len(preview.Bindings) != 2 {
		t.Errorf("expected 2 bindings, got %d", len(preview.Bindings))
	}
	if len(records.created) != 0 {
		t.Errorf("preview must not create records: %d", len(records.created))
	}
}

func TestNormalizeTableSkipsBlankRows(t *testing.T) {
	table, err := normalizeTable([][]string{
		{"", ""},
		{"Name", "Price"},
		{"Widget", "9.99"},
		{" ", ""},
		{"Gadget", "12.50"},
	})
	if err != nil {
		t.Fatalf("normalizeTable failed: %v", err)
	}
	if len(table.headers) != 2 || table.headers[0] != "Name" {
		t.Errorf("wrong headers: %v", table.headers)
	}
	if len(table.rows) != 2 {
		t.Errorf("expected 2 data rows, got %d", len(table.rows))
	}
}

func TestParseCSVStripsByteOrderMark(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name\nWidget\n")...)
	table, err := parseCSV(payload)
	if err != nil {
		t.Fatalf("parseCSV failed: %v", err)
	}
	if len(table.headers) != 1 || table.headers[0] != "Name" {
		t.Errorf("BOM not stripped from header: %q", table.headers)
	}
}

func TestCoerceRowSkipsBlankCells(t *testing.T) {
	schema := productSchema()
	fields := map[string]domain.SchemaField{}
	for _, field := range schema.Fields {
		fields[field.Key] = field
	}
	bindings := []ColumnBinding{
		{Column: "Name", FieldKey: "name", Bound: true},
		{Column: "Price", FieldKey: "price", Bound: true},
	}

	values, err := coerceRow([]string{"Widget", ""}, bindings, fields)
	if err != nil {
		t.Fatalf("coerceRow failed: %v", err)
	}
	if _, ok := values["price"]; ok {
		t.Error("blank cells must not produce values")
	}
	if values["name"] != "Widget" {
		t.Errorf("wrong name value: %v", values["name"])
	}
}
