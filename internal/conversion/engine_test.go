package conversion

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/domain"
)

type fakeRecordSource struct {
	records    []Record
	sampleErr  error
	rewriteErr error
	rewritten  int
	lastField  string
}

func (f *fakeRecordSource) SampleRecords(ctx context.Context, organizationID, schemaID uuid.UUID, limit int) ([]Record, error) {
	if f.sampleErr != nil {
		return nil, f.sampleErr
	}
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeRecordSource) RewriteFieldValues(ctx context.Context, organizationID, schemaID uuid.UUID, fieldKey string, convert func(any) (any, error)) (int, error) {
	if f.rewriteErr != nil {
		return 0, f.rewriteErr
	}
	f.lastField = fieldKey
	count := 0
	for _, record := range f.records {
		value, ok := record.Values[fieldKey]
		if !ok {
			continue
		}
		converted, err := convert(value)
		if err != nil {
			return 0, err
		}
		if converted != value {
			record.Values[fieldKey] = converted
			count++
		}
	}
	f.rewritten = count
	return count, nil
}

type fakeApprovalStore struct {
	created []domain.ConversionApproval
	err     error
}

func (f *fakeApprovalStore) CreateConversionApproval(ctx context.Context, approval domain.ConversionApproval) (domain.ConversionApproval, error) {
	if f.err != nil {
		return domain.ConversionApproval{}, f.err
	}
	f.created = append(f.created, approval)
	return approval, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestIsSafeConversion(t *testing.T) {
	engine := NewEngine(&fakeRecordSource{}, &fakeApprovalStore{}, quietLogger())

	cases := []struct {
		oldType, newType domain.FieldType
		want             bool
	}{
		{domain.FieldTypeText, domain.FieldTypeText, true},         // same type
		{domain.FieldTypeNumber, domain.FieldTypeCurrency, true},   // numeric group
		{domain.FieldTypeNumber, domain.FieldTypeText, true},       // widening
		{domain.FieldTypeText, domain.FieldTypeNumber, false},      // risky
		{domain.FieldTypeText, domain.FieldTypeDate, false},        // risky
		{domain.FieldTypeLongText, domain.FieldTypeCurrency, false}, // risky
		{domain.FieldTypeNumber, domain.FieldTypeDate, false},      // cross group
	}

	for _, c := range cases {
		if got := engine.IsSafeConversion(c.oldType, c.newType); got != c.want {
			t.Errorf("IsSafeConversion(%s, %s) = %v, want %v", c.oldType, c.newType, got, c.want)
		}
	}
}

func TestGenerateConversionPreview(t *testing.T) {
	records := &fakeRecordSource{records: []Record{
		{ID: uuid.New(), Values: map[string]any{"price": "$19.99"}},
		{ID: uuid.New(), Values: map[string]any{"price": "n/a"}},
		{ID: uuid.New(), Values: map[string]any{"other": "x"}}, // field absent, skipped
	}}
	engine := NewEngine(records, &fakeApprovalStore{}, quietLogger())

	preview, err := engine.GenerateConversionPreview(context.Background(), uuid.New(), uuid.New(), "price", domain.FieldTypeText, domain.FieldTypeCurrency, 0)
	if err != nil {
		t.Fatalf("GenerateConversionPreview failed: %v", err)
	}

	if preview.SampleSize != 3 {
		t.Errorf("expected sample size 3, got %d", preview.SampleSize)
	}
	if len(preview.Samples) != 2 {
		t.Fatalf("expected 2 samples with the field present, got %d", len(preview.Samples))
	}
	if preview.FailedCount != 1 {
		t.Errorf("expected 1 failed sample, got %d", preview.FailedCount)
	}

	good := preview.Samples[0]
	if good.After != 19.99 || good.Error != "" {
		t.Errorf("convertible sample wrong: %+v", good)
	}
	bad := preview.Samples[1]
	if bad.Error == "" {
		t.Errorf("failing sample should carry its error: %+v", bad)
	}
}

func TestGenerateConversionPreviewSampleError(t *testing.T) {
	records := &fakeRecordSource{sampleErr: errors.New("db down")}
	engine := NewEngine(records, &fakeApprovalStore{}, quietLogger())

	if _, err := engine.GenerateConversionPreview(context.Background(), uuid.New(), uuid.New(), "price", domain.FieldTypeText, domain.FieldTypeNumber, 5); err == nil {
		t.Fatal("expected error when sampling fails")
	}
}

func TestConvertFieldType(t *testing.T) {
	records := &fakeRecordSource{records: []Record{
		{ID: uuid.New(), Values: map[string]any{"price": "19.99"}},
		{ID: uuid.New(), Values: map[string]any{"price": 5.0}},
	}}
	engine := NewEngine(records, &fakeApprovalStore{}, quietLogger())

	event := domain.SchemaChangeEvent{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		SchemaID:       uuid.New(),
		ChangeType:     domain.ChangeFieldTypeChanged,
		OldKey:         "price",
		OldType:        domain.FieldTypeNumber,
		NewType:        domain.FieldTypeCurrency,
	}

	if err := engine.ConvertFieldType(context.Background(), event); err != nil {
		t.Fatalf("ConvertFieldType failed: %v", err)
	}
	if records.lastField != "price" {
		t.Errorf("rewrote wrong field: %s", records.lastField)
	}
	// The string value converts; the float is already in shape and is skipped.
	if records.rewritten != 1 {
		t.Errorf("expected 1 rewritten value, got %d", records.rewritten)
	}
}

func TestConvertFieldTypePrefersNewKey(t *testing.T) {
	records := &fakeRecordSource{records: []Record{
		{ID: uuid.New(), Values: map[string]any{"unit_price": "3"}},
	}}
	engine := NewEngine(records, &fakeApprovalStore{}, quietLogger())

	event := domain.SchemaChangeEvent{
		ID:         uuid.New(),
		ChangeType: domain.ChangeFieldTypeChanged,
		OldKey:     "price",
		NewKey:     "unit_price",
		NewType:    domain.FieldTypeNumber,
	}

	if err := engine.ConvertFieldType(context.Background(), event); err != nil {
		t.Fatalf("ConvertFieldType failed: %v", err)
	}
	if records.lastField != "unit_price" {
		t.Errorf("expected rewrite under the new key, got %s", records.lastField)
	}
}

func TestConvertFieldTypeMissingKey(t *testing.T) {
	engine := NewEngine(&fakeRecordSource{}, &fakeApprovalStore{}, quietLogger())
	event := domain.SchemaChangeEvent{ID: uuid.New(), ChangeType: domain.ChangeFieldTypeChanged}

	if err := engine.ConvertFieldType(context.Background(), event); err == nil {
		t.Fatal("expected error for event without a field key")
	}
}

func TestCreateConversionApprovalRequest(t *testing.T) {
	approvals := &fakeApprovalStore{}
	engine := NewEngine(&fakeRecordSource{}, approvals, quietLogger())

	event := domain.SchemaChangeEvent{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		SchemaID:       uuid.New(),
		ChangeType:     domain.ChangeFieldTypeChanged,
		OldType:        domain.FieldTypeText,
		NewType:        domain.FieldTypeNumber,
	}
	preview := domain.ConversionPreview{FieldKey: "price", FailedCount: 2}

	approval, err := engine.CreateConversionApprovalRequest(context.Background(), event, preview)
	if err != nil {
		t.Fatalf("CreateConversionApprovalRequest failed: %v", err)
	}
	if approval.Status != domain.ConversionApprovalPending {
		t.Errorf("expected pending status, got %s", approval.Status)
	}
	if approval.EventID != event.ID || approval.FieldKey != "price" {
		t.Errorf("approval fields wrong: %+v", approval)
	}
	if len(approvals.created) != 1 {
		t.Fatalf("expected 1 persisted approval, got %d", len(approvals.created))
	}
}
