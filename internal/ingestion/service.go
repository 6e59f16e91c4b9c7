package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/rpattn/schemaflow/internal/conversion"
	"github.com/rpattn/schemaflow/internal/domain"
	"github.com/rpattn/schemaflow/internal/repository"
	"github.com/rpattn/schemaflow/internal/resolver"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Service imports tabular data into records of an existing schema. Column
// headers are matched to schema fields through the field resolver, so imports
// survive renamed labels, aliases and formatting differences.
type Service struct {
	schemas  repository.SchemaRepository
	records  repository.RecordRepository
	resolver *resolver.Resolver
	logger   *logrus.Logger
}

// NewService creates a new import service.
func NewService(schemas repository.SchemaRepository, records repository.RecordRepository, fieldResolver *resolver.Resolver, logger *logrus.Logger) *Service {
	return &Service{
		schemas:  schemas,
		records:  records,
		resolver: fieldResolver,
		logger:   logger,
	}
}

// Request describes the import input.
type Request struct {
	OrganizationID uuid.UUID
	SchemaID       uuid.UUID
	FileName       string
	Data           io.Reader
}

// ColumnBinding reports how one file column was matched to a schema field.
type ColumnBinding struct {
	Column     string           `json:"column"`
	FieldKey   string           `json:"field_key,omitempty"`
	FieldLabel string           `json:"field_label,omitempty"`
	MatchType  domain.MatchType `json:"match_type,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
	Bound      bool             `json:"bound"`
}

// Summary returns import level metrics.
type Summary struct {
	TotalRows    int             `json:"totalRows"`
	ImportedRows int             `json:"importedRows"`
	InvalidRows  int             `json:"invalidRows"`
	Bindings     []ColumnBinding `json:"bindings"`
}

type tableData struct {
	headers []string
	rows    [][]string
}

// Import reads the uploaded file, binds its columns to schema fields, and
// persists the rows whose values coerce cleanly to their field types.
func (s *Service) Import(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{Bindings: []ColumnBinding{}}

	if req.OrganizationID == uuid.Nil {
		return summary, errors.New("organization id is required")
	}
	if req.SchemaID == uuid.Nil {
		return summary, errors.New("schema id is required")
	}
	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}

	schema, err := s.schemas.GetSchema(ctx, req.OrganizationID, req.SchemaID)
	if err != nil {
		return summary, fmt.Errorf("failed to load schema: %w", err)
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return summary, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return summary, err
	}
	if len(table.headers) == 0 {
		return summary, errors.New("no header row detected")
	}

	bindings, fields := s.bindColumns(schema, table.headers)
	summary.Bindings = bindings
	summary.TotalRows = len(table.rows)

	bound := 0
	for _, binding := range bindings {
		if binding.Bound {
			bound++
		}
	}
	if bound == 0 {
		return summary, errors.New("no columns match any schema field")
	}

	for _, row := range table.rows {
		values, rowErr := coerceRow(row, bindings, fields)
		if rowErr != nil {
			summary.InvalidRows++
			s.logger.WithFields(logrus.Fields{
				"schema_id": schema.ID,
				"file":      req.FileName,
			}).Debugf("skipping row: %v", rowErr)
			continue
		}
		if len(values) == 0 {
			summary.InvalidRows++
			continue
		}
		if _, err := s.records.CreateRecord(ctx, req.OrganizationID, schema.ID, values); err != nil {
			return summary, fmt.Errorf("failed to insert record: %w", err)
		}
		summary.ImportedRows++
	}

	s.logger.WithFields(logrus.Fields{
		"schema_id": schema.ID,
		"imported":  summary.ImportedRows,
		"invalid":   summary.InvalidRows,
	}).Info("import completed")
	return summary, nil
}

// PreviewResult returns column bindings without persisting anything.
type PreviewResult struct {
	Bindings  []ColumnBinding `json:"bindings"`
	TotalRows int             `json:"totalRows"`
}

// Preview binds the file's columns against the schema without importing rows.
func (s *Service) Preview(ctx context.Context, req Request) (PreviewResult, error) {
	result := PreviewResult{Bindings: []ColumnBinding{}}

	if req.OrganizationID == uuid.Nil {
		return result, errors.New("organization id is required")
	}
	if req.SchemaID == uuid.Nil {
		return result, errors.New("schema id is required")
	}
	if req.Data == nil {
		return result, errors.New("data reader is required")
	}

	schema, err := s.schemas.GetSchema(ctx, req.OrganizationID, req.SchemaID)
	if err != nil {
		return result, fmt.Errorf("failed to load schema: %w", err)
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return result, fmt.Errorf("failed to read upload: %w", err)
	}
	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return result, err
	}

	bindings, _ := s.bindColumns(schema, table.headers)
	result.Bindings = bindings
	result.TotalRows = len(table.rows)
	return result, nil
}

// bindColumns resolves every header to a schema field. The returned field map
// is keyed by field key for coercion lookups.
func (s *Service) bindColumns(schema domain.Schema, headers []string) ([]ColumnBinding, map[string]domain.SchemaField) {
	bindings := make([]ColumnBinding, 0, len(headers))
	fields := make(map[string]domain.SchemaField, len(schema.Fields))
	for _, field := range schema.Fields {
		fields[field.Key] = field
	}

	for _, header := range headers {
		binding := ColumnBinding{Column: header}
		if resolved, ok := s.resolver.ResolveRefWithCommonAliases(schema, header); ok {
			binding.FieldKey = resolved.FieldKey
			binding.FieldLabel = resolved.FieldLabel
			binding.MatchType = resolved.MatchType
			binding.Confidence = resolved.Confidence
			binding.Bound = true
		}
		bindings = append(bindings, binding)
	}

	return bindings, fields
}

func coerceRow(row []string, bindings []ColumnBinding, fields map[string]domain.SchemaField) (map[string]any, error) {
	values := map[string]any{}
	for colIdx, binding := range bindings {
		if !binding.Bound || colIdx >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[colIdx])
		if raw == "" {
			continue
		}
		field, ok := fields[binding.FieldKey]
		if !ok {
			continue
		}
		coerced, err := conversion.CoerceValue(raw, field.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", binding.Column, err)
		}
		values[field.Key] = coerced
	}
	return values, nil
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}

	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return normalizeTable(rows)
}

func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	var headers []string
	var rows [][]string
	for _, record := range records {
		if rowEmpty(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, cell := range record {
				headers[i] = strings.TrimSpace(cell)
			}
			continue
		}
		rows = append(rows, record)
	}

	if headers == nil {
		return tableData{}, errors.New("header row could not be detected")
	}

	return tableData{headers: headers, rows: rows}, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
