package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpattn/schemaflow/internal/conversion"
	"github.com/rpattn/schemaflow/internal/db"
	"github.com/rpattn/schemaflow/internal/resolver"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type recordRepository struct {
	conn *db.Connection
}

// RecordRepository stores record values: sampling and bulk rewrite for the
// conversion engine, plus inserts for the import flow.
type RecordRepository interface {
	conversion.RecordSource
	CreateRecord(ctx context.Context, organizationID, schemaID uuid.UUID, values map[string]any) (uuid.UUID, error)
}

// NewRecordRepository wires a record repository backed by a database connection.
func NewRecordRepository(conn *db.Connection) RecordRepository {
	return &recordRepository{conn: conn}
}

func (r *recordRepository) initialized() bool {
	return r.conn != nil && r.conn.Pool != nil
}

func (r *recordRepository) CreateRecord(ctx context.Context, organizationID, schemaID uuid.UUID, values map[string]any) (uuid.UUID, error) {
	if !r.initialized() {
		return uuid.Nil, fmt.Errorf("record repository not initialized")
	}

	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal record values: %w", err)
	}

	id := uuid.New()
	_, err = r.conn.Pool.Exec(
		ctx,
		`INSERT INTO records (id, organization_id, schema_id, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())`,
		id,
		organizationID,
		schemaID,
		valuesJSON,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create record: %w", err)
	}

	return id, nil
}

func (r *recordRepository) SampleRecords(ctx context.Context, organizationID, schemaID uuid.UUID, limit int) ([]conversion.Record, error) {
	if !r.initialized() {
		return nil, fmt.Errorf("record repository not initialized")
	}

	rows, err := r.conn.Pool.Query(
		ctx,
		`SELECT id, data FROM records
		 WHERE organization_id = $1 AND schema_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		organizationID,
		schemaID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sample records: %w", err)
	}
	defer rows.Close()

	records := []conversion.Record{}
	for rows.Next() {
		var (
			record     conversion.Record
			valuesJSON []byte
		)
		if scanErr := rows.Scan(&record.ID, &valuesJSON); scanErr != nil {
			return nil, fmt.Errorf("failed to scan record: %w", scanErr)
		}
		if len(valuesJSON) > 0 {
			if err := json.Unmarshal(valuesJSON, &record.Values); err != nil {
				return nil, fmt.Errorf("failed to decode record values: %w", err)
			}
		}
		if record.Values == nil {
			record.Values = map[string]any{}
		}
		records = append(records, record)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", rowsErr)
	}

	return records, nil
}

// RewriteFieldValues streams every record in the schema through convert and
// writes back only the rows whose value actually changed. The whole rewrite
// runs in one transaction so a mid-batch failure leaves no records half
// converted.
func (r *recordRepository) RewriteFieldValues(ctx context.Context, organizationID, schemaID uuid.UUID, fieldKey string, convert func(any) (any, error)) (int, error) {
	if !r.initialized() {
		return 0, fmt.Errorf("record repository not initialized")
	}

	rewritten := 0
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(
			ctx,
			`SELECT id, data FROM records
			 WHERE organization_id = $1 AND schema_id = $2 AND data ? $3`,
			organizationID,
			schemaID,
			fieldKey,
		)
		if err != nil {
			return fmt.Errorf("failed to load records for rewrite: %w", err)
		}

		type pendingUpdate struct {
			id     uuid.UUID
			values map[string]any
		}

		updates := []pendingUpdate{}
		for rows.Next() {
			var (
				id         uuid.UUID
				valuesJSON []byte
				values     map[string]any
			)
			if scanErr := rows.Scan(&id, &valuesJSON); scanErr != nil {
				rows.Close()
				return fmt.Errorf("failed to scan record: %w", scanErr)
			}
			if err := json.Unmarshal(valuesJSON, &values); err != nil {
				rows.Close()
				return fmt.Errorf("failed to decode record values: %w", err)
			}

			before, ok := resolver.GetFieldValue(values, fieldKey)
			if !ok {
				continue
			}
			after, convErr := convert(before)
			if convErr != nil {
				rows.Close()
				return fmt.Errorf("failed to convert value on record %s: %w", id, convErr)
			}
			if after == before {
				continue
			}
			if err := resolver.SetFieldValue(values, fieldKey, after); err != nil {
				rows.Close()
				return fmt.Errorf("failed to set converted value on record %s: %w", id, err)
			}
			updates = append(updates, pendingUpdate{id: id, values: values})
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			rows.Close()
			return fmt.Errorf("failed to iterate records: %w", rowsErr)
		}
		rows.Close()

		for _, update := range updates {
			valuesJSON, err := json.Marshal(update.values)
			if err != nil {
				return fmt.Errorf("failed to marshal record values: %w", err)
			}
			if _, err := tx.Exec(
				ctx,
				`UPDATE records SET data = $3, updated_at = now()
				 WHERE organization_id = $1 AND id = $2`,
				organizationID,
				update.id,
				valuesJSON,
			); err != nil {
				return fmt.Errorf("failed to rewrite record %s: %w", update.id, err)
			}
		}

		rewritten = len(updates)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return rewritten, nil
}
