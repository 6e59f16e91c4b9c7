package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpattn/schemaflow/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type schemaChangeEventRepository struct {
	pool *pgxpool.Pool
}

// NewSchemaChangeEventRepository wires a repository backed by pgxpool.
func NewSchemaChangeEventRepository(pool *pgxpool.Pool) SchemaChangeEventRepository {
	return &schemaChangeEventRepository{pool: pool}
}

const eventColumns = `id, organization_id, workspace_id, schema_id, timestamp, change_type,
	field_id, old_name, new_name, old_key, new_key, old_type, new_type,
	affected_systems, processed, processed_at, created_at`

func (r *schemaChangeEventRepository) Append(ctx context.Context, event domain.SchemaChangeEvent) error {
	if r.pool == nil {
		return fmt.Errorf("schema change event repository not initialized")
	}

	affectedJSON, err := event.GetAffectedSystemsAsJSONB()
	if err != nil {
		return fmt.Errorf("failed to marshal affected systems: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO schema_change_events (
			id, organization_id, workspace_id, schema_id, timestamp, change_type,
			field_id, old_name, new_name, old_key, new_key, old_type, new_type,
			affected_systems, processed, created_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		event.ID,
		event.OrganizationID,
		event.WorkspaceID,
		event.SchemaID,
		event.Timestamp,
		string(event.ChangeType),
		nullableString(event.FieldID),
		nullableString(event.OldName),
		nullableString(event.NewName),
		nullableString(event.OldKey),
		nullableString(event.NewKey),
		nullableString(string(event.OldType)),
		nullableString(string(event.NewType)),
		affectedJSON,
		event.Processed,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append schema change event: %w", err)
	}

	return nil
}

func (r *schemaChangeEventRepository) ListUnprocessed(ctx context.Context, organizationID uuid.UUID, schemaID *uuid.UUID) ([]domain.SchemaChangeEvent, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("schema change event repository not initialized")
	}

	query := `SELECT ` + eventColumns + `
		 FROM schema_change_events
		 WHERE organization_id = $1 AND processed = false`
	args := []any{organizationID}
	if schemaID != nil {
		query += ` AND schema_id = $2`
		args = append(args, *schemaID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *schemaChangeEventRepository) MarkProcessed(ctx context.Context, organizationID, eventID uuid.UUID) error {
	if r.pool == nil {
		return fmt.Errorf("schema change event repository not initialized")
	}

	// Compare-and-set so two concurrent sweeps cannot both observe the flip.
	_, err := r.pool.Exec(
		ctx,
		`UPDATE schema_change_events
		 SET processed = true, processed_at = now()
		 WHERE id = $1 AND organization_id = $2 AND processed = false`,
		eventID,
		organizationID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	return nil
}

func (r *schemaChangeEventRepository) ListBySchemaSince(ctx context.Context, schemaID uuid.UUID, since time.Time) ([]domain.SchemaChangeEvent, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("schema change event repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+eventColumns+`
		 FROM schema_change_events
		 WHERE schema_id = $1 AND timestamp >= $2
		 ORDER BY timestamp DESC`,
		schemaID,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events by schema: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *schemaChangeEventRepository) ListUnprocessedOrganizations(ctx context.Context) ([]uuid.UUID, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("schema change event repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT DISTINCT organization_id FROM schema_change_events WHERE processed = false`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations with backlog: %w", err)
	}
	defer rows.Close()

	organizations := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan organization id: %w", scanErr)
		}
		organizations = append(organizations, id)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate organizations: %w", rowsErr)
	}

	return organizations, nil
}

func collectEvents(rows pgx.Rows) ([]domain.SchemaChangeEvent, error) {
	events := []domain.SchemaChangeEvent{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schema change event: %w", err)
		}
		events = append(events, event)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate schema change events: %w", rowsErr)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (domain.SchemaChangeEvent, error) {
	var (
		event        domain.SchemaChangeEvent
		changeType   string
		fieldID      pgtype.Text
		oldName      pgtype.Text
		newName      pgtype.Text
		oldKey       pgtype.Text
		newKey       pgtype.Text
		oldType      pgtype.Text
		newType      pgtype.Text
		affectedJSON []byte
		processedAt  pgtype.Timestamptz
	)

	if err := row.Scan(
		&event.ID,
		&event.OrganizationID,
		&event.WorkspaceID,
		&event.SchemaID,
		&event.Timestamp,
		&changeType,
		&fieldID,
		&oldName,
		&newName,
		&oldKey,
		&newKey,
		&oldType,
		&newType,
		&affectedJSON,
		&event.Processed,
		&processedAt,
		&event.CreatedAt,
	); err != nil {
		return domain.SchemaChangeEvent{}, err
	}

	event.ChangeType = domain.ChangeType(changeType)
	event.FieldID = fieldID.String
	event.OldName = oldName.String
	event.NewName = newName.String
	event.OldKey = oldKey.String
	event.NewKey = newKey.String
	event.OldType = domain.FieldType(oldType.String)
	event.NewType = domain.FieldType(newType.String)
	if processedAt.Valid {
		at := processedAt.Time
		event.ProcessedAt = &at
	}

	if len(affectedJSON) > 0 {
		affected, err := domain.FromJSONBAffectedSystems(json.RawMessage(affectedJSON))
		if err != nil {
			return domain.SchemaChangeEvent{}, fmt.Errorf("failed to decode affected systems: %w", err)
		}
		event.AffectedSystems = affected
	} else {
		event.AffectedSystems = []domain.AffectedSystem{}
	}

	return event, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
