package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpattn/schemaflow/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSchemaNotFound is returned when no schema matches the requested id.
var ErrSchemaNotFound = errors.New("schema not found")

type schemaRepository struct {
	pool *pgxpool.Pool
}

// NewSchemaRepository wires a repository backed by pgxpool.
func NewSchemaRepository(pool *pgxpool.Pool) SchemaRepository {
	return &schemaRepository{pool: pool}
}

func (r *schemaRepository) Create(ctx context.Context, schema domain.Schema) (domain.Schema, error) {
	if r.pool == nil {
		return domain.Schema{}, fmt.Errorf("schema repository not initialized")
	}

	fieldsJSON, err := schema.GetFieldsAsJSONB()
	if err != nil {
		return domain.Schema{}, fmt.Errorf("failed to marshal fields: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO schemas (id, organization_id, workspace_id, name, fields, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		schema.ID,
		schema.OrganizationID,
		schema.WorkspaceID,
		schema.Name,
		fieldsJSON,
		schema.CreatedAt,
		schema.UpdatedAt,
	)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}

	return schema, nil
}

func (r *schemaRepository) GetSchema(ctx context.Context, organizationID, schemaID uuid.UUID) (domain.Schema, error) {
	if r.pool == nil {
		return domain.Schema{}, fmt.Errorf("schema repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT id, organization_id, workspace_id, name, fields, created_at, updated_at
		 FROM schemas WHERE organization_id = $1 AND id = $2`,
		organizationID,
		schemaID,
	)

	schema, err := scanSchema(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Schema{}, ErrSchemaNotFound
		}
		return domain.Schema{}, fmt.Errorf("failed to get schema: %w", err)
	}
	return schema, nil
}

func (r *schemaRepository) Update(ctx context.Context, schema domain.Schema) (domain.Schema, error) {
	if r.pool == nil {
		return domain.Schema{}, fmt.Errorf("schema repository not initialized")
	}

	fieldsJSON, err := schema.GetFieldsAsJSONB()
	if err != nil {
		return domain.Schema{}, fmt.Errorf("failed to marshal fields: %w", err)
	}

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE schemas
		 SET name = $3, fields = $4, updated_at = $5
		 WHERE organization_id = $1 AND id = $2`,
		schema.OrganizationID,
		schema.ID,
		schema.Name,
		fieldsJSON,
		schema.UpdatedAt,
	)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("failed to update schema: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Schema{}, ErrSchemaNotFound
	}

	return schema, nil
}

func (r *schemaRepository) List(ctx context.Context, organizationID uuid.UUID) ([]domain.Schema, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("schema repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, organization_id, workspace_id, name, fields, created_at, updated_at
		 FROM schemas WHERE organization_id = $1 ORDER BY created_at ASC`,
		organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	schemas := []domain.Schema{}
	for rows.Next() {
		schema, scanErr := scanSchema(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", scanErr)
		}
		schemas = append(schemas, schema)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate schemas: %w", rowsErr)
	}

	return schemas, nil
}

func scanSchema(row pgx.Row) (domain.Schema, error) {
	var (
		schema     domain.Schema
		fieldsJSON []byte
	)

	if err := row.Scan(
		&schema.ID,
		&schema.OrganizationID,
		&schema.WorkspaceID,
		&schema.Name,
		&fieldsJSON,
		&schema.CreatedAt,
		&schema.UpdatedAt,
	); err != nil {
		return domain.Schema{}, err
	}

	fields, err := domain.FromJSONBSchemaFields(json.RawMessage(fieldsJSON))
	if err != nil {
		return domain.Schema{}, fmt.Errorf("failed to decode fields: %w", err)
	}
	schema.Fields = fields

	return schema, nil
}
