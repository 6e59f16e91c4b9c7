package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpattn/schemaflow/internal/adapters"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type storefrontMappingRepository struct {
	pool *pgxpool.Pool
}

// NewStorefrontMappingRepository wires a product mapping store backed by
// pgxpool.
func NewStorefrontMappingRepository(pool *pgxpool.Pool) adapters.StorefrontMappingStore {
	return &storefrontMappingRepository{pool: pool}
}

func (r *storefrontMappingRepository) ListBySchema(ctx context.Context, organizationID, schemaID uuid.UUID) ([]adapters.ProductMapping, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("storefront mapping repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, schema_id, product_id, field_keys, updated_at
		 FROM product_mappings
		 WHERE organization_id = $1 AND schema_id = $2
		 ORDER BY updated_at ASC`,
		organizationID,
		schemaID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list product mappings: %w", err)
	}
	defer rows.Close()

	mappings := []adapters.ProductMapping{}
	for rows.Next() {
		var (
			mapping  adapters.ProductMapping
			keysJSON []byte
		)
		if scanErr := rows.Scan(&mapping.ID, &mapping.SchemaID, &mapping.ProductID, &keysJSON, &mapping.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan product mapping: %w", scanErr)
		}
		if len(keysJSON) > 0 {
			if err := json.Unmarshal(keysJSON, &mapping.FieldKeys); err != nil {
				return nil, fmt.Errorf("failed to decode field keys: %w", err)
			}
		}
		if mapping.FieldKeys == nil {
			mapping.FieldKeys = map[string]string{}
		}
		mappings = append(mappings, mapping)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate product mappings: %w", rowsErr)
	}

	return mappings, nil
}

func (r *storefrontMappingRepository) Update(ctx context.Context, mapping adapters.ProductMapping) error {
	if r.pool == nil {
		return fmt.Errorf("storefront mapping repository not initialized")
	}

	keysJSON, err := json.Marshal(mapping.FieldKeys)
	if err != nil {
		return fmt.Errorf("failed to marshal field keys: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`UPDATE product_mappings SET field_keys = $2, updated_at = $3 WHERE id = $1`,
		mapping.ID,
		keysJSON,
		mapping.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product mapping: %w", err)
	}

	return nil
}

type integrationMappingRepository struct {
	pool *pgxpool.Pool
}

// NewIntegrationMappingRepository wires an integration mapping store backed by
// pgxpool.
func NewIntegrationMappingRepository(pool *pgxpool.Pool) adapters.IntegrationMappingStore {
	return &integrationMappingRepository{pool: pool}
}

func (r *integrationMappingRepository) ListBySchema(ctx context.Context, organizationID, schemaID uuid.UUID) ([]adapters.IntegrationMapping, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("integration mapping repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, schema_id, provider, external_path, field_key, status, updated_at
		 FROM integration_mappings
		 WHERE organization_id = $1 AND schema_id = $2
		 ORDER BY updated_at ASC`,
		organizationID,
		schemaID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list integration mappings: %w", err)
	}
	defer rows.Close()

	mappings := []adapters.IntegrationMapping{}
	for rows.Next() {
		var (
			mapping adapters.IntegrationMapping
			status  string
		)
		if scanErr := rows.Scan(&mapping.ID, &mapping.SchemaID, &mapping.Provider, &mapping.ExternalPath, &mapping.FieldKey, &status, &mapping.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan integration mapping: %w", scanErr)
		}
		mapping.Status = adapters.IntegrationMappingStatus(status)
		mappings = append(mappings, mapping)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate integration mappings: %w", rowsErr)
	}

	return mappings, nil
}

func (r *integrationMappingRepository) Update(ctx context.Context, mapping adapters.IntegrationMapping) error {
	if r.pool == nil {
		return fmt.Errorf("integration mapping repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`UPDATE integration_mappings SET status = $2, updated_at = $3 WHERE id = $1`,
		mapping.ID,
		string(mapping.Status),
		mapping.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update integration mapping: %w", err)
	}

	return nil
}
