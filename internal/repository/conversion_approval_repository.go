package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpattn/schemaflow/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type conversionApprovalRepository struct {
	pool *pgxpool.Pool
}

// NewConversionApprovalRepository wires a repository backed by pgxpool.
func NewConversionApprovalRepository(pool *pgxpool.Pool) ConversionApprovalRepository {
	return &conversionApprovalRepository{pool: pool}
}

func (r *conversionApprovalRepository) CreateConversionApproval(ctx context.Context, approval domain.ConversionApproval) (domain.ConversionApproval, error) {
	if r.pool == nil {
		return domain.ConversionApproval{}, fmt.Errorf("conversion approval repository not initialized")
	}

	previewJSON, err := approval.GetPreviewAsJSONB()
	if err != nil {
		return domain.ConversionApproval{}, fmt.Errorf("failed to marshal preview: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO conversion_approvals (id, organization_id, schema_id, event_id, field_key, old_type, new_type, preview, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		approval.ID,
		approval.OrganizationID,
		approval.SchemaID,
		approval.EventID,
		approval.FieldKey,
		string(approval.OldType),
		string(approval.NewType),
		previewJSON,
		string(approval.Status),
		approval.CreatedAt,
	)
	if err != nil {
		return domain.ConversionApproval{}, fmt.Errorf("failed to create conversion approval: %w", err)
	}

	return approval, nil
}

func (r *conversionApprovalRepository) ListPending(ctx context.Context, organizationID uuid.UUID) ([]domain.ConversionApproval, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("conversion approval repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, organization_id, schema_id, event_id, field_key, old_type, new_type, preview, status, created_at, decided_at
		 FROM conversion_approvals
		 WHERE organization_id = $1 AND status = 'pending'
		 ORDER BY created_at ASC`,
		organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	defer rows.Close()

	approvals := []domain.ConversionApproval{}
	for rows.Next() {
		var (
			approval    domain.ConversionApproval
			oldType     string
			newType     string
			previewJSON []byte
			status      string
			decidedAt   pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&approval.ID,
			&approval.OrganizationID,
			&approval.SchemaID,
			&approval.EventID,
			&approval.FieldKey,
			&oldType,
			&newType,
			&previewJSON,
			&status,
			&approval.CreatedAt,
			&decidedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan conversion approval: %w", scanErr)
		}

		approval.OldType = domain.FieldType(oldType)
		approval.NewType = domain.FieldType(newType)
		approval.Status = domain.ConversionApprovalStatus(status)
		if decidedAt.Valid {
			at := decidedAt.Time
			approval.DecidedAt = &at
		}

		preview, previewErr := domain.FromJSONBPreview(json.RawMessage(previewJSON))
		if previewErr != nil {
			return nil, fmt.Errorf("failed to decode preview: %w", previewErr)
		}
		approval.Preview = preview

		approvals = append(approvals, approval)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate conversion approvals: %w", rowsErr)
	}

	return approvals, nil
}
