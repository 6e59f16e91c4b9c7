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

// ErrWorkflowNotFound is returned when no workflow matches the requested id.
var ErrWorkflowNotFound = errors.New("workflow not found")

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository wires a repository backed by pgxpool.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

func (r *workflowRepository) Create(ctx context.Context, workflow domain.Workflow) (domain.Workflow, error) {
	if r.pool == nil {
		return domain.Workflow{}, fmt.Errorf("workflow repository not initialized")
	}

	triggerJSON, err := workflow.GetTriggerAsJSONB()
	if err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to marshal trigger: %w", err)
	}
	actionsJSON, err := workflow.GetActionsAsJSONB()
	if err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to marshal actions: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO workflows (id, organization_id, workspace_id, name, status, trigger, actions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		workflow.ID,
		workflow.OrganizationID,
		workflow.WorkspaceID,
		workflow.Name,
		string(workflow.Status),
		triggerJSON,
		actionsJSON,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

func (r *workflowRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Workflow, error) {
	if r.pool == nil {
		return domain.Workflow{}, fmt.Errorf("workflow repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT id, organization_id, workspace_id, name, status, trigger, actions, created_at, updated_at
		 FROM workflows WHERE id = $1`,
		id,
	)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Workflow{}, ErrWorkflowNotFound
		}
		return domain.Workflow{}, fmt.Errorf("failed to get workflow: %w", err)
	}
	return workflow, nil
}

func (r *workflowRepository) ListActiveBySchema(ctx context.Context, organizationID, schemaID uuid.UUID) ([]domain.Workflow, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("workflow repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, organization_id, workspace_id, name, status, trigger, actions, created_at, updated_at
		 FROM workflows
		 WHERE organization_id = $1
		   AND status = 'active'
		   AND trigger->>'schema_id' = $2
		 ORDER BY created_at ASC`,
		organizationID,
		schemaID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	workflows := []domain.Workflow{}
	for rows.Next() {
		workflow, scanErr := scanWorkflow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", scanErr)
		}
		workflows = append(workflows, workflow)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", rowsErr)
	}

	return workflows, nil
}

func scanWorkflow(row pgx.Row) (domain.Workflow, error) {
	var (
		workflow    domain.Workflow
		status      string
		triggerJSON []byte
		actionsJSON []byte
	)

	if err := row.Scan(
		&workflow.ID,
		&workflow.OrganizationID,
		&workflow.WorkspaceID,
		&workflow.Name,
		&status,
		&triggerJSON,
		&actionsJSON,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	); err != nil {
		return domain.Workflow{}, err
	}

	workflow.Status = domain.WorkflowStatus(status)

	trigger, err := domain.FromJSONBTrigger(json.RawMessage(triggerJSON))
	if err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to decode trigger: %w", err)
	}
	workflow.Trigger = trigger

	actions, err := domain.FromJSONBActions(json.RawMessage(actionsJSON))
	if err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to decode actions: %w", err)
	}
	workflow.Actions = actions

	return workflow, nil
}
