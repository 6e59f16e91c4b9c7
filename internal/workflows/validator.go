package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/domain"
	"github.com/rpattn/schemaflow/internal/notify"
	"github.com/rpattn/schemaflow/internal/resolver"
)

// SchemaProvider exposes schema snapshot lookup for validation.
type SchemaProvider interface {
	GetSchema(ctx context.Context, organizationID, schemaID uuid.UUID) (domain.Schema, error)
}

// WorkflowStore exposes the stored automations in scope for one schema.
type WorkflowStore interface {
	ListActiveBySchema(ctx context.Context, organizationID, schemaID uuid.UUID) ([]domain.Workflow, error)
}

// Issue describes one problematic field reference inside a workflow.
type Issue struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// ValidationResult reports the outcome of validating one workflow. A workflow
// is invalid only with at least one error; warnings alone keep it valid but
// flagged.
type ValidationResult struct {
	WorkflowID   uuid.UUID `json:"workflow_id"`
	WorkflowName string    `json:"workflow_name"`
	Valid        bool      `json:"valid"`
	Errors       []Issue   `json:"errors,omitempty"`
	Warnings     []Issue   `json:"warnings,omitempty"`
}

// Validator measures and re-validates stored automations against a schema
// after it changes. It is the reference consumer validator: other consumer
// categories follow the same pattern.
type Validator struct {
	store    WorkflowStore
	schemas  SchemaProvider
	resolver *resolver.Resolver
	sink     notify.Sink
	logger   *logrus.Logger
}

// NewValidator wires a workflow validator.
func NewValidator(store WorkflowStore, schemas SchemaProvider, fieldResolver *resolver.Resolver, sink notify.Sink, logger *logrus.Logger) *Validator {
	return &Validator{
		store:    store,
		schemas:  schemas,
		resolver: fieldResolver,
		sink:     sink,
		logger:   logger,
	}
}

// Name identifies the consumer category this validator serves.
func (v *Validator) Name() string {
	return string(domain.SystemWorkflows)
}

// ValidateWorkflow checks every field reference a workflow stores against one
// schema snapshot. Workflows that do not reference the schema are trivially
// valid.
func (v *Validator) ValidateWorkflow(workflow domain.Workflow, schema domain.Schema) ValidationResult {
	result := ValidationResult{
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		Valid:        true,
	}

	if !workflow.ReferencesSchema(schema.ID) {
		return result
	}

	for _, ref := range workflow.FieldReferences() {
		resolved, ok := v.resolver.ResolveRefWithCommonAliases(schema, ref)
		if !ok {
			result.Errors = append(result.Errors, Issue{
				Ref:    ref,
				Reason: "reference does not resolve to any field",
			})
			continue
		}
		if resolved.Confidence < domain.ConfidenceAlias {
			result.Warnings = append(result.Warnings, Issue{
				Ref:    ref,
				Reason: fmt.Sprintf("resolved to %q with low confidence %.2f (%s)", resolved.FieldKey, resolved.Confidence, resolved.MatchType),
			})
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateWorkflowsForSchema loads the active workflows in the event's scope,
// validates each, and raises exactly one bundled advisory per workflow that
// accumulated warnings.
func (v *Validator) ValidateWorkflowsForSchema(ctx context.Context, event domain.SchemaChangeEvent) ([]ValidationResult, error) {
	schema, err := v.schemas.GetSchema(ctx, event.OrganizationID, event.SchemaID)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", event.SchemaID, err)
	}

	workflows, err := v.store.ListActiveBySchema(ctx, event.OrganizationID, event.SchemaID)
	if err != nil {
		return nil, fmt.Errorf("list workflows for schema %s: %w", event.SchemaID, err)
	}

	results := make([]ValidationResult, 0, len(workflows))
	for _, workflow := range workflows {
		result := v.ValidateWorkflow(workflow, schema)
		results = append(results, result)

		if len(result.Warnings) == 0 {
			continue
		}
		advisory := notify.Notification{
			Title:    fmt.Sprintf("Workflow %q needs review", workflow.Name),
			Message:  bundleWarnings(result.Warnings),
			Type:     "warning",
			Severity: domain.SeverityMedium,
			Metadata: map[string]any{
				"workflow_id": workflow.ID.String(),
				"schema_id":   event.SchemaID.String(),
				"event_id":    event.ID.String(),
			},
		}
		if err := v.sink.Record(ctx, advisory); err != nil {
			v.logger.WithFields(logrus.Fields{
				"workflow_id": workflow.ID,
				"event_id":    event.ID,
			}).Warnf("failed to record workflow advisory: %v", err)
		}
	}

	return results, nil
}

// Measure counts the active workflows whose stored references depend on the
// field the event changed. It refines the diff-time category prediction with
// a real number.
func (v *Validator) Measure(ctx context.Context, event domain.SchemaChangeEvent) (int, error) {
	schema, err := v.schemas.GetSchema(ctx, event.OrganizationID, event.SchemaID)
	if err != nil {
		return 0, fmt.Errorf("load schema %s: %w", event.SchemaID, err)
	}

	workflows, err := v.store.ListActiveBySchema(ctx, event.OrganizationID, event.SchemaID)
	if err != nil {
		return 0, fmt.Errorf("list workflows for schema %s: %w", event.SchemaID, err)
	}

	affected := 0
	for _, workflow := range workflows {
		if v.workflowReferencesChange(workflow, schema, event) {
			affected++
		}
	}
	return affected, nil
}

// Adapt re-validates the workflows in the event's scope and raises bundled
// advisories, which is this consumer's adaptation to a schema change.
func (v *Validator) Adapt(ctx context.Context, event domain.SchemaChangeEvent) error {
	_, err := v.ValidateWorkflowsForSchema(ctx, event)
	return err
}

func (v *Validator) workflowReferencesChange(workflow domain.Workflow, schema domain.Schema, event domain.SchemaChangeEvent) bool {
	if !workflow.ReferencesSchema(event.SchemaID) {
		return false
	}

	changed := map[string]struct{}{}
	for _, candidate := range []string{event.OldKey, event.NewKey, event.OldName, event.NewName} {
		if candidate != "" {
			changed[strings.ToLower(candidate)] = struct{}{}
		}
	}

	for _, ref := range workflow.FieldReferences() {
		if _, ok := changed[strings.ToLower(ref)]; ok {
			return true
		}
		if event.FieldID == "" {
			continue
		}
		if resolved, ok := v.resolver.ResolveRefWithCommonAliases(schema, ref); ok && resolved.FieldID == event.FieldID {
			return true
		}
	}
	return false
}

func bundleWarnings(warnings []Issue) string {
	parts := make([]string, 0, len(warnings))
	for _, warning := range warnings {
		parts = append(parts, fmt.Sprintf("%s: %s", warning.Ref, warning.Reason))
	}
	return fmt.Sprintf("%d field reference(s) resolved with low confidence: %s", len(warnings), strings.Join(parts, "; "))
}
