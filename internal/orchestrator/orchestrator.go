package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/conversion"
	"github.com/rpattn/schemaflow/internal/domain"
	"github.com/rpattn/schemaflow/internal/notify"
	"github.com/rpattn/schemaflow/internal/severity"
)

// Orchestrator coordinates how one schema change event ripples out: severity
// assessment, UX routing, optional type-conversion delegation, and a
// concurrent failure-isolated fan-out to every consumer adapter.
type Orchestrator struct {
	events     EventStore
	sink       notify.Sink
	conversion ConversionEngine
	adapters   []Adapter
	logger     *logrus.Logger
}

// New wires an orchestrator. The conversion engine may be nil when no
// conversion collaborator exists in the deployment.
func New(events EventStore, sink notify.Sink, conversionEngine ConversionEngine, adapters []Adapter, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		events:     events,
		sink:       sink,
		conversion: conversionEngine,
		adapters:   adapters,
		logger:     logger,
	}
}

// AdapterOutcome records how one adapter fared during the fan-out.
type AdapterOutcome struct {
	Adapter string
	Err     error
}

// ProcessResult reports everything ProcessSchemaChangeEvent decided and
// attempted for one event.
type ProcessResult struct {
	Event      domain.SchemaChangeEvent
	Assessment domain.SeverityAssessment
	Outcomes   []AdapterOutcome
}

// ProcessSchemaChangeEvent runs the full pipeline for one event: measure real
// impact, assess severity, route the UX decision, delegate type conversion,
// fan out to consumers, and mark the event processed. Every phase is safe to
// repeat; only a failure to persist the processed flag is returned as an
// error.
func (o *Orchestrator) ProcessSchemaChangeEvent(ctx context.Context, event domain.SchemaChangeEvent) (ProcessResult, error) {
	event = o.measureImpact(ctx, event)

	assessment := severity.AssessSeverity(event)
	o.routeNotification(ctx, event, assessment)

	if event.ChangeType == domain.ChangeFieldTypeChanged && o.conversion != nil {
		o.handleTypeConversion(ctx, event)
	}

	outcomes := o.fanOut(ctx, event)

	// The queue must drain even under partial failure: processed flips
	// unconditionally once every phase has been attempted.
	if err := o.events.MarkProcessed(ctx, event.OrganizationID, event.ID); err != nil {
		return ProcessResult{Event: event, Assessment: assessment, Outcomes: outcomes},
			fmt.Errorf("mark event %s processed: %w", event.ID, err)
	}

	return ProcessResult{Event: event, Assessment: assessment, Outcomes: outcomes}, nil
}

// SweepStats tallies one pass over the unprocessed backlog.
type SweepStats struct {
	Processed int
	Failed    int
}

// ProcessUnprocessedEvents fetches every unprocessed event in scope and runs
// the pipeline on each sequentially. One event's failure is tallied and the
// sweep continues; only failing to fetch the backlog aborts.
func (o *Orchestrator) ProcessUnprocessedEvents(ctx context.Context, organizationID uuid.UUID, schemaID *uuid.UUID) (SweepStats, error) {
	events, err := o.events.ListUnprocessed(ctx, organizationID, schemaID)
	if err != nil {
		return SweepStats{}, fmt.Errorf("list unprocessed events: %w", err)
	}

	stats := SweepStats{}
	for _, event := range events {
		if _, err := o.ProcessSchemaChangeEvent(ctx, event); err != nil {
			stats.Failed++
			o.logger.WithField("event_id", event.ID).Errorf("failed to process event: %v", err)
			continue
		}
		stats.Processed++
	}

	return stats, nil
}

// measureImpact asks each measuring adapter for its category's real
// affected-item count. A measurement failure keeps the diff-time prediction
// and never blocks the pipeline.
func (o *Orchestrator) measureImpact(ctx context.Context, event domain.SchemaChangeEvent) domain.SchemaChangeEvent {
	for _, adapter := range o.adapters {
		measurer, ok := adapter.(Measurer)
		if !ok {
			continue
		}
		count, err := measurer.Measure(ctx, event)
		if err != nil {
			o.logger.WithFields(logrus.Fields{
				"event_id": event.ID,
				"adapter":  adapter.Name(),
			}).Warnf("impact measurement failed: %v", err)
			continue
		}
		event = event.WithMeasuredImpact(domain.SystemCategory(adapter.Name()), count)
	}
	return event
}

// routeNotification chooses the UX branch and payload for an assessment.
// Delivery is the sink's concern. Severity high and above always produces a
// notification, regardless of how later adaptation fares.
func (o *Orchestrator) routeNotification(ctx context.Context, event domain.SchemaChangeEvent, assessment domain.SeverityAssessment) {
	notification := notify.Notification{
		Title:    fmt.Sprintf("Schema change: %s", event.ChangeType),
		Message:  assessment.UserMessage,
		Type:     notificationType(assessment.Level),
		Severity: assessment.Level,
		Blocking: assessment.BlockingAction,
		Metadata: map[string]any{
			"event_id":       event.ID.String(),
			"schema_id":      event.SchemaID.String(),
			"change_type":    string(event.ChangeType),
			"affected_items": assessment.AffectedItemCount,
			"recommendation": assessment.Recommendation,
		},
	}

	var err error
	switch assessment.Level {
	case domain.SeverityCritical:
		notification.Actions = []string{notify.ActionCancel, notify.ActionViewImpact, notify.ActionForce}
		err = o.sink.Notify(ctx, notification)
	case domain.SeverityHigh:
		notification.Actions = []string{notify.ActionOpenFixWizard, notify.ActionViewImpact}
		err = o.sink.Notify(ctx, notification)
	case domain.SeverityMedium:
		if err = o.sink.Notify(ctx, notification); err == nil {
			err = o.sink.Record(ctx, notification)
		}
	default:
		err = o.sink.Record(ctx, notification)
	}

	if err != nil {
		o.logger.WithField("event_id", event.ID).Warnf("notification delivery failed: %v", err)
	}
}

// handleTypeConversion delegates to the conversion collaborator: safe pairs
// auto-convert, anything else gets a sampled preview and a pending-approval
// record instead.
func (o *Orchestrator) handleTypeConversion(ctx context.Context, event domain.SchemaChangeEvent) {
	if o.conversion.IsSafeConversion(event.OldType, event.NewType) {
		if err := o.conversion.ConvertFieldType(ctx, event); err != nil {
			o.logger.WithField("event_id", event.ID).Errorf("auto-conversion failed: %v", err)
		}
		return
	}

	fieldKey := event.NewKey
	if fieldKey == "" {
		fieldKey = event.OldKey
	}
	preview, err := o.conversion.GenerateConversionPreview(ctx, event.OrganizationID, event.SchemaID, fieldKey, event.OldType, event.NewType, conversion.DefaultSampleSize)
	if err != nil {
		o.logger.WithField("event_id", event.ID).Errorf("conversion preview failed: %v", err)
		return
	}
	if _, err := o.conversion.CreateConversionApprovalRequest(ctx, event, preview); err != nil {
		o.logger.WithField("event_id", event.ID).Errorf("conversion approval request failed: %v", err)
	}
}

// fanOut runs every adapter concurrently and independently. One adapter's
// failure or panic is logged with the event id and adapter name and never
// cancels, delays, or otherwise affects its siblings.
func (o *Orchestrator) fanOut(ctx context.Context, event domain.SchemaChangeEvent) []AdapterOutcome {
	outcomes := make([]AdapterOutcome, len(o.adapters))

	var wg sync.WaitGroup
	for i, adapter := range o.adapters {
		wg.Add(1)
		go func(i int, adapter Adapter) {
			defer wg.Done()
			outcomes[i] = AdapterOutcome{Adapter: adapter.Name(), Err: o.runAdapter(ctx, adapter, event)}
		}(i, adapter)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			o.logger.WithFields(logrus.Fields{
				"event_id": event.ID,
				"adapter":  outcome.Adapter,
			}).Errorf("adapter failed: %v", outcome.Err)
		}
	}

	return outcomes
}

func (o *Orchestrator) runAdapter(ctx context.Context, adapter Adapter, event domain.SchemaChangeEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter panicked: %v", r)
		}
	}()
	return adapter.Adapt(ctx, event)
}

func notificationType(level domain.SeverityLevel) string {
	switch level {
	case domain.SeverityCritical:
		return "error"
	case domain.SeverityHigh, domain.SeverityMedium:
		return "warning"
	default:
		return "info"
	}
}

// RecordChanges appends freshly detected change events to the durable log.
// Appending stops at the first persistence failure: without a durable log no
// further progress can be made.
func (o *Orchestrator) RecordChanges(ctx context.Context, events []domain.SchemaChangeEvent) error {
	for _, event := range events {
		if err := o.events.Append(ctx, event); err != nil {
			return fmt.Errorf("append event %s: %w", event.ID, err)
		}
	}
	return nil
}
