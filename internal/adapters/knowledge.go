package adapters

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/schemaflow/internal/domain"
)

// ReindexQueue accepts requests to rebuild the natural-language knowledge
// layer for one schema.
type ReindexQueue interface {
	EnqueueReindex(ctx context.Context, organizationID, schemaID uuid.UUID, reason string) error
}

// KnowledgeRefresher keeps the knowledge layer's understanding of a schema
// current by requesting a re-index after the shape changes.
type KnowledgeRefresher struct {
	queue  ReindexQueue
	logger *logrus.Logger
}

// NewKnowledgeRefresher wires a knowledge-layer refresher.
func NewKnowledgeRefresher(queue ReindexQueue, logger *logrus.Logger) *KnowledgeRefresher {
	return &KnowledgeRefresher{queue: queue, logger: logger}
}

func (a *KnowledgeRefresher) Name() string {
	return string(domain.SystemKnowledge)
}

// Adapt enqueues one re-index request. Additions are skipped: the layer picks
// up new fields on its regular crawl and nothing stale exists yet.
func (a *KnowledgeRefresher) Adapt(ctx context.Context, event domain.SchemaChangeEvent) error {
	if event.ChangeType == domain.ChangeFieldAdded {
		return nil
	}

	reason := fmt.Sprintf("schema change %s on %s", event.ChangeType, event.SchemaID)
	if err := a.queue.EnqueueReindex(ctx, event.OrganizationID, event.SchemaID, reason); err != nil {
		return fmt.Errorf("enqueue knowledge reindex: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"event_id":  event.ID,
		"schema_id": event.SchemaID,
	}).Debug("queued knowledge layer reindex")
	return nil
}
