package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// ReindexRequest is the wire payload for one knowledge-layer reindex.
type ReindexRequest struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	SchemaID       uuid.UUID `json:"schema_id"`
	Reason         string    `json:"reason"`
	RequestedAt    time.Time `json:"requested_at"`
}

// NATSReindexQueue publishes reindex requests on a NATS subject for the
// knowledge-layer workers to consume.
type NATSReindexQueue struct {
	conn    *nats.Conn
	subject string
	logger  *logrus.Logger
}

// NewNATSReindexQueue connects to NATS and returns a queue publishing on the
// given subject.
func NewNATSReindexQueue(url, subject string, maxReconnect int, reconnectWait time.Duration, logger *logrus.Logger) (*NATSReindexQueue, error) {
	opts := []nats.Option{
		nats.MaxReconnects(maxReconnect),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSReindexQueue{conn: conn, subject: subject, logger: logger}, nil
}

func (q *NATSReindexQueue) EnqueueReindex(_ context.Context, organizationID, schemaID uuid.UUID, reason string) error {
	request := ReindexRequest{
		OrganizationID: organizationID,
		SchemaID:       schemaID,
		Reason:         reason,
		RequestedAt:    time.Now(),
	}
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal reindex request: %w", err)
	}
	if err := q.conn.Publish(q.subject, data); err != nil {
		return fmt.Errorf("failed to publish reindex request: %w", err)
	}
	q.logger.Debugf("Published reindex request for schema %s", schemaID)
	return nil
}

// Close closes the NATS connection.
func (q *NATSReindexQueue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// LogReindexQueue records reindex requests in the log. It stands in when no
// NATS deployment is configured.
type LogReindexQueue struct {
	logger *logrus.Logger
}

func NewLogReindexQueue(logger *logrus.Logger) *LogReindexQueue {
	return &LogReindexQueue{logger: logger}
}

func (q *LogReindexQueue) EnqueueReindex(_ context.Context, organizationID, schemaID uuid.UUID, reason string) error {
	q.logger.WithFields(logrus.Fields{
		"organization_id": organizationID,
		"schema_id":       schemaID,
	}).Infof("reindex requested: %s", reason)
	return nil
}
