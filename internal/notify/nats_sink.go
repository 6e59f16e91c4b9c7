package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSSink publishes notifications and dashboard entries on separate NATS
// subjects, leaving fan-out to channels (email, in-app, chat) to subscribers.
type NATSSink struct {
	conn             *nats.Conn
	notifySubject    string
	dashboardSubject string
	logger           *logrus.Logger
}

// NewNATSSink connects to NATS and returns a sink publishing on the given
// subject pair.
func NewNATSSink(url, notifySubject, dashboardSubject string, maxReconnect int, reconnectWait time.Duration, logger *logrus.Logger) (*NATSSink, error) {
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
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Warn("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Infof("Connected to NATS at %s", url)

	return &NATSSink{
		conn:             conn,
		notifySubject:    notifySubject,
		dashboardSubject: dashboardSubject,
		logger:           logger,
	}, nil
}

func (s *NATSSink) Notify(_ context.Context, notification Notification) error {
	return s.publish(s.notifySubject, notification)
}

func (s *NATSSink) Record(_ context.Context, notification Notification) error {
	return s.publish(s.dashboardSubject, notification)
}

func (s *NATSSink) publish(subject string, notification Notification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}
	s.logger.Debugf("Published %s notification %q to %s", notification.Severity, notification.Title, subject)
	return nil
}

// Close closes the NATS connection.
func (s *NATSSink) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
