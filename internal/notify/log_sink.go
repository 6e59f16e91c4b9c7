package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSink writes notifications to the structured log. It is the default sink
// when no message transport is configured.
type LogSink struct {
	logger *logrus.Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, notification Notification) error {
	s.fields(notification).Warn(notification.Message)
	return nil
}

func (s *LogSink) Record(_ context.Context, notification Notification) error {
	s.fields(notification).Info(notification.Message)
	return nil
}

func (s *LogSink) fields(notification Notification) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"title":    notification.Title,
		"severity": notification.Severity,
		"blocking": notification.Blocking,
	})
}
