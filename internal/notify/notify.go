package notify

import (
	"context"

	"github.com/rpattn/schemaflow/internal/domain"
)

// Well-known notification actions offered to the operator.
const (
	ActionCancel        = "cancel"
	ActionViewImpact    = "view_impact"
	ActionForce         = "force"
	ActionOpenFixWizard = "open_fix_wizard"
)

// Notification is the payload handed to the UX/notification collaborator.
// The engine decides content and routing branch only; delivery channels are
// the sink's concern.
type Notification struct {
	Title    string               `json:"title"`
	Message  string               `json:"message"`
	Type     string               `json:"type"`
	Severity domain.SeverityLevel `json:"severity"`
	Blocking bool                 `json:"blocking"`
	Actions  []string             `json:"actions,omitempty"`
	Metadata map[string]any       `json:"metadata,omitempty"`
}

// Sink delivers notifications and records durable dashboard entries.
type Sink interface {
	// Notify delivers an active notification to the operator.
	Notify(ctx context.Context, notification Notification) error
	// Record appends a durable dashboard entry without alerting anyone.
	Record(ctx context.Context, notification Notification) error
}
