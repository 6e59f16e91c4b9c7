package domain

// SeverityLevel grades how risky one schema change is for downstream consumers
type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "critical"
	SeverityHigh     SeverityLevel = "high"
	SeverityMedium   SeverityLevel = "medium"
	SeverityLow      SeverityLevel = "low"
)

// SeverityAssessment is the outcome of assessing one change event. Blocking
// is a property of the change itself, independent of whether later auto-fix
// attempts succeed.
type SeverityAssessment struct {
	Level                   SeverityLevel `json:"level"`
	RequiresImmediateAction bool          `json:"requires_immediate_action"`
	BlockingAction          bool          `json:"blocking_action"`
	UserMessage             string        `json:"user_message"`
	Recommendation          string        `json:"recommendation"`
	AffectedItemCount       int           `json:"affected_item_count"`
}
