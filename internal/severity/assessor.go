package severity

import (
	"fmt"

	"github.com/rpattn/schemaflow/internal/domain"
)

// riskyTypeChanges lists the (old, new) type pairs whose conversion can fail
// on existing data and therefore requires an approved conversion preview
// before proceeding.
var riskyTypeChanges = map[[2]domain.FieldType]struct{}{
	{domain.FieldTypeText, domain.FieldTypeNumber}:       {},
	{domain.FieldTypeText, domain.FieldTypeCurrency}:     {},
	{domain.FieldTypeText, domain.FieldTypeDate}:         {},
	{domain.FieldTypeLongText, domain.FieldTypeNumber}:   {},
	{domain.FieldTypeLongText, domain.FieldTypeCurrency}: {},
}

// IsRiskyTypeChange reports whether a type pair belongs to the risky set.
func IsRiskyTypeChange(oldType, newType domain.FieldType) bool {
	_, risky := riskyTypeChanges[[2]domain.FieldType{oldType, newType}]
	return risky
}

// AssessSeverity maps one change event to a severity level and UX policy. It
// is a total function of (change type, affected-item count, type pair):
// every event maps to exactly one outcome, and adding a new change type
// requires adding a corresponding rule here.
func AssessSeverity(event domain.SchemaChangeEvent) domain.SeverityAssessment {
	count := event.AffectedItemCount()

	switch event.ChangeType {
	case domain.ChangeFieldDeleted:
		if count > 0 {
			return domain.SeverityAssessment{
				Level:                   domain.SeverityCritical,
				RequiresImmediateAction: true,
				BlockingAction:          true,
				UserMessage:             fmt.Sprintf("Deleting %q breaks %d dependent items.", fieldDisplayName(event), count),
				Recommendation:          "Review the affected items before confirming the deletion.",
				AffectedItemCount:       count,
			}
		}
		return domain.SeverityAssessment{
			Level:             domain.SeverityLow,
			UserMessage:       fmt.Sprintf("Field %q was deleted. Nothing depended on it.", fieldDisplayName(event)),
			Recommendation:    "No action needed.",
			AffectedItemCount: count,
		}

	case domain.ChangeFieldTypeChanged:
		if IsRiskyTypeChange(event.OldType, event.NewType) {
			return domain.SeverityAssessment{
				Level:                   domain.SeverityHigh,
				RequiresImmediateAction: true,
				UserMessage:             fmt.Sprintf("Converting %q from %s to %s can fail on existing values.", fieldDisplayName(event), event.OldType, event.NewType),
				Recommendation:          "Review the conversion preview and approve it before values are rewritten.",
				AffectedItemCount:       count,
			}
		}
		return domain.SeverityAssessment{
			Level:             domain.SeverityMedium,
			UserMessage:       fmt.Sprintf("Field %q changed type from %s to %s.", fieldDisplayName(event), event.OldType, event.NewType),
			Recommendation:    "Values convert automatically; spot-check downstream consumers.",
			AffectedItemCount: count,
		}

	case domain.ChangeFieldRenamed, domain.ChangeFieldKeyChanged:
		switch {
		case count > 5:
			return domain.SeverityAssessment{
				Level:             domain.SeverityHigh,
				UserMessage:       fmt.Sprintf("Renaming %q affects %d dependent items.", fieldDisplayName(event), count),
				Recommendation:    "Use the guided fix to update stored references.",
				AffectedItemCount: count,
			}
		case count > 0:
			return domain.SeverityAssessment{
				Level:             domain.SeverityMedium,
				UserMessage:       fmt.Sprintf("Renaming %q affects %d dependent items.", fieldDisplayName(event), count),
				Recommendation:    "Dependent references will be re-resolved; verify external mappings.",
				AffectedItemCount: count,
			}
		default:
			return domain.SeverityAssessment{
				Level:             domain.SeverityLow,
				UserMessage:       fmt.Sprintf("Field %q was renamed. Nothing depended on it.", fieldDisplayName(event)),
				Recommendation:    "No action needed.",
				AffectedItemCount: count,
			}
		}

	case domain.ChangeSchemaRenamed:
		return domain.SeverityAssessment{
			Level:             domain.SeverityMedium,
			UserMessage:       fmt.Sprintf("Schema renamed from %q to %q.", event.OldName, event.NewName),
			Recommendation:    "Storefront and knowledge references update automatically.",
			AffectedItemCount: count,
		}

	case domain.ChangeFieldAdded:
		return domain.SeverityAssessment{
			Level:             domain.SeverityLow,
			UserMessage:       fmt.Sprintf("Field %q was added.", fieldDisplayName(event)),
			Recommendation:    "No action needed.",
			AffectedItemCount: count,
		}

	default:
		return domain.SeverityAssessment{
			Level:             domain.SeverityLow,
			UserMessage:       fmt.Sprintf("Schema change %q recorded.", event.ChangeType),
			Recommendation:    "No action needed.",
			AffectedItemCount: count,
		}
	}
}

func fieldDisplayName(event domain.SchemaChangeEvent) string {
	switch {
	case event.OldName != "":
		return event.OldName
	case event.NewName != "":
		return event.NewName
	case event.OldKey != "":
		return event.OldKey
	case event.NewKey != "":
		return event.NewKey
	default:
		return event.FieldID
	}
}
