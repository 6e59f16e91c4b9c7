package diff

import "github.com/rpattn/schemaflow/internal/domain"

// PredictImpact returns the category-level impact template for a change type.
// ItemsAffected is always zero here: real counts are measured later, per
// category, by that category's own consumer validator. Cheap prediction at
// diff time, precise measurement at adaptation time.
func PredictImpact(changeType domain.ChangeType) []domain.AffectedSystem {
	switch changeType {
	case domain.ChangeFieldAdded:
		// Nothing can depend on a field that did not exist yet.
		return []domain.AffectedSystem{}

	case domain.ChangeFieldRenamed, domain.ChangeFieldKeyChanged:
		return []domain.AffectedSystem{
			{
				System:      domain.SystemWorkflows,
				AutoFixable: true,
				Details:     "workflow field references re-resolve at run time",
			},
			{
				System:             domain.SystemIntegrations,
				RequiresUserAction: true,
				Details:            "external field mappings need human review",
			},
			{
				System:      domain.SystemStorefront,
				AutoFixable: true,
				Details:     "product field mappings update automatically",
			},
		}

	case domain.ChangeFieldDeleted:
		return []domain.AffectedSystem{
			{System: domain.SystemWorkflows, RequiresUserAction: true, Details: "workflows referencing the field will fail"},
			{System: domain.SystemIntegrations, RequiresUserAction: true, Details: "integration mappings to the field are broken"},
			{System: domain.SystemStorefront, RequiresUserAction: true, Details: "storefront mappings to the field are broken"},
			{System: domain.SystemForms, RequiresUserAction: true, Details: "forms collecting the field must be edited"},
		}

	case domain.ChangeFieldTypeChanged:
		return []domain.AffectedSystem{
			{System: domain.SystemWorkflows, RequiresUserAction: true, Details: "workflow conditions may compare against the wrong type"},
			{System: domain.SystemAPIConsumers, RequiresUserAction: true, Details: "external API consumers receive a different value shape"},
		}

	case domain.ChangeSchemaRenamed:
		return []domain.AffectedSystem{
			{System: domain.SystemStorefront, AutoFixable: true, Details: "storefront schema references update automatically"},
			{System: domain.SystemKnowledge, AutoFixable: true, Details: "knowledge layer re-indexes under the new name"},
		}

	default:
		return []domain.AffectedSystem{}
	}
}
