package domain

// MatchType identifies which resolution strategy produced a match
type MatchType string

const (
	MatchExactKey   MatchType = "exact_key"
	MatchExactLabel MatchType = "exact_label"
	MatchAlias      MatchType = "alias"
	MatchFuzzy      MatchType = "fuzzy"
	MatchByType     MatchType = "type"
)

// Confidence tiers reported per match strategy. The ordering is part of the
// resolver contract: exact_key > exact_label > alias > fuzzy > type.
const (
	ConfidenceExactKey   = 1.0
	ConfidenceExactLabel = 0.95
	ConfidenceAlias      = 0.8
	ConfidenceFuzzy      = 0.6
	ConfidenceByType     = 0.5
)

// ResolvedField is the resolver's best match for a loose field reference
// against one schema snapshot.
type ResolvedField struct {
	FieldID    string    `json:"field_id"`
	FieldKey   string    `json:"field_key"`
	FieldLabel string    `json:"field_label"`
	FieldType  FieldType `json:"field_type"`
	Confidence float64   `json:"confidence"`
	MatchType  MatchType `json:"match_type"`
}

// NewResolvedField builds a ResolvedField for a schema field matched via the
// given strategy.
func NewResolvedField(field SchemaField, matchType MatchType, confidence float64) ResolvedField {
	return ResolvedField{
		FieldID:    field.ID,
		FieldKey:   field.Key,
		FieldLabel: field.Label,
		FieldType:  field.Type,
		Confidence: confidence,
		MatchType:  matchType,
	}
}
