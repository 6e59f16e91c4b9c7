package resolver

import (
	"sort"
	"strings"

	"github.com/rpattn/schemaflow/internal/domain"
)

const maxSuggestions = 5

// ReferenceValidation reports whether a loose reference resolves confidently
// against a schema, with ranked suggestions when it does not.
type ReferenceValidation struct {
	Ref         string                `json:"ref"`
	Valid       bool                  `json:"valid"`
	Resolved    *domain.ResolvedField `json:"resolved,omitempty"`
	Suggestions []string              `json:"suggestions,omitempty"`
}

// ValidateFieldReference checks a reference against the schema. A reference
// is valid only when it resolves at alias confidence or better; anything
// weaker returns up to five suggested keys ranked by substring similarity,
// falling back to the first visible fields.
func (r *Resolver) ValidateFieldReference(schema domain.Schema, ref string) ReferenceValidation {
	validation := ReferenceValidation{Ref: ref}

	if resolved, ok := r.ResolveRefWithCommonAliases(schema, ref); ok {
		validation.Resolved = &resolved
		if resolved.Confidence >= domain.ConfidenceAlias {
			validation.Valid = true
			return validation
		}
	}

	validation.Suggestions = suggestKeys(schema, ref)
	return validation
}

type scoredKey struct {
	key   string
	score float64
	order int
}

func suggestKeys(schema domain.Schema, ref string) []string {
	normalized := normalizeRef(ref)

	var scored []scoredKey
	for i, field := range schema.Fields {
		score := refSimilarity(normalized, normalizeRef(field.Key))
		if labelScore := refSimilarity(normalized, normalizeRef(field.Label)); labelScore > score {
			score = labelScore
		}
		if score > 0 {
			scored = append(scored, scoredKey{key: field.Key, score: score, order: i})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].order < scored[j].order
	})

	suggestions := make([]string, 0, maxSuggestions)
	for _, candidate := range scored {
		suggestions = append(suggestions, candidate.key)
		if len(suggestions) == maxSuggestions {
			return suggestions
		}
	}

	if len(suggestions) > 0 {
		return suggestions
	}

	for _, field := range schema.VisibleFields() {
		suggestions = append(suggestions, field.Key)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}

// refSimilarity scores two normalized references: containment scores by
// relative length, otherwise by shared prefix length.
func refSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter, longer := len(a), len(b)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return float64(shorter) / float64(longer)
	}

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	if prefix == 0 {
		return 0
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return float64(prefix) / float64(longer) * 0.5
}
