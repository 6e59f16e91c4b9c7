package resolver

import (
	"fmt"

	"github.com/rpattn/schemaflow/internal/domain"
)

// typeGroup buckets field types whose values move between each other without
// loss of meaning.
type typeGroup int

const (
	groupNone typeGroup = iota
	groupText
	groupNumeric
	groupTemporal
)

var fieldTypeGroups = map[domain.FieldType]typeGroup{
	domain.FieldTypeText:        groupText,
	domain.FieldTypeLongText:    groupText,
	domain.FieldTypeEmail:       groupText,
	domain.FieldTypeURL:         groupText,
	domain.FieldTypePhoneNumber: groupText,
	domain.FieldTypeNumber:      groupNumeric,
	domain.FieldTypeCurrency:    groupNumeric,
	domain.FieldTypePercent:     groupNumeric,
	domain.FieldTypeDate:        groupTemporal,
	domain.FieldTypeDateTime:    groupTemporal,
	domain.FieldTypeTime:        groupTemporal,
}

// TypesCompatible reports whether values can flow from source to target type
// without a lossy conversion. Anything widens to text.
func TypesCompatible(source, target domain.FieldType) bool {
	if target == domain.FieldTypeText {
		return true
	}
	sourceGroup := fieldTypeGroups[source]
	targetGroup := fieldTypeGroups[target]
	if sourceGroup == groupNone || targetGroup == groupNone {
		return source == target
	}
	return sourceGroup == targetGroup
}

// FieldMapping links a resolved source field to a resolved target field.
// Compatible is false only when a side failed to resolve; a cross-group type
// pair produces a non-blocking warning and the mapping still proceeds.
type FieldMapping struct {
	SourceRef  string                `json:"source_ref"`
	TargetRef  string                `json:"target_ref"`
	Source     *domain.ResolvedField `json:"source,omitempty"`
	Target     *domain.ResolvedField `json:"target,omitempty"`
	Compatible bool                  `json:"compatible"`
	Warning    string                `json:"warning,omitempty"`
}

// CreateFieldMapping resolves both sides of a mapping independently and
// annotates type compatibility.
func (r *Resolver) CreateFieldMapping(sourceSchema, targetSchema domain.Schema, sourceRef, targetRef string) FieldMapping {
	mapping := FieldMapping{SourceRef: sourceRef, TargetRef: targetRef}

	if source, ok := r.ResolveRefWithCommonAliases(sourceSchema, sourceRef); ok {
		mapping.Source = &source
	}
	if target, ok := r.ResolveRefWithCommonAliases(targetSchema, targetRef); ok {
		mapping.Target = &target
	}

	if mapping.Source == nil || mapping.Target == nil {
		return mapping
	}

	mapping.Compatible = true
	if !TypesCompatible(mapping.Source.FieldType, mapping.Target.FieldType) {
		mapping.Warning = fmt.Sprintf(
			"mapping %s (%s) to %s (%s) crosses type groups and may lose information",
			mapping.Source.FieldKey, mapping.Source.FieldType,
			mapping.Target.FieldKey, mapping.Target.FieldType,
		)
	}

	return mapping
}
