package resolver

import (
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/domain"
)

// FieldQuery is a loose field reference to resolve against a schema snapshot.
// Any subset of the criteria may be present.
type FieldQuery struct {
	Name    string
	Key     string
	Aliases []string
	Type    domain.FieldType
}

// QueryFromRef treats a bare string reference as both name and key.
func QueryFromRef(ref string) FieldQuery {
	return FieldQuery{Name: ref, Key: ref}
}

// Resolver resolves loose field references against schema snapshots. A nil
// cache disables memoization.
type Resolver struct {
	cache *Cache
}

// New constructs a resolver with an optional injected cache.
func New(cache *Cache) *Resolver {
	return &Resolver{cache: cache}
}

// ResolveField resolves a query against one schema snapshot. Strategies are
// tried in descending confidence order and the first hit wins, so a field
// matched by exact key can never be shadowed by a lower-confidence strategy.
//
// Note: the legacy engine checked the type strategy before fuzzy containment
// even though fuzzy reports the higher confidence; that ordering could return
// a 0.5 type match when a 0.6 fuzzy match existed and is deliberately not
// preserved here.
func (r *Resolver) ResolveField(schema domain.Schema, query FieldQuery) (domain.ResolvedField, bool) {
	if query.Key != "" {
		for _, field := range schema.Fields {
			if field.Key == query.Key {
				return domain.NewResolvedField(field, domain.MatchExactKey, domain.ConfidenceExactKey), true
			}
		}
	}

	if query.Name != "" {
		for _, field := range schema.Fields {
			if strings.EqualFold(field.Label, query.Name) {
				return domain.NewResolvedField(field, domain.MatchExactLabel, domain.ConfidenceExactLabel), true
			}
		}
	}

	for _, alias := range query.Aliases {
		if alias == "" {
			continue
		}
		for _, field := range schema.Fields {
			if field.Key == alias || strings.EqualFold(field.Label, alias) {
				return domain.NewResolvedField(field, domain.MatchAlias, domain.ConfidenceAlias), true
			}
		}
	}

	for _, candidate := range []string{query.Key, query.Name} {
		normalized := normalizeRef(candidate)
		if normalized == "" {
			continue
		}
		for _, field := range schema.Fields {
			if fuzzyContains(normalized, normalizeRef(field.Key)) || fuzzyContains(normalized, normalizeRef(field.Label)) {
				return domain.NewResolvedField(field, domain.MatchFuzzy, domain.ConfidenceFuzzy), true
			}
		}
	}

	if query.Type != "" {
		for _, field := range schema.Fields {
			if !field.Hidden && field.Type == query.Type {
				return domain.NewResolvedField(field, domain.MatchByType, domain.ConfidenceByType), true
			}
		}
	}

	return domain.ResolvedField{}, false
}

// ResolveRef resolves a bare string reference, consulting the cache when one
// is configured. A cached negative result is returned without recomputing.
func (r *Resolver) ResolveRef(schema domain.Schema, ref string) (domain.ResolvedField, bool) {
	return r.resolveCached(schema, "ref:"+ref, func() (domain.ResolvedField, bool) {
		return r.ResolveField(schema, QueryFromRef(ref))
	})
}

// ResolveRefWithCommonAliases augments the reference with the static domain
// alias table plus case-convention variants of the literal reference before
// resolving.
func (r *Resolver) ResolveRefWithCommonAliases(schema domain.Schema, ref string) (domain.ResolvedField, bool) {
	return r.resolveCached(schema, "alias:"+ref, func() (domain.ResolvedField, bool) {
		query := QueryFromRef(ref)
		query.Aliases = expandAliases(ref)
		return r.ResolveField(schema, query)
	})
}

func (r *Resolver) resolveCached(schema domain.Schema, cacheRef string, resolve func() (domain.ResolvedField, bool)) (domain.ResolvedField, bool) {
	if r.cache == nil {
		return resolve()
	}

	if cached, hit := r.cache.Get(schema.ID, cacheRef); hit {
		if cached == nil {
			return domain.ResolvedField{}, false
		}
		return *cached, true
	}

	resolved, ok := resolve()
	if !ok {
		r.cache.Set(schema.ID, cacheRef, nil)
		return domain.ResolvedField{}, false
	}
	r.cache.Set(schema.ID, cacheRef, &resolved)
	return resolved, true
}

// InvalidateSchema evicts all cached resolutions for a schema. Callers that
// mutate a schema are responsible for invoking this; the cache does not
// self-invalidate on writes.
func (r *Resolver) InvalidateSchema(schemaID uuid.UUID) {
	if r.cache != nil {
		r.cache.ClearSchema(schemaID)
	}
}

// normalizeRef strips separators and lowercases so "Contact Email",
// "contact_email" and "contact-email" all normalize identically.
func normalizeRef(ref string) string {
	var builder strings.Builder
	builder.Grow(len(ref))
	for _, r := range ref {
		switch r {
		case ' ', '_', '-', '.':
			continue
		}
		builder.WriteRune(r)
	}
	return strings.ToLower(builder.String())
}

// fuzzyContains reports substring containment in either direction between two
// normalized references.
func fuzzyContains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
