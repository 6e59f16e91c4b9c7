package resolver

import "strings"

// commonFieldAliases maps well-known field concepts to the machine names they
// commonly appear under across tenant schemas. Matched against both a field's
// key and label at alias confidence.
var commonFieldAliases = map[string][]string{
	"price":       {"cost", "amount", "rate", "hourly_rate", "pricing", "value"},
	"email":       {"contact_email", "email_address", "e_mail", "mail"},
	"phone":       {"phone_number", "mobile", "telephone", "contact_phone"},
	"name":        {"title", "full_name", "display_name", "label"},
	"description": {"details", "summary", "notes", "about"},
	"quantity":    {"qty", "count", "stock", "units"},
	"status":      {"state", "stage"},
	"image":       {"photo", "picture", "thumbnail", "media"},
	"address":     {"location", "street", "address_line"},
	"date":        {"due_date", "scheduled_at", "event_date"},
}

// expandAliases returns the static alias table entries for the reference plus
// camel, snake and kebab case variants of the literal reference itself.
func expandAliases(ref string) []string {
	seen := map[string]struct{}{}
	var aliases []string

	add := func(candidate string) {
		if candidate == "" || candidate == ref {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		aliases = append(aliases, candidate)
	}

	for _, alias := range commonFieldAliases[strings.ToLower(ref)] {
		add(alias)
	}

	add(toSnakeCase(ref))
	add(toCamelCase(ref))
	add(toKebabCase(ref))

	return aliases
}

// splitRefWords breaks a reference on separators and camelCase boundaries.
func splitRefWords(ref string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	for _, r := range ref {
		switch {
		case r == ' ' || r == '_' || r == '-' || r == '.':
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return words
}

func toSnakeCase(ref string) string {
	return strings.Join(splitRefWords(ref), "_")
}

func toKebabCase(ref string) string {
	return strings.Join(splitRefWords(ref), "-")
}

func toCamelCase(ref string) string {
	words := splitRefWords(ref)
	if len(words) == 0 {
		return ""
	}
	var builder strings.Builder
	builder.WriteString(words[0])
	for _, word := range words[1:] {
		if word == "" {
			continue
		}
		builder.WriteString(strings.ToUpper(word[:1]))
		builder.WriteString(word[1:])
	}
	return builder.String()
}
