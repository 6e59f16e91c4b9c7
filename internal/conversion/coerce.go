package conversion

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/schemaflow/internal/domain"
)

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
}

// CoerceValue converts one stored value to the target field type. It is
// deliberately conservative: values that cannot be converted unambiguously
// return an error rather than a guess.
func CoerceValue(value any, target domain.FieldType) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch target {
	case domain.FieldTypeText, domain.FieldTypeLongText, domain.FieldTypeEmail, domain.FieldTypeURL, domain.FieldTypePhoneNumber:
		return toText(value), nil
	case domain.FieldTypeNumber, domain.FieldTypeCurrency, domain.FieldTypePercent:
		return toNumber(value)
	case domain.FieldTypeDate, domain.FieldTypeDateTime, domain.FieldTypeTime:
		return toTimestamp(value)
	case domain.FieldTypeCheckbox:
		return toBool(value)
	default:
		return value, nil
	}
}

func toText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		trimmed := strings.TrimSpace(v)
		trimmed = strings.TrimPrefix(trimmed, "$")
		trimmed = strings.TrimSuffix(trimmed, "%")
		trimmed = strings.ReplaceAll(trimmed, ",", "")
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to a number", value)
	}
}

func toTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("%q is not a recognized date", v)
	case float64:
		// Numeric values are treated as Unix seconds.
		return time.Unix(int64(v), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to a date", value)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(v)))
		if err != nil {
			return false, fmt.Errorf("%q is not a boolean", v)
		}
		return parsed, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("cannot convert %T to a boolean", value)
	}
}
