package schedule

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Tolerant accessors over the untyped parameter trees delivered by the n8n
// API. Numeric values may arrive as JSON numbers, Go ints (from tests), or
// numeric strings; all are accepted as long as the result is finite and
// integral. Fractional values are rejected outright: flooring "1.5" minutes
// would silently change the schedule, and passing the float through would
// produce invalid cron syntax.

func getString(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}

	if value, ok := obj[key].(string); ok {
		return value
	}

	return ""
}

func getMap(obj map[string]any, key string) map[string]any {
	if obj == nil {
		return nil
	}

	if value, ok := obj[key].(map[string]any); ok {
		return value
	}

	return nil
}

func getList(obj map[string]any, key string) []any {
	if obj == nil {
		return nil
	}

	if value, ok := obj[key].([]any); ok {
		return value
	}

	return nil
}

func getInt(obj map[string]any, key string) (int, bool) {
	if obj == nil {
		return 0, false
	}

	return coerceInt(obj[key])
}

func coerceInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}

		return int(v), true
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, false
		}

		return int(parsed), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}

		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed != math.Trunc(parsed) {
			return 0, false
		}

		return int(parsed), true
	default:
		return 0, false
	}
}

func intList(values []any) []int {
	var out []int

	for _, raw := range values {
		if n, ok := coerceInt(raw); ok {
			out = append(out, n)
		}
	}

	return out
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ",")
}
