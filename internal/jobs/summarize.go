package jobs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// decodeOutput attempts to parse a task's raw output string as JSON. When
// parsing fails, the raw string itself is returned as the decoded value,
// matching the "fall back to raw string" rule used throughout the report and
// reconciliation paths.
func decodeOutput(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// summarizeValue renders a decoded output value into one human-readable
// line, type-aware for the shapes this repository's jobs actually produce.
func summarizeValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]interface{}:
		if area, ok := val["area"]; ok {
			if f, ok := toFloat(area); ok {
				unit := "square meters"
				if u, ok := val["unit"].(string); ok && u != "" {
					unit = u
				}
				return fmt.Sprintf("Area calculated: %g %s", f, unit)
			}
		}
		if country, ok := val["country"].(string); ok {
			return fmt.Sprintf("Location: %s", country)
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// extractError pulls a "message" or "error" string field out of a decoded
// failed-task output, falling back to a generic message when neither is
// present.
func extractError(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok {
		if msg, ok := m["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := m["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return "Task failed"
}
