package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// parseOutcome is the tagged result of decoding a model response: either a
// parsed object or a malformed-response marker with the warning to record.
// Parsing never aborts a fragment.
type parseOutcome struct {
	data    map[string]any
	warning string
}

func (o parseOutcome) ok() bool {
	return o.data != nil
}

// parseResponse decodes the model's JSON, tolerating the usual decoration:
// markdown code fences and prose before or after the object.
func parseResponse(phase, raw string) parseOutcome {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		return parseOutcome{warning: fmt.Sprintf("%s: respuesta sin objeto JSON", phase)}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return parseOutcome{warning: fmt.Sprintf("%s: respuesta JSON malformada: %v", phase, err)}
	}
	return parseOutcome{data: data}
}

// cleanJSON strips markdown fences and trims the text to the outermost
// object literal. Returns "" when no object is present.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// Loose accessors. Model output is duck-typed: numbers arrive as float64 or
// as quoted strings, lists may be absent. cast absorbs the variance.

func asString(m map[string]any, key string) string {
	return cast.ToString(m[key])
}

func asFloat(m map[string]any, key string) float64 {
	return cast.ToFloat64(m[key])
}

func asInt(m map[string]any, key string) int {
	return cast.ToInt(m[key])
}

func asBool(m map[string]any, key string) bool {
	return cast.ToBool(m[key])
}

func asStringSlice(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	return cast.ToStringSlice(v)
}

// asObjects returns the list of objects under key, skipping non-object
// elements.
func asObjects(m map[string]any, key string) []map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// optInt returns a pointer only when the key holds a usable number.
func optInt(m map[string]any, key string) *int {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}
	return &n
}

// optFloat returns a pointer only when the key holds a usable number.
func optFloat(m map[string]any, key string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}
