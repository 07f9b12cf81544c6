package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// detailPriority fields lead the details view.
var detailPriority = []string{"name", "namespace", "labels", "description", "domains"}

// detailExcluded fields are never shown in the details view.
var detailExcluded = map[string]bool{
	"system_metadata":           true,
	"get_spec":                  true,
	"status":                    true,
	"referring_objects":         true,
	"disabled_referred_objects": true,
	"object_type":               true,
}

// Generic converts data to the shapes produced by decoding JSON:
// map[string]any, []any, string, float64, bool and nil.
func Generic(data any) (any, error) {
	switch data.(type) {
	case nil, string, bool, float64, map[string]any, []any:
		return data, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return out, nil
}

// Items returns the objects of a list response: the "items" array of a map,
// or the elements of a slice. ok is false for anything else.
func Items(data any) (items []map[string]any, ok bool) {
	var raw []any
	switch v := data.(type) {
	case map[string]any:
		list, isList := v["items"].([]any)
		if !isList {
			return nil, false
		}
		raw = list
	case []any:
		raw = v
	default:
		return nil, false
	}
	items = make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, isMap := item.(map[string]any); isMap {
			items = append(items, m)
		}
	}
	return items, true
}

// lookup returns item[field], falling back to item.metadata[field].
func lookup(item map[string]any, field string) any {
	if v, ok := item[field]; ok && v != nil {
		return v
	}
	if md, ok := item["metadata"].(map[string]any); ok {
		return md[field]
	}
	return nil
}

func formatLabels(labels map[string]any) string {
	if len(labels) == 0 {
		return ""
	}
	keys := sortedKeys(labels)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s:%v", k, labels[k])
	}
	return "map[" + strings.Join(parts, " ") + "]"
}

// cellValue renders a value for a table cell.
func cellValue(field string, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if field == "labels" {
			return formatLabels(v)
		}
	}
	return detailValue(value)
}

// detailValue renders a value for the details view and text output.
func detailValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatNumber(v)
	case bool:
		return fmt.Sprint(v)
	case []any:
		simple := len(v) <= 5
		parts := make([]string, 0, len(v))
		for _, item := range v {
			switch s := item.(type) {
			case string:
				parts = append(parts, s)
			case float64:
				parts = append(parts, formatNumber(s))
			default:
				simple = false
			}
		}
		if simple {
			return "[" + strings.Join(parts, ", ") + "]"
		}
	case map[string]any:
		if len(v) <= 3 && allScalar(v) {
			keys := sortedKeys(v)
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = k + ": " + detailValue(v[k])
			}
			return strings.Join(parts, ", ")
		}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(raw)
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(f)
}

func allScalar(m map[string]any) bool {
	for _, v := range m {
		switch v.(type) {
		case string, float64, bool:
		default:
			return false
		}
	}
	return true
}

// Field is one row of the details view.
type Field struct {
	Key   string
	Value string
}

// Flatten merges metadata, spec and top-level fields of an object into
// key/value rows with the common identity fields first.
func Flatten(obj map[string]any) []Field {
	var out []Field
	seen := make(map[string]bool)
	add := func(key string, value any) {
		if detailExcluded[key] || seen[key] || value == nil {
			return
		}
		seen[key] = true
		var s string
		if labels, ok := value.(map[string]any); ok && key == "labels" {
			s = formatLabels(labels)
		} else {
			s = detailValue(value)
		}
		if s != "" {
			out = append(out, Field{Key: key, Value: s})
		}
	}
	addAll := func(m map[string]any, skip ...string) {
		for _, k := range detailPriority {
			if v, ok := m[k]; ok && !contains(skip, k) {
				add(k, v)
			}
		}
		for _, k := range sortedKeys(m) {
			if !contains(skip, k) {
				add(k, m[k])
			}
		}
	}

	if md, ok := obj["metadata"].(map[string]any); ok {
		addAll(md)
	}
	if spec, ok := obj["spec"].(map[string]any); ok {
		addAll(spec)
	}
	addAll(obj, "metadata", "spec")
	return out
}

// Title returns metadata.name, then name, then a generic title.
func Title(obj map[string]any) string {
	if md, ok := obj["metadata"].(map[string]any); ok {
		if name, ok := md["name"].(string); ok && name != "" {
			return name
		}
	}
	if name, ok := obj["name"].(string); ok && name != "" {
		return name
	}
	return "Resource Details"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
