package plans

import "math"

// getOrCreateMap returns an existing nested map or creates a new one at the given key.
func getOrCreateMap(parent map[string]any, key string) map[string]any {
	if parent == nil {
		return map[string]any{}
	}
	if val, ok := parent[key]; ok {
		if m, ok := val.(map[string]any); ok && m != nil {
			return m
		}
	}
	m := make(map[string]any)
	parent[key] = m
	return m
}

// getMap returns the nested map stored under key, if any.
func getMap(parent map[string]any, key string) (map[string]any, bool) {
	if parent == nil {
		return nil, false
	}
	m, ok := parent[key].(map[string]any)
	return m, ok && m != nil
}

// getSliceOfMaps returns a normalized slice of maps stored under the given key.
func getSliceOfMaps(parent map[string]any, key string) []map[string]any {
	if parent == nil {
		return nil
	}
	val, ok := parent[key]
	if !ok || val == nil {
		return nil
	}
	return normalizeMapSlice(val)
}

// normalizeMapSlice coerces an interface value into a slice of map documents.
func normalizeMapSlice(value any) []map[string]any {
	if value == nil {
		return nil
	}
	var result []map[string]any
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				result = append(result, m)
			}
		}
	case []map[string]any:
		result = append(result, v...)
	}
	return result
}

// toInt reports integer values; booleans and floats are not integers.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint64:
		if n <= math.MaxInt64 {
			return int(n), true
		}
	}
	return 0, false
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// Clone deep-copies a document made of maps, slices and scalars.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	default:
		return v
	}
}

// CloneDocument deep-copies a document root.
func CloneDocument(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	return Clone(doc).(map[string]any)
}
