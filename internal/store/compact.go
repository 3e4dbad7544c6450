package store

// Compact drops nil values from a decoded JSON patch, recursing into nested
// objects and arrays. A field sent as null is treated as absent and never
// overwrites a stored value.
func Compact(patch map[string]any) map[string]any {
	if patch == nil {
		return nil
	}
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		if v == nil {
			continue
		}
		out[k] = compactValue(v)
	}
	return out
}

func compactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Compact(t)
	case []any:
		items := make([]any, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			items = append(items, compactValue(item))
		}
		return items
	default:
		return v
	}
}
