package filter

import (
	"net/url"
	"strings"
)

// RawFromQuery converts URL query parameters into the raw map consumed by Sanitize.
//
// Supported shapes:
//
//	categories[]=3&categories[]=5
//	categories=3,5
//	attributes[pa_color][]=7&attributes[pa_color][]=9
//	attributes[pa_size]=11,12
func RawFromQuery(values url.Values) map[string]any {
	raw := make(map[string]any, len(values))
	attrs := map[string][]string{}

	for key, vals := range values {
		switch {
		case key == KeyCategories || key == KeyCategories+"[]":
			existing, _ := raw[KeyCategories].([]string)
			raw[KeyCategories] = append(existing, vals...)
		case strings.HasPrefix(key, KeyAttributes+"["):
			name, ok := attributeName(key)
			if !ok {
				continue
			}
			attrs[name] = append(attrs[name], vals...)
		default:
			if len(vals) > 0 {
				raw[key] = vals[0]
			}
		}
	}

	if len(attrs) > 0 {
		raw[KeyAttributes] = attrs
	}
	return raw
}

// attributeName extracts "pa_color" from "attributes[pa_color]" or "attributes[pa_color][]".
func attributeName(key string) (string, bool) {
	rest := strings.TrimPrefix(key, KeyAttributes+"[")
	end := strings.Index(rest, "]")
	if end <= 0 {
		return "", false
	}
	tail := rest[end+1:]
	if tail != "" && tail != "[]" {
		return "", false
	}
	return rest[:end], true
}
