// Package webhook implements the Webhook Engine (C6): provider
// dispatch, signature verification, event-type extraction, command
// matching, template rendering, and action execution. No teacher file
// implements a third-party webhook engine directly — the handler-per-
// provider structure follows pkg/api/server.go's route-registration
// idiom, and pkg/config/config.go's typed-registry-with-getters
// pattern grounds the config registry in pkg/webhook/registry.go.
package webhook

import (
	"strconv"
	"strings"
)

// RenderTemplate substitutes {{dotted.path}} placeholders in tmpl by
// looking up each path in payload. Missing paths render empty string.
// No loops, no conditionals, no expressions — intentionally minimal
//.
func RenderTemplate(tmpl string, payload map[string]any) string {
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		start := strings.Index(tmpl[i:], "{{")
		if start == -1 {
			out.WriteString(tmpl[i:])
			break
		}
		start += i
		out.WriteString(tmpl[i:start])
		end := strings.Index(tmpl[start:], "}}")
		if end == -1 {
			out.WriteString(tmpl[start:])
			break
		}
		end += start
		path := strings.TrimSpace(tmpl[start+2 : end])
		out.WriteString(lookupPath(payload, path))
		i = end + 2
	}
	return out.String()
}

// lookupPath walks a dotted path through nested maps, returning the
// stringified leaf or "" if any segment is absent or not a map.
func lookupPath(payload map[string]any, path string) string {
	segments := strings.Split(path, ".")
	var cur any = payload
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		v, ok := m[seg]
		if !ok {
			return ""
		}
		cur = v
	}
	return stringify(cur)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatFloat(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
