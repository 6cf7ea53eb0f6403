package webhook

import "fmt"

// ExtractEventType derives the event type string per provider
//.
func ExtractEventType(provider string, githubEventHeader string, payload map[string]any) string {
	switch provider {
	case "github":
		action, _ := payload["action"].(string)
		if action == "" {
			return githubEventHeader
		}
		return fmt.Sprintf("%s.%s", githubEventHeader, action)
	case "jira":
		if v, ok := payload["webhookEvent"].(string); ok {
			return v
		}
		return ""
	case "slack":
		if t, ok := payload["type"].(string); ok {
			if t == "event_callback" {
				if ev, ok := payload["event"].(map[string]any); ok {
					if et, ok := ev["type"].(string); ok {
						return et
					}
				}
			}
			return t
		}
		return ""
	case "sentry":
		if v, ok := payload["event"].(string); ok {
			return v
		}
		return ""
	default:
		return ""
	}
}

// ExtractTextBlob pulls the free-text field used for prefix-and-name
// matching, per provider.
func ExtractTextBlob(provider string, payload map[string]any) string {
	switch provider {
	case "github":
		if c, ok := payload["comment"].(map[string]any); ok {
			if body, ok := c["body"].(string); ok {
				return body
			}
		}
		if issue, ok := payload["issue"].(map[string]any); ok {
			if body, ok := issue["body"].(string); ok {
				return body
			}
		}
	case "jira":
		if c, ok := payload["comment"].(map[string]any); ok {
			if body, ok := c["body"].(string); ok {
				return body
			}
		}
	case "slack":
		if ev, ok := payload["event"].(map[string]any); ok {
			if text, ok := ev["text"].(string); ok {
				return text
			}
		}
	}
	return ""
}
