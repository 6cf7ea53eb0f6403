package webhook

import (
	"fmt"
	"os"
)

// lookupSecret resolves a webhook config's SigningSecretEnv to its
// actual value. Operators name an env var rather than storing the
// secret itself in the config row.
func lookupSecret(envName string) string {
	return os.Getenv(envName)
}

// DeriveExternalID picks the stable, provider-specific identifier used
// to derive flow/conversation identity for webhook-originated tasks
//. It prefers the narrowest identifier that ties repeated
// events (comments, re-deliveries) back to the same thread.
func DeriveExternalID(provider string, payload map[string]any) string {
	switch provider {
	case "github":
		if issue, ok := payload["issue"].(map[string]any); ok {
			if n, ok := issue["number"]; ok {
				if repo, ok := payload["repository"].(map[string]any); ok {
					if full, ok := repo["full_name"].(string); ok {
						return fmt.Sprintf("github:%s#%v", full, n)
					}
				}
				return fmt.Sprintf("github:issue:%v", n)
			}
		}
		if pr, ok := payload["pull_request"].(map[string]any); ok {
			if n, ok := pr["number"]; ok {
				return fmt.Sprintf("github:pr:%v", n)
			}
		}
	case "jira":
		if issue, ok := payload["issue"].(map[string]any); ok {
			if key, ok := issue["key"].(string); ok {
				return "jira:" + key
			}
		}
	case "slack":
		if ev, ok := payload["event"].(map[string]any); ok {
			if ch, ok := ev["channel"].(string); ok {
				if ts, ok := ev["thread_ts"].(string); ok {
					return "slack:" + ch + ":" + ts
				}
				if ts, ok := ev["ts"].(string); ok {
					return "slack:" + ch + ":" + ts
				}
			}
		}
	case "sentry":
		if id, ok := payload["id"].(string); ok {
			return "sentry:" + id
		}
	}
	return ""
}
