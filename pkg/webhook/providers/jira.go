package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// JiraOutbound posts comments and labels back to a Jira Cloud/Server
// instance via the plain REST API; no Jira SDK appears anywhere in
// the retrieval pack, so this talks HTTP directly.
type JiraOutbound struct {
	baseURL  string
	email    string
	apiToken string
	http     *http.Client
}

// NewJiraOutbound builds a JiraOutbound from a base URL and basic-auth
// credentials (email + API token, Jira Cloud's standard scheme).
func NewJiraOutbound(baseURL, email, apiToken string) *JiraOutbound {
	return &JiraOutbound{baseURL: baseURL, email: email, apiToken: apiToken, http: &http.Client{Timeout: defaultTimeout}}
}

func (j *JiraOutbound) Comment(ctx context.Context, payload map[string]any, text string) error {
	key, err := issueKey(payload)
	if err != nil {
		return err
	}
	body, _ := json.Marshal(map[string]any{"body": text})
	return j.request(ctx, http.MethodPost, fmt.Sprintf("/rest/api/2/issue/%s/comment", key), body)
}

// React has no Jira analogue; no-op.
func (j *JiraOutbound) React(ctx context.Context, payload map[string]any, emoji string) error {
	return nil
}

func (j *JiraOutbound) Label(ctx context.Context, payload map[string]any, labels []string) error {
	key, err := issueKey(payload)
	if err != nil {
		return err
	}
	update := map[string]any{"update": map[string]any{"labels": labelAdds(labels)}}
	body, _ := json.Marshal(update)
	return j.request(ctx, http.MethodPut, fmt.Sprintf("/rest/api/2/issue/%s", key), body)
}

func (j *JiraOutbound) request(ctx context.Context, method, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, j.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(j.email, j.apiToken)
	resp, err := j.http.Do(req)
	if err != nil {
		return fmt.Errorf("jira request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("jira request to %s returned %d", path, resp.StatusCode)
	}
	return nil
}

func issueKey(payload map[string]any) (string, error) {
	issue, ok := payload["issue"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("jira payload missing issue")
	}
	key, ok := issue["key"].(string)
	if !ok {
		return "", fmt.Errorf("jira payload missing issue.key")
	}
	return key, nil
}

func labelAdds(labels []string) []map[string]any {
	out := make([]map[string]any, 0, len(labels))
	for _, l := range labels {
		out = append(out, map[string]any{"add": l})
	}
	return out
}
