package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SentryOutbound comments on a Sentry issue via its REST API. Sentry
// has no react/label primitives comparable to GitHub's, so those are
// no-ops.
type SentryOutbound struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewSentryOutbound builds a SentryOutbound from an org's API base URL
// and an internal integration token.
func NewSentryOutbound(baseURL, token string) *SentryOutbound {
	return &SentryOutbound{baseURL: baseURL, token: token, http: &http.Client{Timeout: defaultTimeout}}
}

func (s *SentryOutbound) Comment(ctx context.Context, payload map[string]any, text string) error {
	issueID, err := sentryIssueID(payload)
	if err != nil {
		return err
	}
	body, _ := json.Marshal(map[string]any{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/0/issues/%s/comments/", s.baseURL, issueID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sentry comment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sentry comment returned %d", resp.StatusCode)
	}
	return nil
}

func (s *SentryOutbound) React(ctx context.Context, payload map[string]any, emoji string) error {
	return nil
}

func (s *SentryOutbound) Label(ctx context.Context, payload map[string]any, labels []string) error {
	return nil
}

func sentryIssueID(payload map[string]any) (string, error) {
	if id, ok := payload["id"].(string); ok {
		return id, nil
	}
	if issue, ok := payload["issue"].(map[string]any); ok {
		if id, ok := issue["id"].(string); ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("sentry payload missing issue id")
}
