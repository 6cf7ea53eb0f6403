package providers

import (
	"context"
	"fmt"

	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"
)

// GithubOutbound performs comment/reaction/label side effects against
// the GitHub REST API.
type GithubOutbound struct {
	client *github.Client
}

// NewGithubOutbound builds a GithubOutbound from a personal access or
// GitHub App installation token, using oauth2.StaticTokenSource so the
// transport layer handles the Authorization header the same way it
// would for a refreshable App-installation token.
func NewGithubOutbound(token string) *GithubOutbound {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &GithubOutbound{client: github.NewClient(httpClient)}
}

func (g *GithubOutbound) Comment(ctx context.Context, payload map[string]any, text string) error {
	owner, repo, number, err := issueCoordinates(payload)
	if err != nil {
		return err
	}
	_, _, err = g.client.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{Body: &text})
	if err != nil {
		return fmt.Errorf("github create comment: %w", err)
	}
	return nil
}

func (g *GithubOutbound) React(ctx context.Context, payload map[string]any, emoji string) error {
	owner, repo, number, err := issueCoordinates(payload)
	if err != nil {
		return err
	}
	_, _, err = g.client.Reactions.CreateIssueReaction(ctx, owner, repo, number, emoji)
	if err != nil {
		return fmt.Errorf("github create reaction: %w", err)
	}
	return nil
}

func (g *GithubOutbound) Label(ctx context.Context, payload map[string]any, labels []string) error {
	owner, repo, number, err := issueCoordinates(payload)
	if err != nil {
		return err
	}
	_, _, err = g.client.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels)
	if err != nil {
		return fmt.Errorf("github add labels: %w", err)
	}
	return nil
}

func issueCoordinates(payload map[string]any) (owner, repo string, number int, err error) {
	repoObj, ok := payload["repository"].(map[string]any)
	if !ok {
		return "", "", 0, fmt.Errorf("github payload missing repository")
	}
	owner, repo, ok = splitFullName(repoObj)
	if !ok {
		return "", "", 0, fmt.Errorf("github payload missing repository.full_name")
	}
	if issue, ok := payload["issue"].(map[string]any); ok {
		if n, ok := numberOf(issue["number"]); ok {
			return owner, repo, n, nil
		}
	}
	if pr, ok := payload["pull_request"].(map[string]any); ok {
		if n, ok := numberOf(pr["number"]); ok {
			return owner, repo, n, nil
		}
	}
	return "", "", 0, fmt.Errorf("github payload missing issue/pull_request number")
}

func splitFullName(repoObj map[string]any) (owner, repo string, ok bool) {
	full, ok := repoObj["full_name"].(string)
	if !ok {
		return "", "", false
	}
	for i := 0; i < len(full); i++ {
		if full[i] == '/' {
			return full[:i], full[i+1:], true
		}
	}
	return "", "", false
}

func numberOf(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
