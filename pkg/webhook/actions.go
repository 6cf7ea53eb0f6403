package webhook

import "context"

// Outbound is implemented once per provider (providers/github.go,
// providers/slack.go, providers/jira.go, providers/sentry.go) for
// best-effort outbound effects: comment, react, label. Failures are
// logged, never fatal to task processing.
type Outbound interface {
	Comment(ctx context.Context, payload map[string]any, text string) error
	React(ctx context.Context, payload map[string]any, emoji string) error
	Label(ctx context.Context, payload map[string]any, labels []string) error
}

// Forwarder posts a raw event to a configured downstream URL, backing
// the `forward` command action.
type Forwarder interface {
	Forward(ctx context.Context, url string, payload map[string]any) error
}

// TaskCreator is the narrow slice of the worker-pool-facing API the
// engine needs to synthesize and enqueue a task.
type TaskCreator interface {
	CreateTask(ctx context.Context, in CreateTaskInput) (taskID string, err error)
}

// CreateTaskInput carries everything the `create_task` action needs
// to hand off to the Store/Queue.
type CreateTaskInput struct {
	Prompt         string
	AgentName      string
	SourceMetadata map[string]any
	ExternalID     string
	ParentTaskID   string
}
