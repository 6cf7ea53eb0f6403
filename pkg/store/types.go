// Package store provides the durable, transactionally consistent
// backing for every entity in the system: sessions, conversations,
// messages, tasks, and webhook configuration/audit records. It is
// deliberately narrow — callers never reach past the operations
// declared here into raw SQL.
package store

import "time"

// TaskStatus is the task state machine. Transitions are enforced by
// the Store, never by callers: queued -> running -> {completed,
// failed, cancelled}. Terminal states are final.
type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// TaskSource distinguishes how a task came to exist.
type TaskSource string

const (
	SourceChat     TaskSource = "chat"
	SourceWebhook  TaskSource = "webhook"
	SourceSubagent TaskSource = "subagent"
)

// Task is a unit of work representing one invocation of the external
// CLI with a rendered prompt.
type Task struct {
	ID               string
	SessionID        string
	ConversationID   string
	FlowID           string
	ExternalID       string
	AgentName        string
	AgentKind        string
	Status           TaskStatus
	InputPrompt      string
	OutputStream     string
	CostUSD          float64
	InputTokens      int
	OutputTokens     int
	DurationSeconds  float64
	Source           TaskSource
	SourceMetadata   map[string]any
	ParentTaskID     string
	ErrorMessage     string
	CreatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
	LastInteractionAt time.Time
	DeletedAt        *time.Time
}

// Session is a client-scoped container for tasks.
type Session struct {
	ID            string
	UserID        string
	MachineID     string
	CostUSD       float64
	TaskCount     int
	ConnectedAt   time.Time
	DisconnectedAt *time.Time
}

// Conversation is an ordered log of messages carrying a flow
// identifier.
type Conversation struct {
	ID         string
	Title      string
	UserID     string
	FlowID     string
	CostUSD    float64
	InputTokens  int
	OutputTokens int
	TaskCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ArchivedAt *time.Time
}

// MessageRole enumerates who authored a Message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is a single append-only entry in a Conversation.
type Message struct {
	ID             string
	ConversationID string
	Role           MessageRole
	Content        string
	TaskID         string
	Sequence       int64
	CreatedAt      time.Time
}

// WebhookConfigSource distinguishes static declarations loaded at
// startup from rows stored at runtime; they are merged at match time
// with dynamic taking precedence on name collision.
type WebhookConfigSource string

const (
	ConfigBuiltin WebhookConfigSource = "builtin"
	ConfigDynamic WebhookConfigSource = "dynamic"
)

// ActionKind enumerates what a matched WebhookCommand does.
type ActionKind string

const (
	ActionCreateTask ActionKind = "create_task"
	ActionComment    ActionKind = "comment"
	ActionReact      ActionKind = "react"
	ActionLabel      ActionKind = "label"
	ActionAsk        ActionKind = "ask"
	ActionRespond    ActionKind = "respond"
	ActionForward    ActionKind = "forward"
)

// WebhookCommand is a match rule plus an action and prompt template.
type WebhookCommand struct {
	Name            string
	Aliases         []string
	TargetAgent     string
	PromptTemplate  string
	TriggerEvent    string
	Conditions      map[string]any
	Priority        int
	Action          ActionKind
	ForwardURL      string
}

// WebhookConfig binds an HTTP endpoint to a provider verification
// scheme, a default agent, and a set of commands.
type WebhookConfig struct {
	ID                string
	Source            WebhookConfigSource
	Provider          string
	EndpointPath      string
	DefaultAgent      string
	SigningSecretEnv  string
	RequiresSignature bool
	CommandPrefix     string
	DefaultCommand    string
	Enabled           bool
	Commands          []WebhookCommand
	CreatedAt         time.Time
}

// WebhookEvent is the audit record written for every accepted
// webhook request, whether or not it produced a task.
type WebhookEvent struct {
	ID              string
	ReceivedAt      time.Time
	WebhookID       string
	Provider        string
	EventType       string
	RawPayload      []byte
	MatchedCommand  string
	CreatedTaskID   string
	ResponseSent    bool
	AckDurationMS   int64
}

// Account is multi-tenant identity scaffolding.
type Account struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Machine is heartbeat scaffolding for a worker host.
type Machine struct {
	ID            string
	AccountID     string
	LastHeartbeat time.Time
}

// TaskFilter narrows PageTaskTable.
type TaskFilter struct {
	SessionID string
	Status    TaskStatus
	AgentName string
	Since     *time.Time
	Until     *time.Time
	SortBy    string
	SortDesc  bool
	Page      int
	PageSize  int
}

// TaskPage is a single page of a filtered task listing.
type TaskPage struct {
	Tasks      []Task
	Total      int
	Page       int
	PageSize   int
}
