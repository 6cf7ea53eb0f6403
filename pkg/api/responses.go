package api

import "time"

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// ChatResponse is the body for POST /api/chat.
type ChatResponse struct {
	TaskID         string `json:"task_id"`
	ConversationID string `json:"conversation_id"`
}

// TaskResponse is the wire shape of a Task for the admin/chat surface.
type TaskResponse struct {
	ID              string         `json:"id"`
	SessionID       string         `json:"session_id,omitempty"`
	ConversationID  string         `json:"conversation_id,omitempty"`
	FlowID          string         `json:"flow_id,omitempty"`
	AgentName       string         `json:"agent_name"`
	Status          string         `json:"status"`
	InputPrompt     string         `json:"input_prompt"`
	OutputStream    string         `json:"output_stream,omitempty"`
	CostUSD         float64        `json:"cost_usd"`
	InputTokens     int            `json:"input_tokens"`
	OutputTokens    int            `json:"output_tokens"`
	DurationSeconds float64        `json:"duration_seconds"`
	Source          string         `json:"source"`
	ParentTaskID    string         `json:"parent_task_id,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// TaskTableResponse is the body for GET /api/tasks/table.
type TaskTableResponse struct {
	Tasks    []TaskResponse `json:"tasks"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ConversationResponse is the wire shape of a Conversation.
type ConversationResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	FlowID       string    `json:"flow_id,omitempty"`
	CostUSD      float64   `json:"cost_usd"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TaskCount    int       `json:"task_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MessageResponse is the wire shape of a conversation Message.
type MessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	TaskID    string    `json:"task_id,omitempty"`
	Sequence  int64     `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookConfigResponse is the wire shape of a webhook config.
type WebhookConfigResponse struct {
	ID                string   `json:"id"`
	Source            string   `json:"source"`
	Provider          string   `json:"provider"`
	EndpointPath      string   `json:"endpoint_path"`
	DefaultAgent      string   `json:"default_agent"`
	RequiresSignature bool     `json:"requires_signature"`
	CommandPrefix     string   `json:"command_prefix"`
	DefaultCommand    string   `json:"default_command"`
	Enabled           bool     `json:"enabled"`
	CommandNames      []string `json:"command_names"`
}

// AnalyticsSummaryResponse is the body for GET /api/analytics/summary.
type AnalyticsSummaryResponse struct {
	TotalTasks      int     `json:"total_tasks"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
	TotalInputToks  int64   `json:"total_input_tokens"`
	TotalOutputToks int64   `json:"total_output_tokens"`
}

// DailyCostPoint is one entry in GET /api/analytics/costs/daily.
type DailyCostPoint struct {
	Date    string  `json:"date"`
	CostUSD float64 `json:"cost_usd"`
}

// AgentCostPoint is one entry in GET /api/analytics/costs/by-subagent.
type AgentCostPoint struct {
	AgentName string  `json:"agent_name"`
	CostUSD   float64 `json:"cost_usd"`
	TaskCount int     `json:"task_count"`
}
