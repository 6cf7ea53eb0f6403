package api

// ChatRequest is the HTTP request body for POST /api/chat.
type ChatRequest struct {
	ConversationID string         `json:"conversation_id,omitempty"`
	SessionID      string         `json:"session_id"`
	Content        string         `json:"content"`
	AgentName      string         `json:"agent_name,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// CreateWebhookConfigRequest is the HTTP request body for
// POST /api/webhooks.
type CreateWebhookConfigRequest struct {
	Provider          string                  `json:"provider"`
	EndpointPath      string                  `json:"endpoint_path"`
	DefaultAgent      string                  `json:"default_agent"`
	SigningSecretEnv  string                  `json:"signing_secret_env"`
	RequiresSignature bool                    `json:"requires_signature"`
	CommandPrefix     string                  `json:"command_prefix"`
	DefaultCommand    string                  `json:"default_command"`
	Commands          []WebhookCommandRequest `json:"commands"`
}

// WebhookCommandRequest is the wire shape of one command within a
// webhook config create/update request.
type WebhookCommandRequest struct {
	Name           string         `json:"name"`
	Aliases        []string       `json:"aliases,omitempty"`
	TargetAgent    string         `json:"target_agent,omitempty"`
	PromptTemplate string         `json:"prompt_template"`
	TriggerEvent   string         `json:"trigger_event,omitempty"`
	Conditions     map[string]any `json:"conditions,omitempty"`
	Priority       int            `json:"priority"`
	Action         string         `json:"action"`
	ForwardURL     string         `json:"forward_url,omitempty"`
}

// UpdateConversationRequest is the body for POST /api/conversations and
// PUT /api/conversations/:id.
type UpdateConversationRequest struct {
	Title string `json:"title"`
}
