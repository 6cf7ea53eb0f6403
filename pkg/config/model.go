package config

import "os"

// AgentKind is the recognized set of semantic roles a task's assigned
// agent may carry. The kind is opaque metadata to the rest of the
// system beyond this mapping to a model name.
type AgentKind string

const (
	AgentPlanning AgentKind = "planning"
	AgentBrain    AgentKind = "brain"
	AgentExecutor AgentKind = "executor"
	AgentDefault  AgentKind = "default"
)

// ModelConfig maps agent kinds to CLI model identifiers, each
// overridable by an environment variable so operators can repoint a
// kind at a different model without a redeploy.
type ModelConfig struct {
	models map[AgentKind]string
	envs   map[AgentKind]string
}

// DefaultModelConfig binds planning and brain to the heavier model,
// executor to the faster one.
func DefaultModelConfig() *ModelConfig {
	return &ModelConfig{
		models: map[AgentKind]string{
			AgentPlanning: "claude-opus-4",
			AgentBrain:    "claude-opus-4",
			AgentExecutor: "claude-sonnet-4",
			AgentDefault:  "claude-sonnet-4",
		},
		envs: map[AgentKind]string{
			AgentPlanning: "RELAYD_MODEL_PLANNING",
			AgentBrain:    "RELAYD_MODEL_BRAIN",
			AgentExecutor: "RELAYD_MODEL_EXECUTOR",
			AgentDefault:  "RELAYD_MODEL_DEFAULT",
		},
	}
}

// ModelFor resolves the model name for an agent kind, applying the
// environment override layer if set.
func (m *ModelConfig) ModelFor(kind AgentKind) string {
	if env, ok := m.envs[kind]; ok {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	if v, ok := m.models[kind]; ok {
		return v
	}
	return m.models[AgentDefault]
}
