package config

import "testing"

func TestModelConfig_ModelFor_DefaultsWithoutEnvOverride(t *testing.T) {
	m := DefaultModelConfig()
	if got := m.ModelFor(AgentExecutor); got != "claude-sonnet-4" {
		t.Errorf("ModelFor(executor) = %q, want claude-sonnet-4", got)
	}
	if got := m.ModelFor(AgentPlanning); got != "claude-opus-4" {
		t.Errorf("ModelFor(planning) = %q, want claude-opus-4", got)
	}
}

func TestModelConfig_ModelFor_EnvOverrideTakesPrecedence(t *testing.T) {
	t.Setenv("RELAYD_MODEL_EXECUTOR", "claude-haiku-4")
	m := DefaultModelConfig()
	if got := m.ModelFor(AgentExecutor); got != "claude-haiku-4" {
		t.Errorf("ModelFor(executor) = %q, want env override claude-haiku-4", got)
	}
}

func TestModelConfig_ModelFor_UnknownKindFallsBackToDefault(t *testing.T) {
	m := DefaultModelConfig()
	if got := m.ModelFor(AgentKind("nonexistent")); got != m.ModelFor(AgentDefault) {
		t.Errorf("ModelFor(unknown) = %q, want fallback to default %q", got, m.ModelFor(AgentDefault))
	}
}
