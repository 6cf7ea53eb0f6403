package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relayhq/relayd/pkg/store"
)

func TestMatchCommandsPrefixAndName(t *testing.T) {
	commands := []store.WebhookCommand{
		{Name: "investigate", Action: store.ActionCreateTask, Priority: 10},
		{Name: "ack", Aliases: []string{"ok"}, Action: store.ActionReact, Priority: 1},
	}
	matched := MatchCommands(commands, "/relayd", "/relayd investigate please", "", "", nil)
	if assert.Len(t, matched, 1) {
		assert.Equal(t, "investigate", matched[0].Name)
	}
}

func TestMatchCommandsPrefixFallsBackToDefault(t *testing.T) {
	commands := []store.WebhookCommand{
		{Name: "default-cmd", Action: store.ActionCreateTask},
	}
	matched := MatchCommands(commands, "/relayd", "/relayd unknown-subcommand", "default-cmd", "", nil)
	if assert.Len(t, matched, 1) {
		assert.Equal(t, "default-cmd", matched[0].Name)
	}
}

func TestMatchCommandsTriggerAndConditions(t *testing.T) {
	commands := []store.WebhookCommand{
		{
			Name:         "on-open",
			Action:       store.ActionCreateTask,
			TriggerEvent: "issues.opened",
			Conditions:   map[string]any{"issue.state": "open"},
		},
	}
	payload := map[string]any{"issue": map[string]any{"state": "open"}}
	matched := MatchCommands(commands, "", "", "", "issues.opened", payload)
	if assert.Len(t, matched, 1) {
		assert.Equal(t, "on-open", matched[0].Name)
	}
}

func TestMatchCommandsTriggerConditionMismatchExcludes(t *testing.T) {
	commands := []store.WebhookCommand{
		{
			Name:         "on-open",
			Action:       store.ActionCreateTask,
			TriggerEvent: "issues.opened",
			Conditions:   map[string]any{"issue.state": "open"},
		},
	}
	payload := map[string]any{"issue": map[string]any{"state": "closed"}}
	matched := MatchCommands(commands, "", "", "", "issues.opened", payload)
	assert.Empty(t, matched)
}

func TestMatchCommandsBothModesNonExclusive(t *testing.T) {
	commands := []store.WebhookCommand{
		{Name: "investigate", Action: store.ActionCreateTask, Priority: 5},
		{Name: "on-open", Action: store.ActionReact, TriggerEvent: "issues.opened", Priority: 1},
	}
	matched := MatchCommands(commands, "/relayd", "/relayd investigate", "", "issues.opened", map[string]any{})
	assert.Len(t, matched, 2)
}

func TestReorderForImmediateAckMovesReactBeforeCreateTask(t *testing.T) {
	commands := []store.WebhookCommand{
		{Name: "investigate", Action: store.ActionCreateTask, Priority: 1},
		{Name: "ack", Action: store.ActionReact, Priority: 20},
	}
	out := reorderForImmediateAck(commands)
	assert.Equal(t, "ack", out[0].Name)
	assert.Equal(t, "investigate", out[1].Name)
}

func TestReorderForImmediateAckNoOpWhenAlreadyOrdered(t *testing.T) {
	commands := []store.WebhookCommand{
		{Name: "ack", Action: store.ActionReact, Priority: 1},
		{Name: "investigate", Action: store.ActionCreateTask, Priority: 20},
	}
	out := reorderForImmediateAck(commands)
	assert.Equal(t, "ack", out[0].Name)
	assert.Equal(t, "investigate", out[1].Name)
}

func TestDedupeByName(t *testing.T) {
	commands := []store.WebhookCommand{
		{Name: "a"}, {Name: "a"}, {Name: "b"},
	}
	out := dedupe(commands)
	assert.Len(t, out, 2)
}
