package webhook

import (
	"sort"
	"strings"

	"github.com/relayhq/relayd/pkg/store"
)

// ImmediateBandMax is the priority ceiling for immediate-
// acknowledgement actions.
const ImmediateBandMax = 9

func isImmediateAction(a store.ActionKind) bool {
	switch a {
	case store.ActionReact, store.ActionLabel, store.ActionComment, store.ActionRespond:
		return true
	default:
		return false
	}
}

// MatchCommands implements the two non-exclusive matching modes
// (prefix+name and event-trigger-with-conditions) and returns the
// commands to execute, already ordered by
// (priority, name) with the immediate-acknowledgement ordering
// constraint applied: at least one immediate action is moved ahead of
// the first task-creating action when both are present.
func MatchCommands(commands []store.WebhookCommand, prefix, textBlob, defaultCommand, eventType string, payload map[string]any) []store.WebhookCommand {
	var matched []store.WebhookCommand

	if prefix != "" && strings.Contains(textBlob, prefix) {
		if cmd, ok := matchByPrefixAndName(commands, prefix, textBlob); ok {
			matched = append(matched, cmd)
		} else if defaultCommand != "" {
			if cmd, ok := findByName(commands, defaultCommand); ok {
				matched = append(matched, cmd)
			}
		}
	}

	if eventType != "" {
		matched = append(matched, matchByTrigger(commands, eventType, payload)...)
	}

	matched = dedupe(matched)
	sortCommands(matched)
	return reorderForImmediateAck(matched)
}

func matchByPrefixAndName(commands []store.WebhookCommand, prefix, textBlob string) (store.WebhookCommand, bool) {
	idx := strings.Index(textBlob, prefix)
	if idx == -1 {
		return store.WebhookCommand{}, false
	}
	rest := strings.TrimSpace(textBlob[idx+len(prefix):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return store.WebhookCommand{}, false
	}
	token := strings.ToLower(fields[0])
	for _, cmd := range commands {
		if strings.ToLower(cmd.Name) == token {
			return cmd, true
		}
		for _, alias := range cmd.Aliases {
			if strings.ToLower(alias) == token {
				return cmd, true
			}
		}
	}
	return store.WebhookCommand{}, false
}

func findByName(commands []store.WebhookCommand, name string) (store.WebhookCommand, bool) {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return store.WebhookCommand{}, false
}

func matchByTrigger(commands []store.WebhookCommand, eventType string, payload map[string]any) []store.WebhookCommand {
	var out []store.WebhookCommand
	for _, cmd := range commands {
		if cmd.TriggerEvent == "" || cmd.TriggerEvent != eventType {
			continue
		}
		if conditionsMatch(cmd.Conditions, payload) {
			out = append(out, cmd)
		}
	}
	return out
}

// conditionsMatch checks a subset-match of conditions against
// payload, using dotted-path lookup for nested objects.
func conditionsMatch(conditions map[string]any, payload map[string]any) bool {
	for path, want := range conditions {
		got, ok := lookupRaw(payload, path)
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func lookupRaw(payload map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var cur any = payload
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func valuesEqual(a, b any) bool {
	return a == b
}

func dedupe(commands []store.WebhookCommand) []store.WebhookCommand {
	seen := make(map[string]bool, len(commands))
	var out []store.WebhookCommand
	for _, cmd := range commands {
		if seen[cmd.Name] {
			continue
		}
		seen[cmd.Name] = true
		out = append(out, cmd)
	}
	return out
}

func sortCommands(commands []store.WebhookCommand) {
	sort.SliceStable(commands, func(i, j int) bool {
		if commands[i].Priority != commands[j].Priority {
			return commands[i].Priority < commands[j].Priority
		}
		return commands[i].Name < commands[j].Name
	})
}

// reorderForImmediateAck guarantees at least one immediate-acknowledgement
// action runs before any task-creating action when both are present,
// by moving the first immediate action ahead
// of the first create_task action if declared priority order would
// otherwise put create_task first.
func reorderForImmediateAck(commands []store.WebhookCommand) []store.WebhookCommand {
	firstTaskIdx := -1
	firstAckIdx := -1
	for i, cmd := range commands {
		if cmd.Action == store.ActionCreateTask && firstTaskIdx == -1 {
			firstTaskIdx = i
		}
		if isImmediateAction(cmd.Action) && firstAckIdx == -1 {
			firstAckIdx = i
		}
	}
	if firstTaskIdx == -1 || firstAckIdx == -1 || firstAckIdx < firstTaskIdx {
		return commands
	}
	out := make([]store.WebhookCommand, 0, len(commands))
	out = append(out, commands[firstAckIdx])
	for i, cmd := range commands {
		if i == firstAckIdx {
			continue
		}
		out = append(out, cmd)
	}
	return out
}
