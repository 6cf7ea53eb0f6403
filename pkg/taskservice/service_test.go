package taskservice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relayhq/relayd/pkg/store"
)

func TestBuildChatPromptWithNoHistoryPassesThrough(t *testing.T) {
	got := BuildChatPrompt(nil, "hello")
	assert.Equal(t, "hello", got)
}

func TestBuildChatPromptWithHistoryAddsHeaders(t *testing.T) {
	history := []store.Message{
		{Role: store.RoleUser, Content: "first"},
		{Role: store.RoleAssistant, Content: "first reply"},
	}
	got := BuildChatPrompt(history, "second")
	assert.Contains(t, got, "## Previous Conversation Context:")
	assert.Contains(t, got, "user: first")
	assert.Contains(t, got, "assistant: first reply")
	assert.Contains(t, got, "## Current Message:\nsecond")
}

func TestTruncateTitleLeavesShortContentAlone(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short"))
}
