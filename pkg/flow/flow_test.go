package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStableHashIsDeterministic(t *testing.T) {
	a := StableHash("github:o/r:42")
	b := StableHash("github:o/r:42")
	require.Equal(t, a, b)
	assert.NotEqual(t, a, StableHash("github:o/r:43"))
}

func TestDeriveFlowIDPrefersParent(t *testing.T) {
	got := DeriveFlowID("parent-flow", "jira:PROJ-123")
	assert.Equal(t, "parent-flow", got)
}

func TestDeriveFlowIDHashesExternalID(t *testing.T) {
	got := DeriveFlowID("", "jira:PROJ-123")
	assert.Equal(t, StableHash("jira:PROJ-123"), got)
}

func TestDeriveFlowIDFreshWhenNeitherPresent(t *testing.T) {
	a := DeriveFlowID("", "")
	b := DeriveFlowID("", "")
	assert.NotEqual(t, a, b, "chat-initiated tasks get a fresh opaque id each time")
}

func TestShouldStartNewConversationExplicitFlag(t *testing.T) {
	assert.True(t, ShouldStartNewConversation(map[string]any{"new_conversation": true}, "anything"))
	assert.False(t, ShouldStartNewConversation(map[string]any{"new_conversation": false}, "anything"))
}

func TestShouldStartNewConversationNaturalLanguageMarker(t *testing.T) {
	assert.True(t, ShouldStartNewConversation(nil, "Please start a new conversation about billing"))
	assert.False(t, ShouldStartNewConversation(nil, "continue where we left off"))
}
