// Package flow derives the flow and conversation identity every task
// carries, so related tasks (a webhook event and the sub-tasks it
// spawns, or a chat message and its replies) resolve to the same
// conversation.
package flow

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// StableHash is the deterministic, restart-stable hash used to derive
// a flow id from an external event id: same input always yields the
// same flow id, across process restarts.
func StableHash(externalID string) string {
	sum := sha256.Sum256([]byte(externalID))
	return hex.EncodeToString(sum[:])[:32]
}

// DeriveFlowID applies three rules in priority order: a sub-task
// inherits its parent's flow, a webhook task with a derivable external
// id hashes it, everything else gets a fresh opaque id.
func DeriveFlowID(parentFlowID, externalID string) string {
	if parentFlowID != "" {
		return parentFlowID
	}
	if externalID != "" {
		return StableHash(externalID)
	}
	return uuid.NewString()
}

// newConversationMarkers are the natural-language opt-in phrases
// recognized by ShouldStartNewConversation. Kept as a small fixed set
// behind this one function so the heuristic can be tightened later
// without touching call sites.
var newConversationMarkers = []string{
	"start a new conversation",
	"new conversation",
	"new chat",
}

// ShouldStartNewConversation decides whether a child task should
// start a fresh Conversation instead of inheriting its parent's.
func ShouldStartNewConversation(meta map[string]any, prompt string) bool {
	if meta != nil {
		if v, ok := meta["new_conversation"]; ok {
			if b, ok := v.(bool); ok && b {
				return true
			}
		}
	}
	lower := strings.ToLower(prompt)
	for _, marker := range newConversationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
