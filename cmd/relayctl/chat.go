package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/relayhq/relayd/pkg/api"
)

var (
	chatSessionID      string
	chatConversationID string
	chatAgent          string
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Submit a chat message and print the resulting task id",
	Args:  cobra.ExactArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "session id (generated if omitted)")
	chatCmd.Flags().StringVar(&chatConversationID, "conversation", "", "conversation id (a new one is created if omitted)")
	chatCmd.Flags().StringVar(&chatAgent, "agent", "", "agent name override")
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatSessionID == "" {
		chatSessionID = uuid.NewString()
	}
	body, err := json.Marshal(api.ChatRequest{
		SessionID:      chatSessionID,
		ConversationID: chatConversationID,
		Content:        args[0],
		AgentName:      chatAgent,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(serverAddr+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post chat: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("relayd returned %s: %s", resp.Status, raw)
	}

	var out api.ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	fmt.Printf("task:         %s\n", out.TaskID)
	fmt.Printf("conversation: %s\n", out.ConversationID)
	fmt.Printf("session:      %s\n", chatSessionID)
	return nil
}
