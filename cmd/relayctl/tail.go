package main

import (
	"fmt"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/relayhq/relayd/pkg/hub"
)

var tailCmd = &cobra.Command{
	Use:   "tail <session-id> <task-id>...",
	Short: "Stream task events for a session over WebSocket until interrupted",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTail,
}

func runTail(cmd *cobra.Command, args []string) error {
	sessionID, taskIDs := args[0], args[1:]

	url := strings.Replace(serverAddr, "http://", "ws://", 1)
	url = strings.Replace(url, "https://", "wss://", 1)
	url = fmt.Sprintf("%s/ws/%s?task_id=%s", url, sessionID, strings.Join(taskIDs, "&task_id="))

	ctx := cmd.Context()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	for {
		var ev hub.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		printEvent(ev)
	}
}

func printEvent(ev hub.Event) {
	switch ev.Type {
	case hub.EventTaskOutput:
		if data, ok := ev.Data.(map[string]any); ok {
			fmt.Print(data["chunk"])
			return
		}
		fmt.Printf("%v", ev.Data)
	default:
		fmt.Printf("[%s] task=%s seq=%d %v\n", ev.Type, ev.TaskID, ev.Seq, ev.Data)
	}
}
