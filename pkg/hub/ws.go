package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 10 * time.Second

// ServeSession drives one WebSocket connection for a session: it
// accepts client subscribe/unsubscribe-style attach requests implicit
// in the connection's lifetime and relays every event for a task to
// the socket until the connection closes.
func (h *Hub) ServeSession(ctx context.Context, conn *websocket.Conn, sessionID string, taskIDs []string) error {
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	subs := make([]*Subscription, 0, len(taskIDs))
	merged := make(chan Event, (subscriberBuffer+RingSize)*len(taskIDs)+1)
	for _, id := range taskIDs {
		sub := h.Subscribe(id)
		subs = append(subs, sub)
		for _, ev := range sub.Replay {
			merged <- ev
		}
		go relay(ctx, sub, merged)
	}
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-merged:
			if !ok {
				return nil
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				slog.Warn("hub: write failed, closing session socket", "session_id", sessionID, "error", err)
				return err
			}
		}
	}
}

func relay(ctx context.Context, sub *Subscription, out chan<- Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// EncodeEvent is a helper for code paths that need the JSON form of
// an Event outside the WebSocket write path.
func EncodeEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
