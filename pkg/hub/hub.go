package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RingSize is the default per-task retention window.
const RingSize = 256

// subscriberBuffer is the per-subscriber channel depth before the
// drop-slowest-subscriber backpressure policy evicts it.
const subscriberBuffer = 64

// Hub is the in-process publish/subscribe fabric. A single instance
// is owned by the application root and shared by the worker pool
// (publisher) and the API's WebSocket handler (subscriber).
type Hub struct {
	mu    sync.RWMutex
	tasks map[string]*taskState
}

type taskState struct {
	mu          sync.Mutex
	seq         uint64
	ring        []Event
	subscribers map[string]*subscriber
}

type subscriber struct {
	id   string
	ch   chan Event
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{tasks: make(map[string]*taskState)}
}

func (h *Hub) state(taskID string, create bool) *taskState {
	h.mu.RLock()
	st, ok := h.tasks[taskID]
	h.mu.RUnlock()
	if ok || !create {
		return st
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if st, ok := h.tasks[taskID]; ok {
		return st
	}
	st = &taskState{subscribers: make(map[string]*subscriber)}
	h.tasks[taskID] = st
	return st
}

// Publish emits one event for a task. It never blocks the caller: a
// subscriber whose buffer is full is evicted rather than allowed to
// stall the publisher.
func (h *Hub) Publish(taskID, sessionID string, typ EventType, data any) Event {
	st := h.state(taskID, true)

	st.mu.Lock()
	st.seq++
	ev := Event{Type: typ, TaskID: taskID, SessionID: sessionID, Seq: st.seq, Data: data, Timestamp: time.Now().UTC()}
	st.ring = append(st.ring, ev)
	if len(st.ring) > RingSize {
		st.ring = st.ring[len(st.ring)-RingSize:]
	}
	subs := make([]*subscriber, 0, len(st.subscribers))
	for _, sub := range st.subscribers {
		subs = append(subs, sub)
	}
	st.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- ev:
		default:
			slog.Warn("hub: dropping slow subscriber", "task_id", taskID, "subscriber_id", sub.id)
			h.detach(taskID, sub.id)
			sub.close()
		}
	}
	return ev
}

// Subscription is returned by Subscribe; Replay holds the catch-up
// history captured at subscribe time, and Events delivers the live
// events published after it until Close is called or the subscriber
// is evicted for backpressure.
type Subscription struct {
	ID      string
	Events  <-chan Event
	Replay  []Event
	hub     *Hub
	taskID  string
	sub     *subscriber
	closeCh chan struct{}
}

// Close releases the subscription's resources and discards any
// pending sends to it.
func (s *Subscription) Close() {
	s.hub.detach(s.taskID, s.ID)
	s.sub.close()
}

// Subscribe attaches a new subscriber to a task's event stream,
// returning recent ring-buffer history for catch-up and a channel of
// subsequent live events.
func (h *Hub) Subscribe(taskID string) *Subscription {
	st := h.state(taskID, true)
	sub := &subscriber{
		id:   uuid.NewString(),
		ch:   make(chan Event, subscriberBuffer),
		done: make(chan struct{}),
	}

	st.mu.Lock()
	replay := make([]Event, len(st.ring))
	copy(replay, st.ring)
	st.subscribers[sub.id] = sub
	st.mu.Unlock()

	return &Subscription{
		ID:     sub.id,
		Events: sub.ch,
		Replay: replay,
		hub:    h,
		taskID: taskID,
		sub:    sub,
	}
}

func (h *Hub) detach(taskID, subscriberID string) {
	h.mu.RLock()
	st, ok := h.tasks[taskID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	st.mu.Lock()
	delete(st.subscribers, subscriberID)
	st.mu.Unlock()
}

// Forget drops a task's ring buffer and subscriber set once it is no
// longer needed (all subscribers detached, terminal event delivered).
func (h *Hub) Forget(taskID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.tasks, taskID)
}

// subscriberCount reports the live subscriber count for a task,
// exposed for tests.
func (h *Hub) subscriberCount(taskID string) int {
	st := h.state(taskID, false)
	if st == nil {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.subscribers)
}
