package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/relayhq/relayd/pkg/config"
	"github.com/relayhq/relayd/pkg/store"
)

var testQueueConfig = config.QueueConfig{
	PollInterval:       1 * time.Second,
	PollIntervalJitter: 200 * time.Millisecond,
}

type fakeRegistry struct {
	registered   map[string]context.CancelFunc
	unregistered []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registered: map[string]context.CancelFunc{}}
}

func (f *fakeRegistry) RegisterTask(taskID string, cancel context.CancelFunc) {
	f.registered[taskID] = cancel
}

func (f *fakeRegistry) UnregisterTask(taskID string) {
	f.unregistered = append(f.unregistered, taskID)
	delete(f.registered, taskID)
}

func TestWorkerHealthReflectsStatusTransitions(t *testing.T) {
	w := NewWorker("w-0", "node-1", nil, nil, nil, newFakeRegistry())
	h := w.Health()
	assert.Equal(t, string(WorkerStatusIdle), h.Status)

	w.setStatus(WorkerStatusWorking, "task-1")
	h = w.Health()
	assert.Equal(t, string(WorkerStatusWorking), h.Status)
	assert.Equal(t, "task-1", h.CurrentTaskID)
}

func TestWorkerSynthesizeResultClassifiesTimeout(t *testing.T) {
	w := NewWorker("w-0", "node-1", nil, nil, nil, newFakeRegistry())
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	result := w.synthesizeResult(ctx)
	assert.Equal(t, store.TaskFailed, result.Status)
}

func TestWorkerSynthesizeResultClassifiesCancellation(t *testing.T) {
	w := NewWorker("w-0", "node-1", nil, nil, nil, newFakeRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := w.synthesizeResult(ctx)
	assert.Equal(t, store.TaskCancelled, result.Status)
}

func TestWorkerPollIntervalWithinJitterBounds(t *testing.T) {
	w := &Worker{config: &testQueueConfig}
	for i := 0; i < 20; i++ {
		d := w.pollInterval()
		assert.GreaterOrEqual(t, d, testQueueConfig.PollInterval-testQueueConfig.PollIntervalJitter)
		assert.LessOrEqual(t, d, testQueueConfig.PollInterval+testQueueConfig.PollIntervalJitter)
	}
}
