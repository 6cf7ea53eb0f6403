package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRegisterAndCancelTask(t *testing.T) {
	p := &WorkerPool{activeTasks: map[string]context.CancelFunc{}}

	cancelled := false
	_, cancel := context.WithCancel(context.Background())
	wrapped := func() { cancelled = true; cancel() }

	p.RegisterTask("task-1", wrapped)
	assert.True(t, p.CancelTask("task-1"))
	assert.True(t, cancelled)
}

func TestWorkerPoolCancelUnknownTaskReturnsFalse(t *testing.T) {
	p := &WorkerPool{activeTasks: map[string]context.CancelFunc{}}
	assert.False(t, p.CancelTask("nope"))
}

func TestWorkerPoolUnregisterTaskRemovesEntry(t *testing.T) {
	p := &WorkerPool{activeTasks: map[string]context.CancelFunc{}}
	_, cancel := context.WithCancel(context.Background())
	p.RegisterTask("task-1", cancel)
	p.UnregisterTask("task-1")
	assert.False(t, p.CancelTask("task-1"))
}

func TestWorkerPoolGetActiveTaskIDs(t *testing.T) {
	p := &WorkerPool{activeTasks: map[string]context.CancelFunc{}}
	_, c1 := context.WithCancel(context.Background())
	_, c2 := context.WithCancel(context.Background())
	p.RegisterTask("a", c1)
	p.RegisterTask("b", c2)
	ids := p.getActiveTaskIDs()
	require.Len(t, ids, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
