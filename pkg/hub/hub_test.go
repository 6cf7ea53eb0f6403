package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAssignsIncreasingSeq(t *testing.T) {
	h := New()
	e1 := h.Publish("t1", "s1", EventTaskRunning, nil)
	e2 := h.Publish("t1", "s1", EventTaskOutput, OutputData{Chunk: "hi"})
	assert.Equal(t, uint64(1), e1.Seq)
	assert.Equal(t, uint64(2), e2.Seq)
}

func TestSubscribeReceivesCatchUpThenLive(t *testing.T) {
	h := New()
	h.Publish("t1", "s1", EventTaskRunning, nil)
	h.Publish("t1", "s1", EventTaskOutput, OutputData{Chunk: "one"})

	sub := h.Subscribe("t1")
	defer sub.Close()
	require.Len(t, sub.Replay, 2)
	assert.Equal(t, EventTaskRunning, sub.Replay[0].Type)

	h.Publish("t1", "s1", EventTaskOutput, OutputData{Chunk: "two"})
	select {
	case ev := <-sub.Events:
		assert.Equal(t, OutputData{Chunk: "two"}, ev.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live event")
	}
}

func TestRingBufferCapsAtK(t *testing.T) {
	h := New()
	for i := 0; i < RingSize+10; i++ {
		h.Publish("t1", "s1", EventTaskOutput, nil)
	}
	sub := h.Subscribe("t1")
	defer sub.Close()
	assert.LessOrEqual(t, len(sub.Replay), RingSize)
}

func TestCloseDetachesSubscriber(t *testing.T) {
	h := New()
	h.Publish("t1", "s1", EventTaskRunning, nil)
	sub := h.Subscribe("t1")
	assert.Equal(t, 1, h.subscriberCount("t1"))
	sub.Close()
	assert.Equal(t, 0, h.subscriberCount("t1"))
}

func TestSlowSubscriberIsEvicted(t *testing.T) {
	h := New()
	sub := h.Subscribe("t1")
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish("t1", "s1", EventTaskOutput, nil)
	}
	assert.Equal(t, 0, h.subscriberCount("t1"), "a subscriber that never drains its channel is dropped, not allowed to stall publishers")
}
