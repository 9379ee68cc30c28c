package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubscriber() *subscriber {
	return &subscriber{
		send:  make(chan Event, 16),
		rooms: make(map[string]struct{}),
	}
}

func TestPublishReachesJoinedSubscribers(t *testing.T) {
	h := NewHub()
	sub := newTestSubscriber()
	h.join(sub, "task-1")

	h.Publish("task-1", EventTaskUpdated, map[string]string{"title": "new title"})

	require.Len(t, sub.send, 1)
	event := <-sub.send
	assert.Equal(t, EventTaskUpdated, event.Event)
	assert.Equal(t, "task-1", event.TaskID)
}

func TestPublishScopedToTopic(t *testing.T) {
	h := NewHub()
	sub := newTestSubscriber()
	h.join(sub, "task-1")

	h.Publish("task-2", EventNewComment, nil)

	assert.Empty(t, sub.send)
}

func TestLeaveStopsDelivery(t *testing.T) {
	h := NewHub()
	sub := newTestSubscriber()
	h.join(sub, "task-1")
	h.leave(sub, "task-1")

	h.Publish("task-1", EventTaskUpdated, nil)

	assert.Empty(t, sub.send)
}

func TestDropLeavesAllRooms(t *testing.T) {
	h := NewHub()
	sub := newTestSubscriber()
	h.join(sub, "task-1")
	h.join(sub, "task-2")

	h.drop(sub)

	h.Publish("task-1", EventTaskUpdated, nil)
	h.Publish("task-2", EventTaskUpdated, nil)
	assert.Empty(t, sub.send)
	assert.Empty(t, h.rooms)
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	sub := &subscriber{
		send:  make(chan Event, 1),
		rooms: make(map[string]struct{}),
	}
	h.join(sub, "task-1")

	h.Publish("task-1", EventTaskUpdated, nil)
	// Buffer is full: this must not block, the event is lost.
	h.Publish("task-1", EventNewComment, nil)

	assert.Len(t, sub.send, 1)
}
