// Package realtime broadcasts task updates to connected browsers over
// websockets. Delivery is fire-and-forget, at-most-once: slow subscribers
// have messages dropped rather than blocking the publisher.
package realtime

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"task-manager/logging"
)

const (
	EventTaskUpdated = "task-updated"
	EventNewComment  = "new-comment"
)

// Event is one broadcast message, scoped to a task topic.
type Event struct {
	Event   string      `json:"event"`
	TaskID  string      `json:"taskId"`
	Payload interface{} `json:"payload,omitempty"`
}

// clientRequest is what subscribers send: join or leave a task topic.
type clientRequest struct {
	Action string `json:"action"`
	TaskID string `json:"taskId"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks which subscriber listens to which task topic.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*subscriber]struct{}
}

type subscriber struct {
	send  chan Event
	rooms map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*subscriber]struct{})}
}

// Publish sends an event to every subscriber of the task's topic. It never
// blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(taskID, kind string, payload interface{}) {
	event := Event{Event: kind, TaskID: taskID, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[taskID] {
		select {
		case sub.send <- event:
		default:
		}
	}
}

func (h *Hub) join(sub *subscriber, taskID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[taskID]
	if !ok {
		room = make(map[*subscriber]struct{})
		h.rooms[taskID] = room
	}
	room[sub] = struct{}{}
	sub.rooms[taskID] = struct{}{}
}

func (h *Hub) leave(sub *subscriber, taskID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub, taskID)
}

func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for taskID := range sub.rooms {
		h.remove(sub, taskID)
	}
}

// remove expects h.mu to be held.
func (h *Hub) remove(sub *subscriber, taskID string) {
	if room, ok := h.rooms[taskID]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, taskID)
		}
	}
	delete(sub.rooms, taskID)
}

// HandleWS upgrades the request and serves the subscription loop until the
// client disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Warnf("Event ID: WS_UPGRADE_FAILED, Description: Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	sub := &subscriber{
		send:  make(chan Event, 16),
		rooms: make(map[string]struct{}),
	}
	defer h.drop(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var req clientRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			switch req.Action {
			case "join-task":
				if req.TaskID != "" {
					h.join(sub, req.TaskID)
				}
			case "leave-task":
				if req.TaskID != "" {
					h.leave(sub, req.TaskID)
				}
			}
		}
	}()

	for {
		select {
		case event := <-sub.send:
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
