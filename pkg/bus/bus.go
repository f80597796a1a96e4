package bus

import (
	"sync"
	"time"
)

const defaultBufferSize = 100

// EventType names one step in the lifecycle of an action call.
type EventType string

const (
	EventActionReceived  EventType = "action_received"
	EventActionCompleted EventType = "action_completed"
	EventActionFailed    EventType = "action_failed"
)

// Event describes one lifecycle step of an action call.
type Event struct {
	Type      EventType         `json:"type"`
	At        time.Time         `json:"at"`
	Action    string            `json:"action,omitempty"`
	SenderID  string            `json:"sender_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// MessageBus fans lifecycle events out to subscribers without ever blocking
// the publisher.
type MessageBus struct {
	subscribers      map[uint64]chan Event
	nextSubscriberID uint64

	done      chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		subscribers: make(map[uint64]chan Event),
		done:        make(chan struct{}),
	}
}

// Close unblocks every subscriber and rejects further publishing.
func (mb *MessageBus) Close() {
	mb.closeOnce.Do(func() {
		close(mb.done)

		mb.mu.Lock()
		for id, ch := range mb.subscribers {
			close(ch)
			delete(mb.subscribers, id)
		}
		mb.mu.Unlock()
	})
}
