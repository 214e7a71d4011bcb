package utilities

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventLevelChanged   = "level_changed"
	EventSessionCreated = "session_created"
	EventUserRegistered = "user_registered"
)

// LevelChangedEvent is published after an evaluation writes a new level.
type LevelChangedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	Mode      string    `json:"mode"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Score     int       `json:"score"`
	At        time.Time `json:"at"`
}

// SessionCreatedEvent is published when a test session is generated.
type SessionCreatedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	Mode      string    `json:"mode"`
	Questions int       `json:"questions"`
	At        time.Time `json:"at"`
}

// UserRegisteredEvent is published after a successful registration.
type UserRegisteredEvent struct {
	UserID uuid.UUID `json:"user_id"`
	At     time.Time `json:"at"`
}

type EventHandler func(interface{})

type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(event string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[event] = append(eb.handlers[event], handler)
}

// Publish runs every handler of event in its own goroutine.
func (eb *EventBus) Publish(event string, data interface{}) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, handler := range eb.handlers[event] {
		eb.wg.Add(1)
		go func(h EventHandler) {
			defer eb.wg.Done()
			h(data)
		}(handler)
	}
}

// Wait blocks until all handlers started so far have returned.
func (eb *EventBus) Wait() {
	eb.wg.Wait()
}
