// Package bus is a small in-process event bus carrying turn progress
// events from the engine to whichever surface is watching (TUI status
// line, CLI progress output). Events carry no ordering or durability
// guarantee; they exist purely for user-facing progress text.
package bus

import (
	"log"
	"sync"
	"time"
)

type EventType string

const (
	EventTurnStarted      EventType = "turn.started"
	EventParticipantDone  EventType = "participant.done"
	EventParticipantFail  EventType = "participant.failed"
	EventChairmanStarted  EventType = "chairman.started"
	EventTurnSettled      EventType = "turn.settled"
	EventSessionAutosaved EventType = "session.autosaved"
	EventSystemError      EventType = "system.error"
)

type Event struct {
	Type        EventType `json:"type"`
	Participant string    `json:"participant,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	Time        time.Time `json:"time"`
}

type Handler func(ev Event)

type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	history  []Event
	maxHist  int
}

func New(maxHistory int) *EventBus {
	if maxHistory <= 0 {
		maxHistory = 1000
	}
	return &EventBus{
		handlers: make(map[EventType][]Handler),
		maxHist:  maxHistory,
	}
}

func (b *EventBus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers["*"] = append(b.handlers["*"], h)
}

func (b *EventBus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	b.history = append(b.history, ev)
	if len(b.history) > b.maxHist {
		// Copy to a new slice to release the old backing array
		trimmed := make([]Event, b.maxHist)
		copy(trimmed, b.history[len(b.history)-b.maxHist:])
		b.history = trimmed
	}
	// Copy handlers under lock
	specific := make([]Handler, len(b.handlers[ev.Type]))
	copy(specific, b.handlers[ev.Type])
	wildcard := make([]Handler, len(b.handlers["*"]))
	copy(wildcard, b.handlers["*"])
	b.mu.Unlock()

	for _, h := range append(specific, wildcard...) {
		func(handler Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[EventBus] handler panicked for %s: %v", ev.Type, r)
				}
			}()
			handler(ev)
		}(h)
	}
}

func (b *EventBus) History(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.history) {
		n = len(b.history)
	}
	start := len(b.history) - n
	result := make([]Event, n)
	copy(result, b.history[start:])
	return result
}
