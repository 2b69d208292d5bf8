package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventApplicationSubmitted = "application_submitted"
	EventSectionsRequested    = "application_sections_requested"
	EventSectionsCompleted    = "application_sections_completed"
	EventApplicationApproved  = "application_approved"
	EventApplicationRejected  = "application_rejected"
	EventCredentialsSent      = "application_credentials_sent"
	EventNewsletterSubscribed = "newsletter_subscribed"
)

// ApplicationEventPayload is the minimal application snapshot for event
// consumers.
type ApplicationEventPayload struct {
	ApplicationID     string `json:"application_id"`
	Email             string `json:"email"`
	FullName          string `json:"full_name"`
	LicenseNumber     string `json:"license_number"`
	Status            string `json:"status"`
	SectionsCompleted int    `json:"sections_completed"`
	SectionsRequested []int  `json:"sections_requested,omitempty"`
	ChangedBy         string `json:"changed_by,omitempty"`
	ChangedByID       int64  `json:"changed_by_id,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
