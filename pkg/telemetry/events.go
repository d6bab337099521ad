package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event in the coffer host SDK.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// Database is the associated database name, if applicable.
	Database string `json:"database,omitempty"`

	// Generation is the connection generation, if applicable.
	Generation uint64 `json:"generation,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeRecordCreated     = "record.created"
	EventTypeRecordSuspect     = "record.suspect"
	EventTypeRecordInvalidated = "record.invalidated"
	EventTypeRecordRecreated   = "record.recreated"
	EventTypeRecordEvicted     = "record.evicted"
	EventTypeRecordClosed      = "record.closed"
	EventTypeEngineLoaded      = "engine.loaded"
	EventTypeEngineSwapped     = "engine.swapped"
	EventTypeError             = "error"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher manages event publishing and subscriptions.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	filters     []EventFilter
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPublisher{
		config:      cfg,
		buffer:      make(chan Event, cfg.BufferSize),
		subscribers: make([]subscriberEntry, 0),
		filters:     make([]EventFilter, 0),
		ctx:         ctx,
		cancel:      cancel,
	}

	// Start the event processing goroutine
	if cfg.EnableAsync {
		ep.wg.Add(1)
		go ep.processEvents()
	}

	// Start the periodic flush goroutine
	if cfg.FlushInterval > 0 {
		ep.wg.Add(1)
		go ep.periodicFlush()
	}

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	// Set ID and timestamp if not already set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Apply global filters
	ep.mu.RLock()
	for _, filter := range ep.filters {
		if !filter(event) {
			ep.mu.RUnlock()
			return nil // Event filtered out
		}
	}
	ep.mu.RUnlock()

	// Send to buffer if async, otherwise process immediately
	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
			// Buffer full, drop event or log warning
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	// Synchronous publishing
	ep.deliverEvent(event)
	return nil
}

// PublishRecordCreated publishes an event for a freshly created connection.
func (ep *EventPublisher) PublishRecordCreated(database string, generation uint64) error {
	return ep.Publish(Event{
		Type:       EventTypeRecordCreated,
		Source:     "lifecycle",
		Database:   database,
		Generation: generation,
		Message:    fmt.Sprintf("Connection to %s created (generation %d)", database, generation),
		Level:      EventLevelInfo,
	})
}

// PublishRecordSuspect publishes an event for a connection marked suspect.
func (ep *EventPublisher) PublishRecordSuspect(database, reason string) error {
	return ep.Publish(Event{
		Type:     EventTypeRecordSuspect,
		Source:   "lifecycle",
		Database: database,
		Message:  fmt.Sprintf("Connection to %s marked suspect: %s", database, reason),
		Level:    EventLevelWarning,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishRecordInvalidated publishes an event for an invalidated connection.
func (ep *EventPublisher) PublishRecordInvalidated(database, reason string) error {
	return ep.Publish(Event{
		Type:     EventTypeRecordInvalidated,
		Source:   "lifecycle",
		Database: database,
		Message:  fmt.Sprintf("Connection to %s invalidated: %s", database, reason),
		Level:    EventLevelWarning,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishRecordRecreated publishes an event for a recreated connection.
func (ep *EventPublisher) PublishRecordRecreated(database string, generation uint64, attempts int) error {
	return ep.Publish(Event{
		Type:       EventTypeRecordRecreated,
		Source:     "lifecycle",
		Database:   database,
		Generation: generation,
		Message:    fmt.Sprintf("Connection to %s recreated after %d attempt(s)", database, attempts),
		Level:      EventLevelInfo,
		Data: map[string]interface{}{
			"attempts": attempts,
		},
	})
}

// PublishRecordEvicted publishes an event for a record evicted from the pool.
func (ep *EventPublisher) PublishRecordEvicted(database, reason string) error {
	return ep.Publish(Event{
		Type:     EventTypeRecordEvicted,
		Source:   "pool",
		Database: database,
		Message:  fmt.Sprintf("Record for %s evicted: %s", database, reason),
		Level:    EventLevelInfo,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishRecordClosed publishes an event for an explicitly closed connection.
func (ep *EventPublisher) PublishRecordClosed(database string) error {
	return ep.Publish(Event{
		Type:     EventTypeRecordClosed,
		Source:   "lifecycle",
		Database: database,
		Message:  fmt.Sprintf("Connection to %s closed", database),
		Level:    EventLevelInfo,
	})
}

// PublishEngineLoaded publishes an event for a loaded engine binary.
func (ep *EventPublisher) PublishEngineLoaded(source, path string) error {
	return ep.Publish(Event{
		Type:    EventTypeEngineLoaded,
		Source:  "native",
		Message: fmt.Sprintf("Engine binary loaded from %s (%s)", path, source),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"source": source,
			"path":   path,
		},
	})
}

// PublishEngineSwapped publishes an event for an on-disk engine binary swap.
func (ep *EventPublisher) PublishEngineSwapped(path string) error {
	return ep.Publish(Event{
		Type:    EventTypeEngineSwapped,
		Source:  "native",
		Message: fmt.Sprintf("Engine binary swapped on disk: %s", path),
		Level:   EventLevelWarning,
		Data: map[string]interface{}{
			"path": path,
		},
	})
}

// Subscribe adds a new event subscriber.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// AddFilter adds a global event filter.
func (ep *EventPublisher) AddFilter(filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.filters = append(ep.filters, filter)
}

// processEvents processes events from the buffer asynchronously.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	batch := make([]Event, 0, ep.config.MaxBatchSize)

	for {
		select {
		case event := <-ep.buffer:
			batch = append(batch, event)

			// Flush batch if it reaches max size
			if len(batch) >= ep.config.MaxBatchSize {
				ep.flushBatch(batch)
				batch = make([]Event, 0, ep.config.MaxBatchSize)
			}

		case <-ep.ctx.Done():
			// Flush remaining events before shutting down
			if len(batch) > 0 {
				ep.flushBatch(batch)
			}
			return
		}
	}
}

// periodicFlush flushes events periodically.
func (ep *EventPublisher) periodicFlush() {
	defer ep.wg.Done()

	ticker := time.NewTicker(ep.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Trigger flush by draining buffer
			// This is handled by the processEvents goroutine
		case <-ep.ctx.Done():
			return
		}
	}
}

// flushBatch delivers a batch of events to subscribers.
func (ep *EventPublisher) flushBatch(events []Event) {
	for _, event := range events {
		ep.deliverEvent(event)
	}
}

// deliverEvent delivers an event to all subscribers.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		// Apply subscriber-specific filter
		if entry.filter != nil && !entry.filter(event) {
			continue
		}

		// Call subscriber in a goroutine to avoid blocking
		go entry.subscriber(event)
	}
}

// Shutdown gracefully shuts down the event publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if !ep.config.Enabled {
		return nil
	}

	// Signal shutdown
	ep.cancel()

	// Wait for processing to complete with timeout
	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// Common event filters.

// FilterByLevel creates a filter that only allows events of a specific level or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}

	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByDatabase creates a filter that only allows events for a specific database.
func FilterByDatabase(database string) EventFilter {
	return func(event Event) bool {
		return event.Database == database
	}
}
