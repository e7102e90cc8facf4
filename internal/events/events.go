// Package events provides the in-process event bus the console core
// publishes state changes on. Any frontend (CLI renderer, GUI, tests)
// subscribes to the bus; core components never call into frontends
// directly.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType defines the types of events that can be emitted.
type EventType string

const (
	// Tree events
	EventTreeNodeLoading   EventType = "tree_node_loading"   // Fetch issued for a node's children
	EventTreeNodeExpanded  EventType = "tree_node_expanded"  // Children fetched (or cached) and visible
	EventTreeNodeCollapsed EventType = "tree_node_collapsed" // Node hidden, cache retained
	EventTreeNodeError     EventType = "tree_node_error"     // Children fetch failed, node reverted
	EventTreeSelection     EventType = "tree_selection"      // File node selected

	// Upload events
	EventUploadStarted   EventType = "upload_started"   // Record created at 0%
	EventUploadProgress  EventType = "upload_progress"  // Progress tick applied
	EventUploadCompleted EventType = "upload_completed" // Commit done, record at 100%
	EventUploadErrored   EventType = "upload_errored"   // Read or commit failed
	EventUploadRemoved   EventType = "upload_removed"   // Cancelled, dismissed, or auto-dismissed

	// Browser list events
	EventListChanged      EventType = "list_changed"
	EventSelectionChanged EventType = "selection_changed"
	EventSortChanged      EventType = "sort_changed"

	// Session events
	EventSessionExpired EventType = "session_expired" // 401 observed, session cleared
)

const (
	defaultBuffer = 1000
	maxBuffer     = 10000
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// TreeEvent describes a folder tree state change.
type TreeEvent struct {
	BaseEvent
	NodeID string
	Name   string
	Error  error // Set for EventTreeNodeError
}

// UploadEvent describes an upload record transition.
type UploadEvent struct {
	BaseEvent
	RecordID string
	Name     string
	Size     int64
	Percent  int    // 0..100
	Reason   string // Removal reason ("cancelled", "dismissed", "auto") or error text
	Error    error  // Set for EventUploadErrored
}

// SessionEvent signals a session lifecycle change.
type SessionEvent struct {
	BaseEvent
}

// NewTreeEvent creates a tree event of the given type.
func NewTreeEvent(t EventType, nodeID, name string, err error) *TreeEvent {
	return &TreeEvent{
		BaseEvent: BaseEvent{EventType: t, Time: time.Now()},
		NodeID:    nodeID,
		Name:      name,
		Error:     err,
	}
}

// NewUploadEvent creates an upload event of the given type.
func NewUploadEvent(t EventType, recordID, name string, size int64, percent int) *UploadEvent {
	return &UploadEvent{
		BaseEvent: BaseEvent{EventType: t, Time: time.Now()},
		RecordID:  recordID,
		Name:      name,
		Size:      size,
		Percent:   percent,
	}
}

// EventBus manages event subscriptions and publishing.
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with the specified buffer size.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = defaultBuffer
	}
	if bufferSize > maxBuffer {
		bufferSize = maxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type.
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events.
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Events are dropped if a subscriber's buffer is full.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Unsubscribe removes a subscription channel from a specific event type.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// Close shuts down the event bus and closes all channels.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// DroppedEventCount returns the total number of events dropped due to
// full buffers.
func (eb *EventBus) DroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
