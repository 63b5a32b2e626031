package events

import (
	"time"

	"github.com/pondside/parley/internal/request"
)

// EventType identifies the type of event
type EventType string

const (
	// Request lifecycle events, published by the orchestrator
	RequestQueuedEvent    EventType = "request.queued"
	QueueFullEvent        EventType = "request.queue_full"
	RequestStartedEvent   EventType = "request.started"
	RequestProgressEvent  EventType = "request.progress"
	RequestCompletedEvent EventType = "request.completed"
	RequestFailedEvent    EventType = "request.failed"
	RequestCancelledEvent EventType = "request.cancelled"
	QueueStateEvent       EventType = "request.queue_state"

	// Confirmation gate events
	ConfirmationRequiredEvent EventType = "confirm.required"

	// Translation events
	TranslationEvent EventType = "llm.translation"
	StreamChunkEvent EventType = "llm.stream_chunk"

	// UI events
	StatusMessageEvent EventType = "ui.status"
	DialogOpenEvent    EventType = "ui.dialog.open"
	DialogCloseEvent   EventType = "ui.dialog.close"

	// Command events
	CommandSelectedEvent    EventType = "command.selected"
	ConnectionSelectedEvent EventType = "connection.selected"
)

// Event represents an event in the system
type Event struct {
	Type    EventType
	Payload interface{}
}

// Event payload types

type RequestQueuedPayload struct {
	ID       request.ID
	Type     request.Type
	Input    string
	Position int
}

type QueueFullPayload struct {
	Input    string
	MaxDepth int
}

type RequestStartedPayload struct {
	ID    request.ID
	Type  request.Type
	Input string
}

type RequestProgressPayload struct {
	Update request.Update
}

// RequestCompletedPayload carries the unit of work's result. Value is
// opaque to the orchestrator; the UI layer knows what each request
// type produces (*db.Result, *db.Schema, ...).
type RequestCompletedPayload struct {
	ID      request.ID
	Type    request.Type
	Value   interface{}
	Elapsed time.Duration
}

type RequestFailedPayload struct {
	ID    request.ID
	Type  request.Type
	Error string
}

type RequestCancelledPayload struct {
	IDs []request.ID
}

// QueueStatePayload is a full snapshot, published after every queue
// mutation so the sidebar never has to reconstruct state from deltas.
type QueueStatePayload struct {
	InFlight     bool
	InFlightID   request.ID
	Phase        request.Phase
	Awaiting     bool
	Positions    []request.Position
	PendingCount int
}

type ConfirmationRequiredPayload struct {
	ID        request.ID
	Statement string
	Reason    string
}

type TranslationPayload struct {
	ID         request.ID
	SQL        string
	Commentary string
	Model      string
}

type StreamChunkPayload struct {
	ID      request.ID
	Content string
}

type StatusMessagePayload struct {
	Message string
	Type    string // "info", "warning", "error", "success"
}

type DialogPayload struct {
	DialogID string
	Data     interface{}
}

type CommandSelectedPayload struct {
	Command string
}

type ConnectionSelectedPayload struct {
	Name string
}
