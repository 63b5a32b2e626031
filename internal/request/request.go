package request

import (
	"context"
	"time"
)

// Type tells the orchestrator which unit of work a request routes to.
type Type int

const (
	// TypeNaturalLanguage asks the model to translate the input to SQL
	// before anything touches the database.
	TypeNaturalLanguage Type = iota

	// TypeSQL runs the input directly against the open database.
	TypeSQL

	// TypeConfirmation answers an outstanding destructive-statement
	// gate. Confirmation answers are handled out of band and are never
	// enqueued.
	TypeConfirmation

	// TypeSchema re-reads the database schema for the sidebar and the
	// translation prompt.
	TypeSchema
)

func (t Type) String() string {
	switch t {
	case TypeNaturalLanguage:
		return "natural_language"
	case TypeSQL:
		return "sql"
	case TypeConfirmation:
		return "confirmation"
	case TypeSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// Phase is the externally visible stage an in-flight request is in.
// Units of work report transitions as they cross them; the status bar
// and logs render the current one.
type Phase int

const (
	// PhaseLLMRequesting covers connection setup until the model
	// accepts the call.
	PhaseLLMRequesting Phase = iota

	// PhaseLLMThinking covers the wait before the first token arrives.
	PhaseLLMThinking

	// PhaseLLMStreaming covers token delivery.
	PhaseLLMStreaming

	// PhaseDBExecuting covers statement execution and row scanning.
	PhaseDBExecuting

	// PhaseProcessing covers result shaping after the database or
	// model work is done.
	PhaseProcessing
)

func (p Phase) String() string {
	switch p {
	case PhaseLLMRequesting:
		return "requesting"
	case PhaseLLMThinking:
		return "thinking"
	case PhaseLLMStreaming:
		return "streaming"
	case PhaseDBExecuting:
		return "executing"
	case PhaseProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Pending is a request waiting its turn. The queue owns it until
// TryDequeue hands it to the in-flight slot or a cancel operation
// consumes it.
type Pending struct {
	ID       ID
	Input    string
	Type     Type
	QueuedAt time.Time

	// Context is cancelled when this request is cancelled, whether it
	// is still waiting or already running. Units of work watch it at
	// every natural suspension point.
	Context context.Context
	Cancel  context.CancelFunc
}

// NewPending wraps user input as a queueable request with its own
// cancellable context derived from parent.
func NewPending(parent context.Context, id ID, input string, typ Type) *Pending {
	ctx, cancel := context.WithCancel(parent)
	return &Pending{
		ID:       id,
		Input:    input,
		Type:     typ,
		QueuedAt: time.Now(),
		Context:  ctx,
		Cancel:   cancel,
	}
}

// InFlight is the one request currently executing.
type InFlight struct {
	ID        ID
	Input     string
	Type      Type
	StartedAt time.Time
	Phase     Phase

	Context context.Context
	Cancel  context.CancelFunc
}

// Elapsed reports how long the request has been running as of now.
func (f *InFlight) Elapsed(now time.Time) time.Duration {
	return now.Sub(f.StartedAt)
}

// QueueEvent is the synchronous result of an Enqueue call.
type QueueEvent interface {
	isQueueEvent()
}

// Queued reports the 1-based position the request landed at among
// pending requests.
type Queued struct {
	Position int
}

// QueueFull reports that the request was rejected because the pending
// queue is at capacity. The queue is unchanged.
type QueueFull struct{}

func (Queued) isQueueEvent()    {}
func (QueueFull) isQueueEvent() {}
