// Package request holds the request model and FIFO queue at the center
// of Parley's scheduling. Every piece of user input becomes a request
// here, waits its turn, runs alone in the in-flight slot, and leaves
// through completion or cancellation.
package request

import (
	"fmt"
	"time"
)

// DefaultMaxDepth bounds the pending queue when no explicit depth is
// configured. Deep enough to type ahead, shallow enough that a queue
// position still means something.
const DefaultMaxDepth = 10

// Queue is the FIFO pending queue plus the single in-flight slot and
// the confirmation gate. It is plain owned state: the orchestrator
// loop is its only writer, so it takes no locks and is not safe for
// concurrent use.
type Queue struct {
	pending  []*Pending
	inFlight *InFlight
	awaiting bool
	maxDepth int
}

// NewQueue returns an empty queue with the default depth bound.
func NewQueue() *Queue {
	return NewQueueWithDepth(DefaultMaxDepth)
}

// NewQueueWithDepth returns an empty queue holding at most depth
// pending requests. Depths below one are coerced to one.
func NewQueueWithDepth(depth int) *Queue {
	if depth < 1 {
		depth = 1
	}
	return &Queue{maxDepth: depth}
}

// Enqueue appends the request and reports its 1-based position, or
// QueueFull when the bound is hit. A rejected request is not retained;
// the caller decides whether to cancel its context. Never blocks.
func (q *Queue) Enqueue(p *Pending) QueueEvent {
	if len(q.pending) >= q.maxDepth {
		return QueueFull{}
	}
	q.pending = append(q.pending, p)
	return Queued{Position: len(q.pending)}
}

// TryDequeue pops the oldest pending request. It returns nil while a
// confirmation answer is outstanding, or when nothing is pending.
func (q *Queue) TryDequeue() *Pending {
	if q.awaiting || len(q.pending) == 0 {
		return nil
	}
	p := q.pending[0]
	q.pending[0] = nil // let the slot be collected
	q.pending = q.pending[1:]
	return p
}

// CanProcessNext is the admission check consulted before dequeueing:
// the in-flight slot is free, work is waiting, and no confirmation
// gate is up. Re-evaluated after every state change.
func (q *Queue) CanProcessNext() bool {
	return q.inFlight == nil && len(q.pending) > 0 && !q.awaiting
}

// SetInFlight installs a freshly dequeued request into the in-flight
// slot with its starting phase and returns the record. Installing over
// an occupied slot is a scheduling bug, not a runtime condition, and
// panics.
func (q *Queue) SetInFlight(p *Pending, phase Phase) *InFlight {
	if q.inFlight != nil {
		panic(fmt.Sprintf("request: in-flight slot still holds %s while installing %s", q.inFlight.ID, p.ID))
	}
	q.inFlight = &InFlight{
		ID:        p.ID,
		Input:     p.Input,
		Type:      p.Type,
		StartedAt: time.Now(),
		Phase:     phase,
		Context:   p.Context,
		Cancel:    p.Cancel,
	}
	return q.inFlight
}

// ClearInFlight empties the slot without aborting the task, for
// requests that finished on their own. Returns nil when nothing was
// running; safe to call defensively. The confirmation gate is left
// alone.
func (q *Queue) ClearInFlight() *InFlight {
	f := q.inFlight
	q.inFlight = nil
	return f
}

// CancelCurrent aborts the running request and empties the slot,
// returning the aborted record so the caller can report it. Nil when
// nothing was running.
func (q *Queue) CancelCurrent() *InFlight {
	f := q.inFlight
	if f == nil {
		return nil
	}
	q.inFlight = nil
	f.Cancel()
	return f
}

// CancelByID cancels the request wherever it currently lives. A
// pending match is removed, its context cancelled, and the record
// returned. An in-flight match is aborted like CancelCurrent and nil
// is returned, since it no longer exists as pending data. An unknown
// id is a no-op. Safe to call repeatedly with the same id.
func (q *Queue) CancelByID(id ID) *Pending {
	for i, p := range q.pending {
		if p.ID != id {
			continue
		}
		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		p.Cancel()
		return p
	}
	if q.inFlight != nil && q.inFlight.ID == id {
		q.CancelCurrent()
	}
	return nil
}

// CancelAll aborts the running request, drains and cancels every
// pending request in FIFO order, and drops the confirmation gate. The
// queue is idle afterwards. Returns the cancelled pending requests in
// their original order.
func (q *Queue) CancelAll() []*Pending {
	q.CancelCurrent()
	drained := q.pending
	q.pending = nil
	for _, p := range drained {
		p.Cancel()
	}
	q.awaiting = false
	return drained
}

// SetConfirmationPending raises or drops the gate that holds
// scheduling while a destructive statement waits for an answer. The
// gate never reorders or cancels anything by itself.
func (q *Queue) SetConfirmationPending(pending bool) {
	q.awaiting = pending
}

// AwaitingConfirmation reports whether the gate is up.
func (q *Queue) AwaitingConfirmation() bool {
	return q.awaiting
}

// SetPhase updates the running request's phase. It reports false when
// the id no longer matches the slot, which means the update raced a
// cancellation and should be dropped.
func (q *Queue) SetPhase(id ID, phase Phase) bool {
	if q.inFlight == nil || q.inFlight.ID != id {
		return false
	}
	q.inFlight.Phase = phase
	return true
}

// PendingCount reports how many requests are waiting.
func (q *Queue) PendingCount() int {
	return len(q.pending)
}

// Position pairs a pending request id with its 1-based queue position.
type Position struct {
	ID  ID
	Pos int
}

// Positions lists pending requests in dequeue order, for the sidebar's
// queue panel.
func (q *Queue) Positions() []Position {
	if len(q.pending) == 0 {
		return nil
	}
	out := make([]Position, len(q.pending))
	for i, p := range q.pending {
		out[i] = Position{ID: p.ID, Pos: i + 1}
	}
	return out
}

// IsIdle reports whether nothing is running and nothing is waiting.
func (q *Queue) IsIdle() bool {
	return q.inFlight == nil && len(q.pending) == 0
}

// CurrentID reports the id of the running request, if any.
func (q *Queue) CurrentID() (ID, bool) {
	if q.inFlight == nil {
		return NoID, false
	}
	return q.inFlight.ID, true
}

// InFlight exposes the running request's record for progress sampling.
// Callers must treat it as read-only.
func (q *Queue) InFlight() *InFlight {
	return q.inFlight
}

// MaxDepth reports the pending bound.
func (q *Queue) MaxDepth() int {
	return q.maxDepth
}
