package request

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPending(input string) *Pending {
	return NewPending(context.Background(), NextID(), input, TypeSQL)
}

func TestQueue_EnqueuePositions(t *testing.T) {
	q := NewQueueWithDepth(3)

	for want := 1; want <= 3; want++ {
		ev := q.Enqueue(newTestPending("stmt"))
		queued, ok := ev.(Queued)
		require.True(t, ok, "enqueue %d should be accepted", want)
		assert.Equal(t, want, queued.Position)
	}
	assert.Equal(t, 3, q.PendingCount())
}

func TestQueue_EnqueueFull(t *testing.T) {
	q := NewQueueWithDepth(2)

	x := q.Enqueue(newTestPending("x"))
	y := q.Enqueue(newTestPending("y"))
	z := q.Enqueue(newTestPending("z"))

	assert.Equal(t, Queued{Position: 1}, x)
	assert.Equal(t, Queued{Position: 2}, y)
	assert.Equal(t, QueueFull{}, z)
	assert.Equal(t, 2, q.PendingCount(), "rejected request must not change the queue")
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()

	a := newTestPending("a")
	b := newTestPending("b")
	c := newTestPending("c")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	assert.Same(t, a, q.TryDequeue())
	assert.Same(t, b, q.TryDequeue())
	assert.Same(t, c, q.TryDequeue())
	assert.Nil(t, q.TryDequeue(), "empty queue should dequeue nothing")
}

func TestQueue_ConfirmationGatesDequeue(t *testing.T) {
	q := NewQueue()

	a := newTestPending("a")
	q.Enqueue(a)
	q.Enqueue(newTestPending("b"))

	q.SetConfirmationPending(true)
	require.True(t, q.AwaitingConfirmation())
	assert.Nil(t, q.TryDequeue(), "gate must hold dequeue even with work pending")
	assert.False(t, q.CanProcessNext())
	assert.Equal(t, 2, q.PendingCount(), "gate must not drop or reorder anything")

	q.SetConfirmationPending(false)
	assert.True(t, q.CanProcessNext())
	assert.Same(t, a, q.TryDequeue(), "order preserved across the gate")
}

func TestQueue_CanProcessNext(t *testing.T) {
	q := NewQueue()
	assert.False(t, q.CanProcessNext(), "empty queue has nothing to process")

	q.Enqueue(newTestPending("a"))
	assert.True(t, q.CanProcessNext())

	p := q.TryDequeue()
	require.NotNil(t, p)
	q.SetInFlight(p, PhaseDBExecuting)
	q.Enqueue(newTestPending("b"))
	assert.False(t, q.CanProcessNext(), "occupied slot blocks admission")

	q.ClearInFlight()
	assert.True(t, q.CanProcessNext())
}

func TestQueue_TryDequeueIgnoresInFlight(t *testing.T) {
	// Admission control is CanProcessNext's job; TryDequeue only honors
	// the confirmation gate and emptiness.
	q := NewQueue()
	q.Enqueue(newTestPending("a"))
	q.Enqueue(newTestPending("b"))

	q.SetInFlight(q.TryDequeue(), PhaseDBExecuting)
	p := q.TryDequeue()
	require.NotNil(t, p, "occupied slot must not block TryDequeue itself")
	assert.Equal(t, "b", p.Input)
}

func TestQueue_SetInFlightOccupiedPanics(t *testing.T) {
	q := NewQueue()
	q.Enqueue(newTestPending("a"))
	q.Enqueue(newTestPending("b"))

	q.SetInFlight(q.TryDequeue(), PhaseDBExecuting)
	second := q.TryDequeue()
	require.NotNil(t, second)

	assert.Panics(t, func() {
		q.SetInFlight(second, PhaseDBExecuting)
	})
}

func TestQueue_ClearInFlight(t *testing.T) {
	q := NewQueue()
	assert.Nil(t, q.ClearInFlight(), "clearing an empty slot is a no-op")

	p := newTestPending("a")
	q.Enqueue(p)
	f := q.SetInFlight(q.TryDequeue(), PhaseDBExecuting)

	q.SetConfirmationPending(true)
	got := q.ClearInFlight()
	assert.Same(t, f, got)
	assert.NoError(t, f.Context.Err(), "natural completion must not cancel the task")
	assert.True(t, q.AwaitingConfirmation(), "clearing the slot must not touch the gate")

	_, running := q.CurrentID()
	assert.False(t, running)
}

func TestQueue_CancelCurrent(t *testing.T) {
	q := NewQueue()
	assert.Nil(t, q.CancelCurrent(), "cancelling while idle is a no-op")

	p := newTestPending("a")
	q.Enqueue(p)
	f := q.SetInFlight(q.TryDequeue(), PhaseDBExecuting)

	got := q.CancelCurrent()
	require.Same(t, f, got)
	assert.ErrorIs(t, got.Context.Err(), context.Canceled, "abort must signal the task")
	assert.True(t, q.IsIdle())
}

func TestQueue_CancelByID_Pending(t *testing.T) {
	q := NewQueue()

	a := newTestPending("a")
	b := newTestPending("b")
	c := newTestPending("c")
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	got := q.CancelByID(b.ID)
	require.Same(t, b, got)
	assert.ErrorIs(t, b.Context.Err(), context.Canceled)
	assert.Equal(t, 2, q.PendingCount())

	assert.Same(t, a, q.TryDequeue())
	assert.Same(t, c, q.TryDequeue())
}

func TestQueue_CancelByID_InFlight(t *testing.T) {
	q := NewQueue()

	p := newTestPending("a")
	q.Enqueue(p)
	f := q.SetInFlight(q.TryDequeue(), PhaseDBExecuting)

	got := q.CancelByID(f.ID)
	assert.Nil(t, got, "in-flight cancel returns no pending record")
	assert.ErrorIs(t, f.Context.Err(), context.Canceled)
	assert.True(t, q.IsIdle())
}

func TestQueue_CancelByID_Unknown(t *testing.T) {
	q := NewQueue()

	a := newTestPending("a")
	b := newTestPending("b")
	q.Enqueue(a)
	q.Enqueue(b)
	before := q.Positions()

	assert.Nil(t, q.CancelByID(NextID()))
	assert.Equal(t, before, q.Positions(), "unknown id must leave the queue untouched")
	assert.NoError(t, a.Context.Err())
	assert.NoError(t, b.Context.Err())
}

func TestQueue_CancelByID_Idempotent(t *testing.T) {
	q := NewQueue()

	a := newTestPending("a")
	q.Enqueue(a)

	require.Same(t, a, q.CancelByID(a.ID))
	assert.Nil(t, q.CancelByID(a.ID), "second cancel of the same id is a no-op")
	assert.Equal(t, 0, q.PendingCount())
}

func TestQueue_CancelAll(t *testing.T) {
	q := NewQueue()

	running := newTestPending("running")
	q.Enqueue(running)
	f := q.SetInFlight(q.TryDequeue(), PhaseDBExecuting)

	a := newTestPending("a")
	b := newTestPending("b")
	q.Enqueue(a)
	q.Enqueue(b)
	q.SetConfirmationPending(true)

	drained := q.CancelAll()

	require.Len(t, drained, 2)
	assert.Same(t, a, drained[0], "drained requests keep their original order")
	assert.Same(t, b, drained[1])
	assert.ErrorIs(t, f.Context.Err(), context.Canceled)
	assert.ErrorIs(t, a.Context.Err(), context.Canceled)
	assert.ErrorIs(t, b.Context.Err(), context.Canceled)
	assert.True(t, q.IsIdle())
	assert.False(t, q.AwaitingConfirmation())
	assert.Equal(t, 0, q.PendingCount())
}

func TestQueue_CancelAllEmpty(t *testing.T) {
	q := NewQueue()

	drained := q.CancelAll()
	assert.Empty(t, drained)
	assert.True(t, q.IsIdle())
}

func TestQueue_Positions(t *testing.T) {
	q := NewQueue()
	assert.Nil(t, q.Positions())

	a := newTestPending("a")
	b := newTestPending("b")
	q.Enqueue(a)
	q.Enqueue(b)

	got := q.Positions()
	require.Len(t, got, 2)
	assert.Equal(t, Position{ID: a.ID, Pos: 1}, got[0])
	assert.Equal(t, Position{ID: b.ID, Pos: 2}, got[1])
}

func TestQueue_SetPhase(t *testing.T) {
	q := NewQueue()

	p := newTestPending("a")
	q.Enqueue(p)
	f := q.SetInFlight(q.TryDequeue(), PhaseLLMRequesting)

	assert.True(t, q.SetPhase(f.ID, PhaseLLMStreaming))
	assert.Equal(t, PhaseLLMStreaming, q.InFlight().Phase)

	q.CancelCurrent()
	assert.False(t, q.SetPhase(f.ID, PhaseProcessing), "stale phase updates are rejected")
}

func TestQueue_CurrentID(t *testing.T) {
	q := NewQueue()

	_, ok := q.CurrentID()
	assert.False(t, ok)

	p := newTestPending("a")
	q.Enqueue(p)
	q.SetInFlight(q.TryDequeue(), PhaseDBExecuting)

	id, ok := q.CurrentID()
	require.True(t, ok)
	assert.Equal(t, p.ID, id)
}

func TestQueue_DepthCoercion(t *testing.T) {
	assert.Equal(t, 1, NewQueueWithDepth(0).MaxDepth())
	assert.Equal(t, 1, NewQueueWithDepth(-5).MaxDepth())
	assert.Equal(t, DefaultMaxDepth, NewQueue().MaxDepth())
}
