// Package orchestrator drives all user-triggered work. A single
// goroutine owns the request queue and multiplexes three event
// sources: commands from the UI, completions from spawned units of
// work, and the progress ticker. Queue state is never touched from
// anywhere else, so the queue itself needs no locking.
package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pondside/parley/internal/request"
	"github.com/pondside/parley/internal/tui/events"
)

// ErrQueueFull is returned by Submit when the pending queue is at
// capacity. The request is dropped; re-issuing is a user action.
var ErrQueueFull = errors.New("request queue is full")

// ErrNotRunning is returned when the loop has not been started or has
// already shut down.
var ErrNotRunning = errors.New("orchestrator is not running")

// Hooks let a unit of work report progress while it runs. Both
// callbacks are safe to call from the task goroutine.
type Hooks struct {
	// Phase reports a phase transition for the status line.
	Phase func(request.Phase)

	// Chunk forwards a streamed fragment for live display.
	Chunk func(string)
}

// Translation is what the natural-language unit hands back before its
// statement runs. The statement continues through the same request;
// commentary and model name go straight to the UI.
type Translation struct {
	SQL        string
	Commentary string
	Model      string
}

// Units routes each request type to its unit of work. Every function
// receives the request's context and must observe it at natural
// suspension points. Execution results are opaque to the loop; it
// forwards them on completion events without looking inside.
type Units struct {
	// Translate turns a question into SQL.
	Translate func(ctx context.Context, question string, hooks Hooks) (Translation, error)

	// Execute runs one SQL statement.
	Execute func(ctx context.Context, stmt string, hooks Hooks) (interface{}, error)

	// Schema re-reads the database schema.
	Schema func(ctx context.Context) (interface{}, error)

	// NeedsConfirmation reports whether the statement must be
	// confirmed before running, with a user-facing reason and the
	// statement kind used by the session's always-allow set.
	NeedsConfirmation func(stmt string) (ok bool, reason, kind string)
}

// Config carries everything the orchestrator needs at construction.
type Config struct {
	Broker *events.Broker
	Units  Units
	Logger *logrus.Logger

	// MaxDepth bounds the pending queue; zero means the default.
	MaxDepth int

	// ProgressInterval is the progress ticker cadence; zero means the
	// default.
	ProgressInterval time.Duration

	// SkipConfirmation disables the destructive-statement gate
	// entirely (--no-confirm).
	SkipConfirmation bool
}

// State is a read-only snapshot for tests and the one-shot CLI path.
type State struct {
	InFlight     bool
	InFlightID   request.ID
	Phase        request.Phase
	Awaiting     bool
	Positions    []request.Position
	PendingCount int
	Idle         bool
}

// Orchestrator is the scheduling loop. All exported methods are safe
// for concurrent use; they funnel into the loop through a command
// channel.
type Orchestrator struct {
	queue  *request.Queue
	broker *events.Broker
	units  Units
	log    *logrus.Logger

	interval  time.Duration
	noConfirm bool

	cmds chan command
	done chan completion

	rootCtx  context.Context
	running  atomic.Bool
	finished chan struct{}

	// Loop-owned state beyond the queue itself.
	park    *parkedStatement
	allowed map[string]bool
}

// parkedStatement is a destructive statement waiting for the user's
// answer. It keeps the original request's identity and context so the
// statement re-enters the in-flight slot under the same id.
type parkedStatement struct {
	id      request.ID
	typ     request.Type
	input   string
	stmt    string
	kind    string
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New builds an orchestrator around an empty queue.
func New(cfg Config) *Orchestrator {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	depth := cfg.MaxDepth
	if depth <= 0 {
		depth = request.DefaultMaxDepth
	}
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = request.DefaultReportInterval
	}
	return &Orchestrator{
		queue:     request.NewQueueWithDepth(depth),
		broker:    cfg.Broker,
		units:     cfg.Units,
		log:       log,
		interval:  interval,
		noConfirm: cfg.SkipConfirmation,
		cmds:      make(chan command, 32),
		done:      make(chan completion, 8),
		finished:  make(chan struct{}),
		allowed:   make(map[string]bool),
	}
}

// Start launches the loop. Cancelling ctx behaves as cancel-all and
// shuts the loop down; Done reports when it has exited.
func (o *Orchestrator) Start(ctx context.Context) {
	o.rootCtx = ctx
	o.running.Store(true)
	go o.loop(ctx)
}

// Done is closed when the loop has fully exited.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.finished
}

// Submit wraps user input as a request and enqueues it. The id is
// allocated before the request enters the queue and identifies it on
// every event that follows. Returns ErrQueueFull when the queue
// rejects it.
func (o *Orchestrator) Submit(input string, typ request.Type) (request.ID, error) {
	id := request.NextID()
	reply := make(chan error, 1)
	if err := o.send(submitCmd{id: id, input: input, typ: typ, reply: reply}); err != nil {
		return request.NoID, err
	}
	select {
	case err := <-reply:
		return id, err
	case <-o.finished:
		return request.NoID, ErrNotRunning
	}
}

// Confirm answers an outstanding destructive-statement gate.
// Confirmation answers bypass the queue entirely. With always set, an
// approval also whitelists the statement's kind for the rest of the
// session.
func (o *Orchestrator) Confirm(approved, always bool) error {
	return o.send(confirmCmd{approved: approved, always: always})
}

// CancelCurrent aborts whatever is running. Queued requests are
// untouched; the next one starts immediately.
func (o *Orchestrator) CancelCurrent() error {
	return o.send(cancelCurrentCmd{})
}

// CancelByID cancels one request wherever it is: running, queued, or
// parked behind the confirmation gate. Unknown ids are a no-op.
func (o *Orchestrator) CancelByID(id request.ID) error {
	return o.send(cancelByIDCmd{id: id})
}

// CancelAll aborts the running request and drains the queue,
// discarding any parked statement and dropping the confirmation gate.
func (o *Orchestrator) CancelAll() error {
	return o.send(cancelAllCmd{})
}

// Snapshot returns the queue's current state. Synchronous: it round-
// trips through the loop so the answer is never torn.
func (o *Orchestrator) Snapshot() (State, error) {
	reply := make(chan State, 1)
	if err := o.send(snapshotCmd{reply: reply}); err != nil {
		return State{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-o.finished:
		return State{}, ErrNotRunning
	}
}

func (o *Orchestrator) send(c command) error {
	if !o.running.Load() {
		return ErrNotRunning
	}
	select {
	case o.cmds <- c:
		return nil
	case <-o.finished:
		return ErrNotRunning
	}
}

// command is the closed set of messages the loop accepts.
type command interface{ isCommand() }

type submitCmd struct {
	id    request.ID
	input string
	typ   request.Type
	reply chan error
}

type confirmCmd struct {
	approved bool
	always   bool
}

type cancelCurrentCmd struct{}

type cancelByIDCmd struct{ id request.ID }

type cancelAllCmd struct{}

type phaseCmd struct {
	id    request.ID
	phase request.Phase
}

type snapshotCmd struct{ reply chan State }

func (submitCmd) isCommand()        {}
func (confirmCmd) isCommand()       {}
func (cancelCurrentCmd) isCommand() {}
func (cancelByIDCmd) isCommand()    {}
func (cancelAllCmd) isCommand()     {}
func (phaseCmd) isCommand()         {}
func (snapshotCmd) isCommand()      {}

// completionStage distinguishes a finished translation, which
// continues into execution, from a finished request.
type completionStage int

const (
	stageFinished completionStage = iota
	stageTranslated
)

// completion is what task goroutines report back to the loop.
type completion struct {
	id          request.ID
	stage       completionStage
	translation Translation
	value       interface{}
	err         error
}
