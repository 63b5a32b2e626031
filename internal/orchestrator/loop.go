package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pondside/parley/internal/request"
	"github.com/pondside/parley/internal/tui/events"
)

// loop is the only goroutine that touches the queue. Every iteration
// handles exactly one event, re-evaluates scheduling, and adjusts the
// progress ticker.
func (o *Orchestrator) loop(ctx context.Context) {
	defer close(o.finished)
	defer o.running.Store(false)

	var (
		ticker *time.Ticker
		tickC  <-chan time.Time
	)
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer stopTicker()

	for {
		select {
		case c := <-o.cmds:
			o.handleCommand(c)

		case d := <-o.done:
			o.handleCompletion(d)

		case now := <-tickC:
			if f := o.queue.InFlight(); f != nil {
				o.broker.Publish(events.Event{
					Type:    events.RequestProgressEvent,
					Payload: events.RequestProgressPayload{Update: request.Report(f, now)},
				})
			}

		case <-ctx.Done():
			o.shutdown()
			return
		}

		o.schedule()

		// The ticker runs only while something is in flight; no
		// polling cost when idle.
		if o.queue.InFlight() != nil {
			if ticker == nil {
				ticker = time.NewTicker(o.interval)
				tickC = ticker.C
			}
		} else {
			stopTicker()
		}
	}
}

func (o *Orchestrator) handleCommand(c command) {
	switch c := c.(type) {
	case submitCmd:
		o.handleSubmit(c)
	case confirmCmd:
		o.handleConfirm(c)
	case cancelCurrentCmd:
		o.handleCancelCurrent()
	case cancelByIDCmd:
		o.handleCancelByID(c.id)
	case cancelAllCmd:
		o.handleCancelAll()
	case phaseCmd:
		if o.queue.SetPhase(c.id, c.phase) {
			o.log.WithFields(logrus.Fields{
				"request_id": c.id.String(),
				"phase":      c.phase.String(),
			}).Debug("phase transition")
		}
	case snapshotCmd:
		c.reply <- o.snapshot()
	}
}

func (o *Orchestrator) handleSubmit(c submitCmd) {
	p := request.NewPending(o.rootCtx, c.id, c.input, c.typ)
	switch ev := o.queue.Enqueue(p).(type) {
	case request.QueueFull:
		p.Cancel()
		c.reply <- ErrQueueFull
		o.log.WithField("request_id", c.id.String()).Warn("queue full, request rejected")
		o.broker.Publish(events.Event{
			Type:    events.QueueFullEvent,
			Payload: events.QueueFullPayload{Input: c.input, MaxDepth: o.queue.MaxDepth()},
		})
		return

	case request.Queued:
		c.reply <- nil
		o.log.WithFields(logrus.Fields{
			"request_id": c.id.String(),
			"type":       c.typ.String(),
			"position":   ev.Position,
		}).Debug("request queued")

		// When the slot is free and the gate is open the request
		// starts on this very turn; a "position 1" event would only
		// flicker, so it is suppressed in favor of Started. Same for
		// a statement parked at the confirmation gate: it is awaiting
		// an answer, not waiting in line.
		o.schedule()
		cur, _ := o.queue.CurrentID()
		parked := o.park != nil && o.park.id == c.id
		if cur != c.id && !parked {
			o.broker.Publish(events.Event{
				Type: events.RequestQueuedEvent,
				Payload: events.RequestQueuedPayload{
					ID: c.id, Type: c.typ, Input: c.input, Position: ev.Position,
				},
			})
		}
		o.publishQueueState()
	}
}

// schedule starts the next request whenever the admission check
// allows. Called after every state change so completions chain into
// the next request without an idle gap.
func (o *Orchestrator) schedule() {
	for o.queue.CanProcessNext() {
		p := o.queue.TryDequeue()
		if p == nil {
			return
		}
		o.start(p)
	}
}

func (o *Orchestrator) start(p *request.Pending) {
	switch p.Type {
	case request.TypeSQL:
		// Destructive statements are gated before they ever occupy
		// the in-flight slot.
		if o.gateIfDestructive(p, p.Input, false) {
			return
		}
		f := o.queue.SetInFlight(p, request.PhaseDBExecuting)
		o.publishStarted(f)
		o.spawnExecute(p.ID, p.Input, p.Context)

	case request.TypeNaturalLanguage:
		f := o.queue.SetInFlight(p, request.PhaseLLMRequesting)
		o.publishStarted(f)
		o.spawnTranslate(p.ID, p.Input, p.Context)

	case request.TypeSchema:
		f := o.queue.SetInFlight(p, request.PhaseDBExecuting)
		o.publishStarted(f)
		o.spawnSchema(p.ID, p.Context)

	default:
		// Confirmation answers never reach the queue; anything else
		// here is a routing bug upstream. Report, don't wedge.
		p.Cancel()
		o.log.WithFields(logrus.Fields{
			"request_id": p.ID.String(),
			"type":       p.Type.String(),
		}).Error("request type has no unit of work")
		o.broker.Publish(events.Event{
			Type:    events.RequestFailedEvent,
			Payload: events.RequestFailedPayload{ID: p.ID, Type: p.Type, Error: "no unit of work for request type"},
		})
	}
}

// gateIfDestructive parks the statement and raises the confirmation
// gate when it needs a yes/no first. Reports true when gated.
func (o *Orchestrator) gateIfDestructive(p *request.Pending, stmt string, started bool) bool {
	if o.noConfirm || o.units.NeedsConfirmation == nil {
		return false
	}
	need, reason, kind := o.units.NeedsConfirmation(stmt)
	if !need || o.allowed[kind] {
		return false
	}
	o.park = &parkedStatement{
		id:      p.ID,
		typ:     p.Type,
		input:   p.Input,
		stmt:    stmt,
		kind:    kind,
		started: started,
		ctx:     p.Context,
		cancel:  p.Cancel,
	}
	o.queue.SetConfirmationPending(true)
	o.log.WithFields(logrus.Fields{
		"request_id": p.ID.String(),
		"kind":       kind,
	}).Info("destructive statement, awaiting confirmation")
	o.broker.Publish(events.Event{
		Type:    events.ConfirmationRequiredEvent,
		Payload: events.ConfirmationRequiredPayload{ID: p.ID, Statement: stmt, Reason: reason},
	})
	o.publishQueueState()
	return true
}

func (o *Orchestrator) handleConfirm(c confirmCmd) {
	park := o.park
	if park == nil {
		o.log.Debug("confirmation answer with nothing parked, ignoring")
		return
	}
	o.park = nil
	o.queue.SetConfirmationPending(false)

	if !c.approved {
		park.cancel()
		o.log.WithField("request_id", park.id.String()).Info("statement denied by user")
		o.broker.Publish(events.Event{
			Type:    events.RequestCancelledEvent,
			Payload: events.RequestCancelledPayload{IDs: []request.ID{park.id}},
		})
		o.publishQueueState()
		return
	}

	if c.always {
		o.allowed[park.kind] = true
		o.log.WithField("kind", park.kind).Info("statement kind whitelisted for session")
	}

	// The parked statement re-enters the in-flight slot under its
	// original id, skipping the queue.
	p := &request.Pending{
		ID:       park.id,
		Input:    park.input,
		Type:     park.typ,
		QueuedAt: time.Now(),
		Context:  park.ctx,
		Cancel:   park.cancel,
	}
	f := o.queue.SetInFlight(p, request.PhaseDBExecuting)
	if !park.started {
		o.publishStarted(f)
	}
	o.publishQueueState()
	o.spawnExecute(park.id, park.stmt, park.ctx)
}

func (o *Orchestrator) handleCancelCurrent() {
	f := o.queue.CancelCurrent()
	if f == nil {
		return
	}
	o.log.WithField("request_id", f.ID.String()).Info("request cancelled")
	o.broker.Publish(events.Event{
		Type:    events.RequestCancelledEvent,
		Payload: events.RequestCancelledPayload{IDs: []request.ID{f.ID}},
	})
	o.publishQueueState()
}

func (o *Orchestrator) handleCancelByID(id request.ID) {
	if o.park != nil && o.park.id == id {
		park := o.park
		o.park = nil
		o.queue.SetConfirmationPending(false)
		park.cancel()
		o.broker.Publish(events.Event{
			Type:    events.RequestCancelledEvent,
			Payload: events.RequestCancelledPayload{IDs: []request.ID{id}},
		})
		o.publishQueueState()
		return
	}

	cur, running := o.queue.CurrentID()
	removed := o.queue.CancelByID(id)
	cancelled := removed != nil || (running && cur == id)
	if !cancelled {
		return
	}
	o.log.WithField("request_id", id.String()).Info("request cancelled")
	o.broker.Publish(events.Event{
		Type:    events.RequestCancelledEvent,
		Payload: events.RequestCancelledPayload{IDs: []request.ID{id}},
	})
	o.publishQueueState()
}

func (o *Orchestrator) handleCancelAll() {
	var ids []request.ID
	if f := o.queue.InFlight(); f != nil {
		ids = append(ids, f.ID)
	}
	if o.park != nil {
		o.park.cancel()
		ids = append(ids, o.park.id)
		o.park = nil
	}
	for _, p := range o.queue.CancelAll() {
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		return
	}
	o.log.WithField("count", len(ids)).Info("all requests cancelled")
	o.broker.Publish(events.Event{
		Type:    events.RequestCancelledEvent,
		Payload: events.RequestCancelledPayload{IDs: ids},
	})
	o.publishQueueState()
}

func (o *Orchestrator) handleCompletion(d completion) {
	cur, ok := o.queue.CurrentID()
	if !ok || cur != d.id {
		// The request was cancelled while its task was finishing;
		// the cancellation already told the user everything.
		o.log.WithField("request_id", d.id.String()).Debug("stale completion dropped")
		return
	}

	if d.err != nil {
		f := o.queue.ClearInFlight()
		if errors.Is(d.err, context.Canceled) {
			o.broker.Publish(events.Event{
				Type:    events.RequestCancelledEvent,
				Payload: events.RequestCancelledPayload{IDs: []request.ID{f.ID}},
			})
		} else {
			o.log.WithFields(logrus.Fields{
				"request_id": f.ID.String(),
				"type":       f.Type.String(),
			}).WithError(d.err).Error("request failed")
			o.broker.Publish(events.Event{
				Type:    events.RequestFailedEvent,
				Payload: events.RequestFailedPayload{ID: f.ID, Type: f.Type, Error: d.err.Error()},
			})
		}
		o.publishQueueState()
		return
	}

	switch d.stage {
	case stageTranslated:
		o.broker.Publish(events.Event{
			Type: events.TranslationEvent,
			Payload: events.TranslationPayload{
				ID:         d.id,
				SQL:        d.translation.SQL,
				Commentary: d.translation.Commentary,
				Model:      d.translation.Model,
			},
		})
		f := o.queue.InFlight()
		p := &request.Pending{
			ID: f.ID, Input: f.Input, Type: f.Type,
			QueuedAt: f.StartedAt, Context: f.Context, Cancel: f.Cancel,
		}
		// The translated statement may itself be destructive; it
		// leaves the slot and parks like any other gated statement.
		o.queue.ClearInFlight()
		if o.gateIfDestructive(p, d.translation.SQL, true) {
			return
		}
		o.queue.SetInFlight(p, request.PhaseDBExecuting)
		o.publishQueueState()
		o.spawnExecute(d.id, d.translation.SQL, p.Context)

	case stageFinished:
		f := o.queue.ClearInFlight()
		elapsed := f.Elapsed(time.Now())
		o.log.WithFields(logrus.Fields{
			"request_id": f.ID.String(),
			"type":       f.Type.String(),
			"elapsed_ms": elapsed.Milliseconds(),
		}).Info("request completed")
		o.broker.Publish(events.Event{
			Type: events.RequestCompletedEvent,
			Payload: events.RequestCompletedPayload{
				ID: f.ID, Type: f.Type, Value: d.value, Elapsed: elapsed,
			},
		})
		o.publishQueueState()
	}
}

// shutdown behaves as cancel-all and lets Done observers unblock.
func (o *Orchestrator) shutdown() {
	if o.park != nil {
		o.park.cancel()
		o.park = nil
	}
	o.queue.CancelAll()
	o.log.Debug("orchestrator stopped")
}

// hooksFor builds the progress callbacks handed to a unit of work.
// Phase updates funnel back through the command channel so the queue
// stays single-writer; chunks go straight to the broker, which is
// safe from any goroutine.
func (o *Orchestrator) hooksFor(id request.ID) Hooks {
	return Hooks{
		Phase: func(p request.Phase) {
			select {
			case o.cmds <- phaseCmd{id: id, phase: p}:
			default:
				// Best effort; a lost phase update only costs one
				// stale status-line tick.
			}
		},
		Chunk: func(s string) {
			o.broker.Publish(events.Event{
				Type:    events.StreamChunkEvent,
				Payload: events.StreamChunkPayload{ID: id, Content: s},
			})
		},
	}
}

func (o *Orchestrator) spawnTranslate(id request.ID, question string, ctx context.Context) {
	hooks := o.hooksFor(id)
	go func() {
		tr, err := o.units.Translate(ctx, question, hooks)
		o.report(completion{id: id, stage: stageTranslated, translation: tr, err: err})
	}()
}

func (o *Orchestrator) spawnExecute(id request.ID, stmt string, ctx context.Context) {
	hooks := o.hooksFor(id)
	go func() {
		value, err := o.units.Execute(ctx, stmt, hooks)
		o.report(completion{id: id, stage: stageFinished, value: value, err: err})
	}()
}

func (o *Orchestrator) spawnSchema(id request.ID, ctx context.Context) {
	go func() {
		value, err := o.units.Schema(ctx)
		o.report(completion{id: id, stage: stageFinished, value: value, err: err})
	}()
}

// report hands a completion to the loop without leaking the task
// goroutine if the loop has already exited.
func (o *Orchestrator) report(d completion) {
	select {
	case o.done <- d:
	case <-o.finished:
	}
}

func (o *Orchestrator) publishStarted(f *request.InFlight) {
	o.log.WithFields(logrus.Fields{
		"request_id": f.ID.String(),
		"type":       f.Type.String(),
	}).Info("request started")
	o.broker.Publish(events.Event{
		Type:    events.RequestStartedEvent,
		Payload: events.RequestStartedPayload{ID: f.ID, Type: f.Type, Input: f.Input},
	})
}

func (o *Orchestrator) publishQueueState() {
	o.broker.Publish(events.Event{
		Type:    events.QueueStateEvent,
		Payload: o.queueStatePayload(),
	})
}

func (o *Orchestrator) queueStatePayload() events.QueueStatePayload {
	p := events.QueueStatePayload{
		Awaiting:     o.queue.AwaitingConfirmation(),
		Positions:    o.queue.Positions(),
		PendingCount: o.queue.PendingCount(),
	}
	if f := o.queue.InFlight(); f != nil {
		p.InFlight = true
		p.InFlightID = f.ID
		p.Phase = f.Phase
	}
	return p
}

func (o *Orchestrator) snapshot() State {
	s := State{
		Awaiting:     o.queue.AwaitingConfirmation(),
		Positions:    o.queue.Positions(),
		PendingCount: o.queue.PendingCount(),
		Idle:         o.queue.IsIdle(),
	}
	if f := o.queue.InFlight(); f != nil {
		s.InFlight = true
		s.InFlightID = f.ID
		s.Phase = f.Phase
	}
	return s
}
