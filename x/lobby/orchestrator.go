// Package lobby runs the client's channel discovery. While the application is
// in the lobby a single syncer keeps the list of open channels current; while
// it waits for an opponent its own open channel is published.
package lobby

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Phase is the application's top-level phase as far as discovery cares.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseWaitingRoom Phase = "waiting-room"
	PhasePlaying     Phase = "playing"
)

// Observation is what the orchestrator reads after every application action.
type Observation struct {
	Phase Phase
	// Self is the open channel published while in the waiting room.
	Self OpenChannel
}

// task is the syncer slot: notRunning or running.
type task interface {
	isTask()
}

type notRunning struct{}

type running struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (notRunning) isTask() {}
func (running) isTask()    {}

// finished reports whether the syncer exited on its own.
func (r running) finished() bool {
	select {
	case <-r.done:
		return true
	default:
	}
	return false
}

// Orchestrator starts and stops the syncer as the phase changes. At most one
// syncer runs at a time, and a syncer that exited is restarted on the next
// lobby observation.
type Orchestrator struct {
	mu        sync.Mutex
	syncer    Syncer
	dir       Directory
	task      task
	published *OpenChannel
	log       zerolog.Logger
}

func NewOrchestrator(syncer Syncer, dir Directory, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		syncer: syncer,
		dir:    dir,
		task:   notRunning{},
		log:    log.With().Str("component", "lobby").Logger(),
	}
}

// Observe reconciles the background work with obs. The syncer runs detached
// from ctx, which only bounds directory calls.
func (o *Orchestrator) Observe(ctx context.Context, obs Observation) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if obs.Phase == PhaseLobby {
		o.startLocked()
	} else {
		o.stopLocked()
	}

	if obs.Phase == PhaseWaitingRoom {
		return o.publishLocked(ctx, obs.Self)
	}
	return o.withdrawLocked(ctx)
}

// Running reports whether a syncer is active.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	r, ok := o.task.(running)
	return ok && !r.finished()
}

// Close stops the syncer and withdraws a published open channel.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked()
	return o.withdrawLocked(ctx)
}

func (o *Orchestrator) startLocked() {
	if r, ok := o.task.(running); ok && !r.finished() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := running{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(r.done)
		if err := o.syncer.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
			o.log.Error().Err(err).Msg("Open channel sync stopped")
		}
	}()
	o.task = r
	o.log.Debug().Msg("Open channel sync started")
}

func (o *Orchestrator) stopLocked() {
	r, ok := o.task.(running)
	if !ok {
		return
	}
	r.cancel()
	<-r.done
	o.task = notRunning{}
	o.log.Debug().Msg("Open channel sync stopped")
}

func (o *Orchestrator) publishLocked(ctx context.Context, self OpenChannel) error {
	if o.published != nil {
		return nil
	}
	if err := o.dir.Publish(ctx, self); err != nil {
		return err
	}
	o.published = &self
	o.log.Info().Str("address", self.Address.Hex()).Msg("Open channel published")
	return nil
}

func (o *Orchestrator) withdrawLocked(ctx context.Context) error {
	if o.published == nil {
		return nil
	}
	if err := o.dir.Remove(ctx, o.published.Address); err != nil {
		return err
	}
	o.log.Info().Str("address", o.published.Address.Hex()).Msg("Open channel withdrawn")
	o.published = nil
	return nil
}
