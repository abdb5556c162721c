// Package wallet runs the state-channel protocols of one participant. It owns
// the channel store, the outbox and the single process that is in flight.
package wallet

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/outbox"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

// Wallet serializes dispatched actions through the reducer.
type Wallet struct {
	mu      sync.Mutex
	reducer *Reducer
	state   State
	changed chan struct{}
}

func New(log zerolog.Logger, sd protocol.SharedData) *Wallet {
	return &Wallet{
		reducer: NewReducer(log),
		state:   State{SharedData: sd},
		changed: make(chan struct{}, 1),
	}
}

// Dispatch applies action and returns the resulting state.
func (w *Wallet) Dispatch(action any) State {
	state := w.apply(action)
	select {
	case w.changed <- struct{}{}:
	default:
	}
	return state
}

func (w *Wallet) apply(action any) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = w.reducer.Reduce(w.state, action)
	return w.state
}

func (w *Wallet) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Outbox returns the pending side effects.
func (w *Wallet) Outbox() outbox.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.SharedData.Outbox
}

// Changed receives a value after dispatches. Several dispatches may collapse
// into one notification.
func (w *Wallet) Changed() <-chan struct{} {
	return w.changed
}
