package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/compose-network/nitro-wallet/x/channel"
)

var _ Repository = (*Memory)(nil)

// Memory is an in-memory Repository for tests and single-instance hubs.
type Memory struct {
	mu        sync.RWMutex
	processes map[string]Process
	channels  map[channel.ID][]channel.SignedCommitment
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		processes: make(map[string]Process),
		channels:  make(map[channel.ID][]channel.SignedCommitment),
		now:       time.Now,
	}
}

func (m *Memory) GetProcess(_ context.Context, processID string) (Process, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.processes[processID]
	if !ok {
		return Process{}, fmt.Errorf("%w: %s", ErrProcessNotFound, processID)
	}
	return p, nil
}

func (m *Memory) CreateProcess(_ context.Context, p Process) (Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := m.processes[p.ID]; ok {
		return Process{}, fmt.Errorf("%w: %s", ErrProcessExists, p.ID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	m.processes[p.ID] = p
	return p, nil
}

func (m *Memory) GetCurrentCommitment(_ context.Context, channelID channel.ID) (channel.SignedCommitment, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.channels[channelID]
	if len(history) == 0 {
		return channel.SignedCommitment{}, false, nil
	}
	return history[len(history)-1], true, nil
}

func (m *Memory) SaveCommitments(_ context.Context, channelID channel.ID, expectedTurn *uint32, commitments ...channel.SignedCommitment) error {
	if len(commitments) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.channels[channelID]
	switch {
	case expectedTurn == nil && len(history) != 0:
		return fmt.Errorf("%w: channel %s already stored", ErrTurnNumberConflict, channelID.Hex())
	case expectedTurn != nil && len(history) == 0:
		return fmt.Errorf("%w: channel %s not stored", ErrTurnNumberConflict, channelID.Hex())
	case expectedTurn != nil:
		if current := history[len(history)-1].Commitment.TurnNum; current != *expectedTurn {
			return fmt.Errorf("%w: channel %s at turn %d, expected %d", ErrTurnNumberConflict, channelID.Hex(), current, *expectedTurn)
		}
	}

	for _, sc := range commitments {
		history = append(history, channel.SignedCommitment{Commitment: sc.Commitment.Clone(), Signature: sc.Signature})
	}
	m.channels[channelID] = history
	return nil
}

// History returns every stored commitment of channelID, oldest first.
func (m *Memory) History(channelID channel.ID) []channel.SignedCommitment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]channel.SignedCommitment, len(m.channels[channelID]))
	copy(out, m.channels[channelID])
	return out
}
