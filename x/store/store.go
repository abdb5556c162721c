// Package store persists hub processes and the latest commitment of every
// channel the hub takes part in.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/nitro-wallet/x/channel"
)

var (
	ErrProcessNotFound    = errors.New("store: process not found")
	ErrProcessExists      = errors.New("store: process already exists")
	ErrTurnNumberConflict = errors.New("store: turn number conflict")
)

// Process correlates a protocol instance with the application channel it
// funds and the counterparty the hub plays against.
type Process struct {
	ID           string         `json:"processId"`
	AppChannelID channel.ID     `json:"appChannelId"`
	TheirAddress common.Address `json:"theirAddress"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Repository is the storage the relay works against.
type Repository interface {
	GetProcess(ctx context.Context, processID string) (Process, error)
	// CreateProcess stores p, assigning a fresh id when p.ID is empty.
	CreateProcess(ctx context.Context, p Process) (Process, error)
	// GetCurrentCommitment returns the latest commitment of channelID. The
	// boolean is false when the hub has never stored one.
	GetCurrentCommitment(ctx context.Context, channelID channel.ID) (channel.SignedCommitment, bool, error)
	// SaveCommitments appends commitments to channelID if its latest stored
	// turn number is still expectedTurn. A nil expectedTurn means the channel
	// must not exist yet. Mismatches fail with ErrTurnNumberConflict and leave
	// the channel untouched.
	SaveCommitments(ctx context.Context, channelID channel.ID, expectedTurn *uint32, commitments ...channel.SignedCommitment) error
}

// Turn returns a pointer to turn, for SaveCommitments.
func Turn(turn uint32) *uint32 {
	return &turn
}
