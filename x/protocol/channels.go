package protocol

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/nitro-wallet/x/channel"
)

var (
	ErrChannelNotFound = errors.New("protocol: channel not found")
	ErrInvalidTurn     = errors.New("protocol: unexpected turn number")
	ErrNotParticipant  = errors.New("protocol: signer is not a participant")
)

// ChannelState is the wallet's view of one channel: who we are in it and the
// two most recent signed commitments.
type ChannelState struct {
	Channel     channel.Channel
	OurIndex    int
	Last        channel.SignedCommitment
	Penultimate *channel.SignedCommitment
	IsLedger    bool
	// LedgerID is set when the channel was funded through a ledger channel.
	LedgerID common.Address
}

func (cs ChannelState) ID() channel.ID {
	return cs.Channel.ID()
}

func (cs ChannelState) OurAddress() common.Address {
	return cs.Channel.Participants[cs.OurIndex]
}

// Opponents returns every participant except us, in turn order.
func (cs ChannelState) Opponents() []common.Address {
	out := make([]common.Address, 0, len(cs.Channel.Participants)-1)
	for i, p := range cs.Channel.Participants {
		if i != cs.OurIndex {
			out = append(out, p)
		}
	}
	return out
}

func (cs ChannelState) TurnNum() uint32 {
	return cs.Last.Commitment.TurnNum
}

// IsOurTurn reports whether we sign the commitment after Last.
func (cs ChannelState) IsOurTurn() bool {
	return cs.Channel.MoverIndex(cs.TurnNum()+1) == cs.OurIndex
}

func (cs ChannelState) FundedByLedger() bool {
	return cs.LedgerID != (common.Address{})
}

// Advance validates sc as the successor of Last and shifts it in.
func (cs ChannelState) Advance(sc channel.SignedCommitment) (ChannelState, error) {
	if !sc.Commitment.Channel.Equal(cs.Channel) {
		return cs, fmt.Errorf("%w: commitment for %s", ErrChannelNotFound, sc.Commitment.ChannelID().Hex())
	}
	if want := cs.TurnNum() + 1; sc.Commitment.TurnNum != want {
		return cs, fmt.Errorf("%w: got %d, want %d", ErrInvalidTurn, sc.Commitment.TurnNum, want)
	}
	if err := sc.Verify(); err != nil {
		return cs, err
	}
	last := cs.Last
	cs.Penultimate = &last
	cs.Last = sc
	return cs, nil
}

// NewChannelState opens a channel from its first signed commitment.
func NewChannelState(sc channel.SignedCommitment, us common.Address) (ChannelState, error) {
	ch := sc.Commitment.Channel
	if err := ch.Validate(); err != nil {
		return ChannelState{}, err
	}
	idx := ch.IndexOf(us)
	if idx < 0 {
		return ChannelState{}, fmt.Errorf("%w: %s", ErrNotParticipant, us.Hex())
	}
	if err := sc.Verify(); err != nil {
		return ChannelState{}, err
	}
	return ChannelState{Channel: ch, OurIndex: idx, Last: sc}, nil
}

// ChannelStore indexes channel states by id. Put returns a new store, so a store
// held by an earlier SharedData value never changes.
type ChannelStore map[channel.ID]ChannelState

func (s ChannelStore) Get(id channel.ID) (ChannelState, bool) {
	cs, ok := s[id]
	return cs, ok
}

func (s ChannelStore) Put(cs ChannelState) ChannelStore {
	out := maps.Clone(s)
	if out == nil {
		out = make(ChannelStore, 1)
	}
	out[cs.ID()] = cs
	return out
}

// FindLedger returns the ledger channel whose participants match
// participants. Among several, the one with the lowest channel id wins.
func (s ChannelStore) FindLedger(participants []common.Address) (ChannelState, bool) {
	var (
		found ChannelState
		ok    bool
	)
	for id, cs := range s {
		if !cs.IsLedger || !slices.Equal(cs.Channel.Participants, participants) {
			continue
		}
		if !ok || id.Cmp(found.ID()) < 0 {
			found, ok = cs, true
		}
	}
	return found, ok
}
