// Package protocoltest builds two-party channel fixtures for protocol tests.
package protocoltest

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

var (
	AppChannelType    = common.HexToAddress("0x00000000000000000000000000000000000a9900")
	LedgerChannelType = common.HexToAddress("0x00000000000000000000000000000000001ed900")
	Adjudicator       = common.HexToAddress("0x0000000000000000000000000000000000adc000")
)

const ProcessID = "process-0x01"

// Scenario is a target channel between A and B, each contributing 5, plus a
// ledger channel holding 5 for each of them.
type Scenario struct {
	SignerA, SignerB *channel.KeySigner
	A, B             common.Address
	Target           channel.Channel
	Ledger           channel.Channel
}

func NewScenario(t testing.TB) *Scenario {
	t.Helper()

	keyA, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyB, err := crypto.GenerateKey()
	require.NoError(t, err)

	s := &Scenario{SignerA: channel.NewKeySigner(keyA), SignerB: channel.NewKeySigner(keyB)}
	s.A, s.B = s.SignerA.Address(), s.SignerB.Address()
	participants := []common.Address{s.A, s.B}
	s.Target = channel.Channel{Participants: participants, ChannelType: AppChannelType, Nonce: big.NewInt(1)}
	s.Ledger = channel.Channel{Participants: participants, ChannelType: LedgerChannelType, Nonce: big.NewInt(1)}
	return s
}

func (s *Scenario) TargetID() channel.ID { return s.Target.ID() }
func (s *Scenario) LedgerID() channel.ID { return s.Ledger.ID() }

// Signer returns the signer of player p.
func (s *Scenario) Signer(p protocol.PlayerIndex) *channel.KeySigner {
	if p == protocol.PlayerA {
		return s.SignerA
	}
	return s.SignerB
}

// Sign signs c with the key of its mover.
func (s *Scenario) Sign(t testing.TB, c channel.Commitment) channel.SignedCommitment {
	t.Helper()

	signer := s.SignerA
	if c.Mover() == s.B {
		signer = s.SignerB
	}
	sc, err := signer.SignCommitment(c)
	require.NoError(t, err)
	return sc
}

func (s *Scenario) allocation() []channel.Allocation {
	return []channel.Allocation{
		{Destination: s.A, Amount: big.NewInt(5), Priority: 0},
		{Destination: s.B, Amount: big.NewInt(5), Priority: 1},
	}
}

// TargetCommitment returns the target channel commitment at turn.
func (s *Scenario) TargetCommitment(typ channel.Type, turn, count uint32) channel.Commitment {
	return channel.Commitment{
		Channel:         s.Target,
		CommitmentType:  typ,
		CommitmentCount: count,
		TurnNum:         turn,
		Allocation:      s.allocation(),
		AppAttributes:   []byte{},
	}
}

// LedgerCommitment returns the funded ledger channel at turn 3, in consensus.
func (s *Scenario) LedgerCommitment() channel.Commitment {
	return channel.Commitment{
		Channel:         s.Ledger,
		CommitmentType:  channel.PostFundSetup,
		CommitmentCount: 1,
		TurnNum:         3,
		Allocation:      s.allocation(),
		AppAttributes:   []byte{},
	}
}

// SharedData builds the view of player p: the target channel after both
// PreFundSetup commitments and, when withLedger is set, the funded ledger.
func (s *Scenario) SharedData(t testing.TB, p protocol.PlayerIndex, withLedger bool) protocol.SharedData {
	t.Helper()

	us := s.Signer(p).Address()
	first := s.Sign(t, s.TargetCommitment(channel.PreFundSetup, 0, 0))
	second := s.Sign(t, s.TargetCommitment(channel.PreFundSetup, 1, 1))
	target, err := protocol.NewChannelState(first, us)
	require.NoError(t, err)
	target, err = target.Advance(second)
	require.NoError(t, err)

	sd := protocol.SharedData{Signer: s.Signer(p), Adjudicator: Adjudicator}
	sd.Channels = sd.Channels.Put(target)

	if withLedger {
		ledger, err := protocol.NewChannelState(s.Sign(t, s.LedgerCommitment()), us)
		require.NoError(t, err)
		ledger.IsLedger = true
		sd.Channels = sd.Channels.Put(ledger)
	}
	return sd
}

// Put replaces the latest commitment of a channel in sd, bypassing validation.
func Put(t testing.TB, sd protocol.SharedData, sc channel.SignedCommitment) protocol.SharedData {
	t.Helper()

	cs, ok := sd.Channels.Get(sc.Commitment.ChannelID())
	require.True(t, ok)
	last := cs.Last
	cs.Penultimate = &last
	cs.Last = sc
	sd.Channels = sd.Channels.Put(cs)
	return sd
}

// FinalAllocation is the allocation the target channel concludes with.
func (s *Scenario) FinalAllocation() []channel.Allocation {
	return []channel.Allocation{
		{Destination: s.A, Amount: big.NewInt(7), Priority: 0},
		{Destination: s.B, Amount: big.NewInt(3), Priority: 1},
	}
}

// Concluded builds the view of player p once the target channel has concluded
// at turn 4 with FinalAllocation. With viaLedger the target was funded by the
// ledger, which holds 10 for it at turn 5.
func (s *Scenario) Concluded(t testing.TB, p protocol.PlayerIndex, viaLedger bool) protocol.SharedData {
	t.Helper()

	sd := s.SharedData(t, p, viaLedger)
	conclude := s.TargetCommitment(channel.Conclude, 4, 0)
	conclude.Allocation = s.FinalAllocation()
	sd = Put(t, sd, s.Sign(t, conclude))

	if viaLedger {
		ledger := s.LedgerCommitment()
		ledger.CommitmentType = channel.App
		ledger.CommitmentCount = 0
		ledger.TurnNum = 5
		ledger.Allocation = []channel.Allocation{{Destination: s.TargetID(), Amount: big.NewInt(10)}}
		sd = Put(t, sd, s.Sign(t, ledger))

		target, _ := sd.Channels.Get(s.TargetID())
		target.LedgerID = s.LedgerID()
		sd.Channels = sd.Channels.Put(target)
	}
	return sd
}
