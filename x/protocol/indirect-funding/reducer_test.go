package indirectfunding

import (
	"io"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol"
	"github.com/compose-network/nitro-wallet/x/protocol/protocoltest"
)

func newTestReducer() *Reducer {
	return NewReducer(zerolog.New(io.Discard))
}

// sent returns the commitments queued in sd's message outbox after skip entries.
func sent(t *testing.T, sd protocol.SharedData, skip int) []channel.SignedCommitment {
	t.Helper()

	var out []channel.SignedCommitment
	for _, msg := range sd.Outbox.MessageOutbox[skip:] {
		relay, ok := msg.(communication.RelayMessage)
		require.True(t, ok)
		received, ok := relay.Action.(communication.CommitmentReceived)
		require.True(t, ok)
		out = append(out, received.SignedCommitment)
	}
	return out
}

func deliver(sc channel.SignedCommitment) communication.CommitmentReceived {
	return communication.CommitmentReceived{ProcessID: protocoltest.ProcessID, SignedCommitment: sc}
}

func TestIndirectFundingHappyPath(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	r := newTestReducer()
	sdA := s.SharedData(t, protocol.PlayerA, true)
	sdB := s.SharedData(t, protocol.PlayerB, true)

	stateA, sdA := r.Initialize(protocoltest.ProcessID, s.TargetID(), sdA)
	require.IsType(t, WaitForLedgerUpdate{}, stateA)
	proposal := sent(t, sdA, 0)
	require.Len(t, proposal, 1)
	require.Equal(t, uint32(4), proposal[0].Commitment.TurnNum)

	stateB, sdB := r.Initialize(protocoltest.ProcessID, s.TargetID(), sdB)
	require.IsType(t, WaitForLedgerUpdate{}, stateB)
	require.Empty(t, sdB.Outbox.MessageOutbox)

	stateB, sdB = r.Reduce(stateB, sdB, deliver(proposal[0]))
	require.IsType(t, WaitForPostFundSetup{}, stateB)
	vote := sent(t, sdB, 0)
	require.Len(t, vote, 1)

	ledger, _ := sdB.Channels.Get(s.LedgerID())
	require.Equal(t, 0, channel.AmountFor(ledger.Last.Commitment.Allocation, s.TargetID()).Cmp(big.NewInt(10)))

	stateA, sdA = r.Reduce(stateA, sdA, deliver(vote[0]))
	require.IsType(t, WaitForPostFundSetup{}, stateA)
	postFundA := sent(t, sdA, 1)
	require.Len(t, postFundA, 1)
	require.Equal(t, channel.PostFundSetup, postFundA[0].Commitment.CommitmentType)

	stateB, sdB = r.Reduce(stateB, sdB, deliver(postFundA[0]))
	require.Equal(t, Success{}, stateB)
	postFundB := sent(t, sdB, 1)
	require.Len(t, postFundB, 1)

	stateA, sdA = r.Reduce(stateA, sdA, deliver(postFundB[0]))
	require.Equal(t, Success{}, stateA)

	for _, sd := range []protocol.SharedData{sdA, sdB} {
		target, ok := sd.Channels.Get(s.TargetID())
		require.True(t, ok)
		require.Equal(t, s.LedgerID(), target.LedgerID)
		require.Equal(t, uint32(3), target.TurnNum())
	}
}

func TestIndirectFundingInitializeFailures(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	r := newTestReducer()

	state, _ := r.Initialize(protocoltest.ProcessID, channel.ID{0x01}, s.SharedData(t, protocol.PlayerA, true))
	require.Equal(t, Failure{Reason: ChannelNotFound}, state)
	require.True(t, IsTerminal(state))

	state, _ = r.Initialize(protocoltest.ProcessID, s.TargetID(), s.SharedData(t, protocol.PlayerA, false))
	require.Equal(t, Failure{Reason: NoLedgerChannel}, state)
}

func TestIndirectFundingAlreadyFunded(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	r := newTestReducer()
	sd := s.SharedData(t, protocol.PlayerA, true)

	funded := s.LedgerCommitment()
	funded.TurnNum = 4
	funded.CommitmentType = channel.App
	funded.CommitmentCount = 0
	funded.Allocation = []channel.Allocation{{Destination: s.TargetID(), Amount: big.NewInt(10)}}
	sd = protocoltest.Put(t, sd, s.Sign(t, funded))

	state, sd := r.Initialize(protocoltest.ProcessID, s.TargetID(), sd)
	require.Equal(t, Success{}, state)
	require.Empty(t, sd.Outbox.MessageOutbox)
}

func TestIndirectFundingRejectsInvalidLedgerCommitment(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	r := newTestReducer()
	sdB := s.SharedData(t, protocol.PlayerB, true)
	state, sdB := r.Initialize(protocoltest.ProcessID, s.TargetID(), sdB)

	// A proposal that pays everything to A instead of the target channel.
	bad, err := channel.ProposeAllocation(s.LedgerCommitment(), []channel.Allocation{{Destination: s.A, Amount: big.NewInt(10)}})
	require.NoError(t, err)

	state, _ = r.Reduce(state, sdB, deliver(s.Sign(t, bad)))
	require.Equal(t, Failure{Reason: ReceivedInvalidCommitment}, state)
}

func TestIndirectFundingIgnoresStaleCommitment(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	r := newTestReducer()
	sdB := s.SharedData(t, protocol.PlayerB, true)
	state, sdB := r.Initialize(protocoltest.ProcessID, s.TargetID(), sdB)

	next, nextSD := r.Reduce(state, sdB, deliver(s.Sign(t, s.LedgerCommitment())))
	require.Equal(t, state, next)
	require.Equal(t, sdB, nextSD)
}

func TestFundingAllocation(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	ledger := []channel.Allocation{
		{Destination: s.A, Amount: big.NewInt(8), Priority: 0},
		{Destination: s.B, Amount: big.NewInt(5), Priority: 1},
	}
	target := s.TargetCommitment(channel.PreFundSetup, 1, 1).Allocation

	out, err := FundingAllocation(ledger, target, s.TargetID())
	require.NoError(t, err)
	require.True(t, channel.AllocationsEqual([]channel.Allocation{
		{Destination: s.A, Amount: big.NewInt(3)},
		{Destination: s.TargetID(), Amount: big.NewInt(10), Priority: 1},
	}, out))

	_, err = FundingAllocation(ledger[:1], target, s.TargetID())
	require.ErrorIs(t, err, ErrInsufficientFunds)
}
