package playera

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol"
	indirectfunding "github.com/compose-network/nitro-wallet/x/protocol/indirect-funding"
	"github.com/compose-network/nitro-wallet/x/protocol/protocoltest"
)

const pid = protocoltest.ProcessID

func waitForResponse(t *testing.T, s *protocoltest.Scenario, r *Reducer, withLedger bool) (State, protocol.SharedData) {
	t.Helper()

	state, sd := r.Initialize(s.SharedData(t, protocol.PlayerA, withLedger), pid, s.TargetID(), s.A, s.B)
	require.IsType(t, WaitForStrategyChoice{}, state)

	state, sd = r.Reduce(state, sd, StrategyChosen{ProcessID: pid, Strategy: communication.IndirectFundingStrategy})
	require.IsType(t, WaitForStrategyResponse{}, state)
	require.Equal(t, []communication.Message{
		communication.SendStrategyProposed(s.B, pid, communication.IndirectFundingStrategy),
	}, sd.Outbox.MessageOutbox)
	return state, sd
}

func TestPlayerAFundingHappyPath(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	r := NewReducer(zerolog.New(io.Discard))
	state, sd := waitForResponse(t, s, r, true)

	state, sd = r.Reduce(state, sd, communication.StrategyApproved{ProcessID: pid})
	waiting, ok := state.(WaitForFunding)
	require.True(t, ok)
	require.IsType(t, indirectfunding.WaitForLedgerUpdate{}, waiting.FundingState)

	// A is the ledger mover and proposes right away.
	require.Len(t, sd.Outbox.MessageOutbox, 2)
	proposal := sd.Outbox.MessageOutbox[1].(communication.RelayMessage).Action.(communication.CommitmentReceived)
	require.Equal(t, s.LedgerID(), proposal.SignedCommitment.Commitment.ChannelID())

	vote, err := channel.Vote(proposal.SignedCommitment.Commitment)
	require.NoError(t, err)
	state, sd = r.Reduce(state, sd, communication.CommitmentReceived{ProcessID: pid, SignedCommitment: s.Sign(t, vote)})
	waiting, ok = state.(WaitForFunding)
	require.True(t, ok)
	require.IsType(t, indirectfunding.WaitForPostFundSetup{}, waiting.FundingState)

	postFundB := s.Sign(t, s.TargetCommitment(channel.PostFundSetup, 3, 1))
	state, sd = r.Reduce(state, sd, communication.CommitmentsReceived{
		ProcessID:         pid,
		SignedCommitments: []channel.SignedCommitment{postFundB},
	})
	require.IsType(t, WaitForSuccessConfirmation{}, state)

	state, sd = r.Reduce(state, sd, FundingSuccessAcknowledged{ProcessID: pid})
	require.Equal(t, Success{}, state)
	require.Equal(t, communication.HideWallet, sd.Outbox.DisplayOutbox[len(sd.Outbox.DisplayOutbox)-1])
}

func TestPlayerAStrategyRejected(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	r := NewReducer(zerolog.New(io.Discard))
	state, sd := waitForResponse(t, s, r, true)

	state, _ = r.Reduce(state, sd, StrategyRejected{ProcessID: pid})
	require.IsType(t, WaitForStrategyChoice{}, state)
}

func TestPlayerANoLedger(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	r := NewReducer(zerolog.New(io.Discard))
	state, sd := waitForResponse(t, s, r, false)

	state, _ = r.Reduce(state, sd, communication.StrategyApproved{ProcessID: pid})
	require.Equal(t, Failure{Reason: IndirectFundingFailure}, state)
}

func TestPlayerACancelled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		by     protocol.PlayerIndex
		reason string
	}{
		{protocol.PlayerA, UserRefused},
		{protocol.PlayerB, OpponentRefused},
	}

	for _, tt := range tests {
		t.Run(tt.by.String(), func(t *testing.T) {
			t.Parallel()

			s := protocoltest.NewScenario(t)
			r := NewReducer(zerolog.New(io.Discard))
			state, sd := r.Initialize(s.SharedData(t, protocol.PlayerA, true), pid, s.TargetID(), s.A, s.B)

			state, sd = r.Reduce(state, sd, Cancelled{ProcessID: pid, By: tt.by})
			require.Equal(t, Failure{Reason: tt.reason}, state)
			require.Equal(t, []communication.Message{
				communication.FundingFailure(s.TargetID(), communication.FundingDeclined),
			}, sd.Outbox.MessageOutbox)
		})
	}
}
