package wallet

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/outbox"
	"github.com/compose-network/nitro-wallet/x/protocol"
	playera "github.com/compose-network/nitro-wallet/x/protocol/funding/player-a"
	playerb "github.com/compose-network/nitro-wallet/x/protocol/funding/player-b"
	"github.com/compose-network/nitro-wallet/x/protocol/protocoltest"
)

// relay delivers every queued message of from to to and confirms each one.
func relay(from, to *Wallet) int {
	delivered := 0
	for {
		messages := from.Outbox().MessageOutbox
		if len(messages) == 0 {
			return delivered
		}
		if m, ok := messages[0].(communication.RelayMessage); ok {
			to.Dispatch(m.Action)
			delivered++
		}
		from.Dispatch(outbox.MessageSent{})
	}
}

func newWallets(t *testing.T, s *protocoltest.Scenario) (*Wallet, *Wallet) {
	t.Helper()

	log := zerolog.New(io.Discard)
	return New(log, s.SharedData(t, protocol.PlayerA, true)), New(log, s.SharedData(t, protocol.PlayerB, true))
}

func fund(t *testing.T, s *protocoltest.Scenario, a, b *Wallet) {
	t.Helper()

	pid := ProcessID(FundingProcess, s.TargetID())
	a.Dispatch(FundingRequested{ChannelID: s.TargetID(), PlayerIndex: protocol.PlayerA})
	b.Dispatch(FundingRequested{ChannelID: s.TargetID(), PlayerIndex: protocol.PlayerB})
	a.Dispatch(playera.StrategyChosen{ProcessID: pid, Strategy: communication.IndirectFundingStrategy})

	for i := 0; i < 10; i++ {
		sent := relay(a, b)
		if _, ok := b.State().Current.State.(playerb.WaitForStrategyApproval); ok {
			b.Dispatch(playerb.StrategyApproved{ProcessID: pid})
		}
		if sent+relay(b, a) == 0 {
			break
		}
	}

	a.Dispatch(playera.FundingSuccessAcknowledged{ProcessID: pid})
	b.Dispatch(playerb.FundingSuccessAcknowledged{ProcessID: pid})
}

func TestProcessID(t *testing.T) {
	t.Parallel()

	id := channel.ID{0xab}
	require.Equal(t, "funding-"+strings.ToLower(id.Hex()), ProcessID(FundingProcess, id))
}

func TestWalletFundsAndDefundsThroughLedger(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	a, b := newWallets(t, s)

	fund(t, s, a, b)
	for _, w := range []*Wallet{a, b} {
		state := w.State()
		require.True(t, state.Idle())
		require.NotNil(t, state.LastOutcome)
		require.True(t, state.LastOutcome.Success)
		require.Equal(t, FundingProcess, state.LastOutcome.Kind)

		target, _ := state.SharedData.Channels.Get(s.TargetID())
		require.True(t, target.FundedByLedger())
	}

	// Play the application to the end: A concludes at turn 4, B at turn 5.
	first := s.TargetCommitment(channel.Conclude, 4, 0)
	first.Allocation = s.FinalAllocation()
	second := s.TargetCommitment(channel.Conclude, 5, 1)
	second.Allocation = s.FinalAllocation()
	stored := CommitmentsStored{SignedCommitments: []channel.SignedCommitment{s.Sign(t, first), s.Sign(t, second)}}
	a.Dispatch(stored)
	b.Dispatch(stored)

	a.Dispatch(DefundRequested{ChannelID: s.TargetID()})
	b.Dispatch(DefundRequested{ChannelID: s.TargetID()})
	relay(a, b)
	relay(b, a)

	for _, w := range []*Wallet{a, b} {
		state := w.State()
		require.True(t, state.Idle())
		require.Equal(t, DefundingProcess, state.LastOutcome.Kind)
		require.True(t, state.LastOutcome.Success, state.LastOutcome.Reason)

		ledger, _ := state.SharedData.Channels.Get(s.LedgerID())
		require.True(t, channel.AllocationsEqual(s.FinalAllocation(), ledger.Last.Commitment.Allocation))
	}
}

func TestWalletIgnoresOtherProcesses(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	a, _ := newWallets(t, s)

	a.Dispatch(FundingRequested{ChannelID: s.TargetID(), PlayerIndex: protocol.PlayerA})
	before := a.State()
	require.IsType(t, playera.WaitForStrategyChoice{}, before.Current.State)

	after := a.Dispatch(playera.StrategyChosen{ProcessID: "funding-0xother", Strategy: communication.IndirectFundingStrategy})
	require.Equal(t, before.Current, after.Current)

	// A second request waits for the running process.
	after = a.Dispatch(DefundRequested{ChannelID: s.TargetID()})
	require.Equal(t, before.Current, after.Current)
	require.Nil(t, after.LastOutcome)
}

func TestWalletRejectsRequests(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)

	tests := []struct {
		name   string
		action any
		reason string
	}{
		{"unknown channel", FundingRequested{ChannelID: channel.ID{0x01}, PlayerIndex: protocol.PlayerA}, channelNotFound},
		{"wrong role", FundingRequested{ChannelID: s.TargetID(), PlayerIndex: protocol.PlayerB}, invalidChannel},
		{"open channel", DefundRequested{ChannelID: s.TargetID()}, "Channel Not Closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := New(zerolog.New(io.Discard), s.SharedData(t, protocol.PlayerA, true))
			state := w.Dispatch(tt.action)
			require.True(t, state.Idle())
			require.NotNil(t, state.LastOutcome)
			require.False(t, state.LastOutcome.Success)
			require.Equal(t, tt.reason, state.LastOutcome.Reason)
		})
	}
}

func TestWalletClearsOutbox(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	a, _ := newWallets(t, s)

	a.Dispatch(FundingRequested{ChannelID: s.TargetID(), PlayerIndex: protocol.PlayerA})
	require.Equal(t, []communication.DisplayMessage{communication.ShowWallet}, a.Outbox().DisplayOutbox)

	a.Dispatch(outbox.DisplayMessageSent{})
	require.Empty(t, a.Outbox().DisplayOutbox)

	select {
	case <-a.Changed():
	default:
		t.Fatal("expected a change notification")
	}
}

func TestWalletOpensChannels(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	w := New(zerolog.New(io.Discard), protocol.SharedData{Signer: s.SignerB})

	opened := s.Sign(t, s.LedgerCommitment())
	state := w.Dispatch(ChannelOpened{SignedCommitment: opened, IsLedger: true})
	ledger, ok := state.SharedData.Channels.Get(s.LedgerID())
	require.True(t, ok)
	require.True(t, ledger.IsLedger)
	require.Equal(t, 1, ledger.OurIndex)

	// Opening twice keeps the first view.
	again := w.Dispatch(ChannelOpened{SignedCommitment: opened})
	ledger, _ = again.SharedData.Channels.Get(s.LedgerID())
	require.True(t, ledger.IsLedger)
}

func TestWalletPanicsOnUnknownAction(t *testing.T) {
	t.Parallel()

	w := New(zerolog.New(io.Discard), protocol.SharedData{})
	require.Panics(t, func() { w.Dispatch(struct{}{}) })
}
