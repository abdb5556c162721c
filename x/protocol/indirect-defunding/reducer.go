package indirectdefunding

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

func IsAction(action protocol.Action) bool {
	switch action.(type) {
	case communication.CommitmentReceived, communication.CommitmentsReceived:
		return true
	default:
		return false
	}
}

type Reducer struct {
	log zerolog.Logger
}

func NewReducer(log zerolog.Logger) *Reducer {
	return &Reducer{log: log.With().Str("component", "indirect-defunding").Logger()}
}

// Initialize starts returning the funds of the concluded channel channelID to
// the ledger channel that funded it.
func (r *Reducer) Initialize(processID string, channelID channel.ID, sd protocol.SharedData) (State, protocol.SharedData) {
	target, ok := sd.Channels.Get(channelID)
	if !ok {
		return Failure{Reason: ChannelNotFound}, sd
	}
	if target.Last.Commitment.CommitmentType != channel.Conclude {
		return Failure{Reason: ChannelNotClosed}, sd
	}
	ledger, ok := sd.Channels.Get(target.LedgerID)
	if !ok || !ledger.IsLedger {
		return Failure{Reason: NoLedgerChannel}, sd
	}

	lcc, err := channel.AsConsensusCommitment(ledger.Last.Commitment)
	if err != nil {
		return Failure{Reason: ReceivedInvalidCommitment}, sd
	}
	if lcc.InConsensus() && channel.AmountFor(lcc.Allocation, channelID).Sign() == 0 {
		r.log.Warn().Str("process_id", processID).Str("channel_id", channelID.Hex()).Msg("Ledger holds no funds for channel")
		return defunded(target, sd)
	}

	s := WaitForLedgerUpdate{ProcessID: processID, ChannelID: channelID, LedgerID: ledger.ID()}
	if !lcc.InConsensus() || !ledger.IsOurTurn() {
		return s, sd
	}
	proposal := DefundingAllocation(lcc.Allocation, target.Last.Commitment.Allocation, channelID)
	next, err := channel.ProposeAllocation(ledger.Last.Commitment, proposal)
	if err != nil {
		return Failure{Reason: ReceivedInvalidCommitment}, sd
	}
	sd, _, err = protocol.SignAndStore(sd, processID, next)
	if err != nil {
		r.log.Error().Err(err).Str("process_id", processID).Msg("Failed to sign ledger proposal")
		return Failure{Reason: SigningFailed}, sd
	}
	return s, sd
}

func (r *Reducer) Reduce(state State, sd protocol.SharedData, action protocol.Action) (State, protocol.SharedData) {
	var received []channel.SignedCommitment
	switch a := action.(type) {
	case communication.CommitmentReceived:
		received = []channel.SignedCommitment{a.SignedCommitment}
	case communication.CommitmentsReceived:
		received = a.SignedCommitments
	default:
		protocol.Unreachable(action)
	}

	for _, sc := range received {
		s, ok := state.(WaitForLedgerUpdate)
		if !ok {
			break
		}
		state, sd = r.commitmentReceived(s, sd, sc)
	}
	return state, sd
}

func (r *Reducer) commitmentReceived(s WaitForLedgerUpdate, sd protocol.SharedData, sc channel.SignedCommitment) (State, protocol.SharedData) {
	if id := sc.Commitment.ChannelID(); id != s.LedgerID {
		r.log.Warn().Str("channel_id", id.Hex()).Str("state", s.StateName()).Msg("Commitment for unexpected channel")
		return s, sd
	}
	ledger, _ := sd.Channels.Get(s.LedgerID)
	if sc.Commitment.TurnNum <= ledger.TurnNum() {
		return s, sd
	}
	if err := channel.ValidateConsensusTransition(ledger.Last.Commitment, sc.Commitment); err != nil {
		r.log.Warn().Err(err).Str("process_id", s.ProcessID).Msg("Invalid ledger commitment")
		return Failure{Reason: ReceivedInvalidCommitment}, sd
	}
	sd, err := protocol.ReceiveCommitment(sd, sc)
	if err != nil {
		r.log.Warn().Err(err).Str("process_id", s.ProcessID).Msg("Rejected ledger commitment")
		return Failure{Reason: ReceivedInvalidCommitment}, sd
	}

	for {
		ledger, _ = sd.Channels.Get(s.LedgerID)
		target, _ := sd.Channels.Get(s.ChannelID)
		lcc, err := channel.AsConsensusCommitment(ledger.Last.Commitment)
		if err != nil {
			return Failure{Reason: ReceivedInvalidCommitment}, sd
		}
		if lcc.InConsensus() {
			if channel.AmountFor(lcc.Allocation, s.ChannelID).Sign() != 0 {
				return Failure{Reason: LedgerUpdateRejected}, sd
			}
			return defunded(target, sd)
		}

		expected := DefundingAllocation(ledger.Last.Commitment.Allocation, target.Last.Commitment.Allocation, s.ChannelID)
		if !channel.AllocationsEqual(expected, lcc.ProposedAllocation) {
			r.log.Warn().Str("process_id", s.ProcessID).Msg("Ledger proposal does not defund channel")
			return Failure{Reason: ReceivedInvalidCommitment}, sd
		}
		if !ledger.IsOurTurn() {
			return s, sd
		}
		next, err := channel.Vote(ledger.Last.Commitment)
		if err != nil {
			return Failure{Reason: ReceivedInvalidCommitment}, sd
		}
		sd, _, err = protocol.SignAndStore(sd, s.ProcessID, next)
		if err != nil {
			r.log.Error().Err(err).Str("process_id", s.ProcessID).Msg("Failed to sign ledger vote")
			return Failure{Reason: SigningFailed}, sd
		}
	}
}

func defunded(target protocol.ChannelState, sd protocol.SharedData) (State, protocol.SharedData) {
	target.LedgerID = common.Address{}
	sd.Channels = sd.Channels.Put(target)
	return Success{}, sd
}

// DefundingAllocation removes the channel's entry from the ledger allocation and
// credits each destination of the channel's final allocation.
func DefundingAllocation(ledger, final []channel.Allocation, channelID channel.ID) []channel.Allocation {
	out := make([]channel.Allocation, 0, len(ledger)+len(final))
	index := make(map[common.Address]int)
	for _, a := range channel.SortedAllocation(ledger) {
		if a.Destination == channelID {
			continue
		}
		index[a.Destination] = len(out)
		out = append(out, a)
	}
	for _, a := range channel.SortedAllocation(final) {
		amount := channel.AmountFor([]channel.Allocation{a}, a.Destination)
		if i, ok := index[a.Destination]; ok {
			out[i].Amount = new(big.Int).Add(out[i].Amount, amount)
			continue
		}
		index[a.Destination] = len(out)
		out = append(out, channel.Allocation{Destination: a.Destination, Amount: amount})
	}
	return channel.Reprioritize(out)
}
