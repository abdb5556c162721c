package indirectfunding

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

var ErrInsufficientFunds = errors.New("indirectfunding: ledger cannot cover target contributions")

// IsAction reports whether the indirect funding reducer handles action.
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
	return &Reducer{log: log.With().Str("component", "indirect-funding").Logger()}
}

// Initialize starts funding targetID from the ledger channel shared with its
// participants. When it is our turn on the ledger, the funding proposal is
// signed and queued immediately.
func (r *Reducer) Initialize(processID string, targetID channel.ID, sd protocol.SharedData) (State, protocol.SharedData) {
	target, ok := sd.Channels.Get(targetID)
	if !ok {
		return Failure{Reason: ChannelNotFound}, sd
	}
	last := target.Last.Commitment
	if last.CommitmentType != channel.PreFundSetup || int(last.CommitmentCount) != len(target.Channel.Participants)-1 {
		return Failure{Reason: ChannelNotReady}, sd
	}
	ledger, ok := sd.Channels.FindLedger(target.Channel.Participants)
	if !ok {
		return Failure{Reason: NoLedgerChannel}, sd
	}

	ids := Channels{ProcessID: processID, TargetChannelID: targetID, LedgerID: ledger.ID()}
	lcc, err := channel.AsConsensusCommitment(ledger.Last.Commitment)
	if err != nil {
		return Failure{Reason: ReceivedInvalidCommitment}, sd
	}
	if lcc.InConsensus() && funds(lcc.Allocation, target) {
		r.log.Warn().Str("process_id", processID).Str("channel_id", targetID.Hex()).Msg("Ledger already funds target channel")
		target.LedgerID = ledger.ID()
		sd.Channels = sd.Channels.Put(target)
		return Success{}, sd
	}
	if !lcc.InConsensus() || !ledger.IsOurTurn() {
		return WaitForLedgerUpdate{Channels: ids}, sd
	}

	proposal, err := FundingAllocation(lcc.Allocation, last.Allocation, targetID)
	if err != nil {
		return Failure{Reason: InsufficientLedgerFunds}, sd
	}
	next, err := channel.ProposeAllocation(ledger.Last.Commitment, proposal)
	if err != nil {
		return Failure{Reason: InsufficientLedgerFunds}, sd
	}
	sd, _, err = protocol.SignAndStore(sd, processID, next)
	if err != nil {
		r.log.Error().Err(err).Str("process_id", processID).Msg("Failed to sign ledger proposal")
		return Failure{Reason: SigningFailed}, sd
	}
	return WaitForLedgerUpdate{Channels: ids}, sd
}

// Reduce applies a received commitment (or run of commitments).
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
		if IsTerminal(state) {
			break
		}
		state, sd = r.commitmentReceived(state, sd, sc)
	}
	return state, sd
}

func (r *Reducer) commitmentReceived(state State, sd protocol.SharedData, sc channel.SignedCommitment) (State, protocol.SharedData) {
	id := sc.Commitment.ChannelID()
	if cs, ok := sd.Channels.Get(id); ok && sc.Commitment.TurnNum <= cs.TurnNum() {
		r.log.Debug().Str("channel_id", id.Hex()).Uint32("turn_num", sc.Commitment.TurnNum).Msg("Ignoring stale commitment")
		return state, sd
	}

	switch s := state.(type) {
	case WaitForLedgerUpdate:
		if id != s.LedgerID {
			r.log.Warn().Str("channel_id", id.Hex()).Str("state", s.StateName()).Msg("Commitment for unexpected channel")
			return state, sd
		}
		ledger, _ := sd.Channels.Get(s.LedgerID)
		if err := channel.ValidateConsensusTransition(ledger.Last.Commitment, sc.Commitment); err != nil {
			r.log.Warn().Err(err).Str("process_id", s.ProcessID).Msg("Invalid ledger commitment")
			return Failure{Reason: ReceivedInvalidCommitment}, sd
		}
		updated, err := protocol.ReceiveCommitment(sd, sc)
		if err != nil {
			r.log.Warn().Err(err).Str("process_id", s.ProcessID).Msg("Rejected ledger commitment")
			return Failure{Reason: ReceivedInvalidCommitment}, sd
		}
		return r.ledgerUpdated(s, updated)

	case WaitForPostFundSetup:
		if id != s.TargetChannelID {
			r.log.Warn().Str("channel_id", id.Hex()).Str("state", s.StateName()).Msg("Commitment for unexpected channel")
			return state, sd
		}
		if sc.Commitment.CommitmentType != channel.PostFundSetup {
			return Failure{Reason: ReceivedInvalidCommitment}, sd
		}
		updated, err := protocol.ReceiveCommitment(sd, sc)
		if err != nil {
			r.log.Warn().Err(err).Str("process_id", s.ProcessID).Msg("Rejected post fund setup commitment")
			return Failure{Reason: ReceivedInvalidCommitment}, sd
		}
		return r.postFundSetup(s.Channels, updated)

	case Success, Failure:
		return state, sd

	default:
		protocol.Unreachable(state)
		return state, sd
	}
}

// ledgerUpdated votes on an outstanding proposal when it is our turn and moves
// on to PostFundSetup once the ledger is in consensus on funding the target.
func (r *Reducer) ledgerUpdated(s WaitForLedgerUpdate, sd protocol.SharedData) (State, protocol.SharedData) {
	for {
		ledger, _ := sd.Channels.Get(s.LedgerID)
		target, _ := sd.Channels.Get(s.TargetChannelID)
		lcc, err := channel.AsConsensusCommitment(ledger.Last.Commitment)
		if err != nil {
			return Failure{Reason: ReceivedInvalidCommitment}, sd
		}

		if lcc.InConsensus() {
			if !funds(lcc.Allocation, target) {
				return Failure{Reason: LedgerUpdateRejected}, sd
			}
			target.LedgerID = s.LedgerID
			sd.Channels = sd.Channels.Put(target)
			return r.postFundSetup(s.Channels, sd)
		}

		expected, err := FundingAllocation(ledger.Last.Commitment.Allocation, target.Last.Commitment.Allocation, s.TargetChannelID)
		if err != nil || !channel.AllocationsEqual(expected, lcc.ProposedAllocation) {
			r.log.Warn().Str("process_id", s.ProcessID).Msg("Ledger proposal does not fund target channel")
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

// postFundSetup signs PostFundSetup commitments while it is our turn and succeeds
// once every participant has signed one.
func (r *Reducer) postFundSetup(ids Channels, sd protocol.SharedData) (State, protocol.SharedData) {
	for {
		target, _ := sd.Channels.Get(ids.TargetChannelID)
		if setupComplete(target) {
			r.log.Info().Str("process_id", ids.ProcessID).Str("channel_id", ids.TargetChannelID.Hex()).Msg("Channel funded")
			return Success{}, sd
		}
		if !target.IsOurTurn() {
			return WaitForPostFundSetup{Channels: ids}, sd
		}
		var err error
		sd, _, err = protocol.SignAndStore(sd, ids.ProcessID, nextSetupCommitment(target.Last.Commitment))
		if err != nil {
			r.log.Error().Err(err).Str("process_id", ids.ProcessID).Msg("Failed to sign post fund setup")
			return Failure{Reason: SigningFailed}, sd
		}
	}
}

func setupComplete(cs protocol.ChannelState) bool {
	last := cs.Last.Commitment
	switch last.CommitmentType {
	case channel.PostFundSetup:
		return int(last.CommitmentCount) == len(cs.Channel.Participants)-1
	case channel.App, channel.Conclude:
		return true
	default:
		return false
	}
}

func nextSetupCommitment(prev channel.Commitment) channel.Commitment {
	next := prev.Clone()
	next.TurnNum = prev.TurnNum + 1
	if prev.CommitmentType == channel.PreFundSetup {
		next.CommitmentType = channel.PostFundSetup
		next.CommitmentCount = 0
	} else {
		next.CommitmentCount = prev.CommitmentCount + 1
	}
	return next
}

// funds reports whether alloc pays the target channel its full total.
func funds(alloc []channel.Allocation, target protocol.ChannelState) bool {
	return channel.AmountFor(alloc, target.ID()).Cmp(target.Last.Commitment.Total()) >= 0
}

// FundingAllocation moves each participant's contribution to the target channel
// out of the ledger allocation and appends a single entry for the target.
func FundingAllocation(ledger, target []channel.Allocation, targetID channel.ID) ([]channel.Allocation, error) {
	owed := make(map[channel.ID]*big.Int)
	total := new(big.Int)
	for _, a := range target {
		if owed[a.Destination] == nil {
			owed[a.Destination] = new(big.Int)
		}
		amount := channel.AmountFor([]channel.Allocation{a}, a.Destination)
		owed[a.Destination].Add(owed[a.Destination], amount)
		total.Add(total, amount)
	}

	out := make([]channel.Allocation, 0, len(ledger)+1)
	for _, a := range channel.SortedAllocation(ledger) {
		amount := channel.AmountFor([]channel.Allocation{a}, a.Destination)
		if need := owed[a.Destination]; need != nil && need.Sign() > 0 {
			take := new(big.Int).Set(need)
			if amount.Cmp(need) < 0 {
				take.Set(amount)
			}
			amount.Sub(amount, take)
			need.Sub(need, take)
		}
		if amount.Sign() > 0 {
			out = append(out, channel.Allocation{Destination: a.Destination, Amount: amount})
		}
	}
	for dest, need := range owed {
		if need.Sign() > 0 {
			return nil, fmt.Errorf("%w: %s short by %s", ErrInsufficientFunds, dest.Hex(), need)
		}
	}
	out = append(out, channel.Allocation{Destination: targetID, Amount: total})
	return channel.Reprioritize(out), nil
}
