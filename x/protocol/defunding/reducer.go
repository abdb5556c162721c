// Package defunding returns the funds of a concluded channel, either through
// the ledger channel that funded it or with an on-chain withdrawal.
package defunding

import (
	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/protocol"
	indirectdefunding "github.com/compose-network/nitro-wallet/x/protocol/indirect-defunding"
	"github.com/compose-network/nitro-wallet/x/protocol/withdrawing"
)

type Reducer struct {
	log        zerolog.Logger
	withdrawal *withdrawing.Reducer
	indirect   *indirectdefunding.Reducer
}

func NewReducer(log zerolog.Logger) *Reducer {
	return &Reducer{
		log:        log.With().Str("component", "defunding").Logger(),
		withdrawal: withdrawing.NewReducer(log),
		indirect:   indirectdefunding.NewReducer(log),
	}
}

func (r *Reducer) Initialize(processID string, channelID channel.ID, sd protocol.SharedData) (State, protocol.SharedData) {
	cs, ok := sd.Channels.Get(channelID)
	if !ok {
		return Failure{Reason: ChannelNotFound}, sd
	}
	if cs.Last.Commitment.CommitmentType != channel.Conclude {
		return Failure{Reason: ChannelNotClosed}, sd
	}

	if cs.FundedByLedger() {
		sub, sd := r.indirect.Initialize(processID, channelID, sd)
		return r.indirectResult(WaitForIndirectDefunding{ProcessID: processID, ChannelID: channelID}, sub, sd)
	}
	sub, sd := r.withdrawal.Initialize(processID, channelID, sd)
	return r.withdrawalResult(WaitForWithdrawal{ProcessID: processID, ChannelID: channelID}, sub, sd)
}

// Reduce forwards action to the active path. Actions belonging to the other
// path are ignored.
func (r *Reducer) Reduce(state State, sd protocol.SharedData, action protocol.Action) (State, protocol.SharedData) {
	switch s := state.(type) {
	case WaitForWithdrawal:
		if !withdrawing.IsAction(action) {
			return state, sd
		}
		sub, sd := r.withdrawal.Reduce(s.WithdrawalState, sd, action)
		return r.withdrawalResult(s, sub, sd)
	case WaitForIndirectDefunding:
		if !indirectdefunding.IsAction(action) {
			return state, sd
		}
		sub, sd := r.indirect.Reduce(s.DefundingState, sd, action)
		return r.indirectResult(s, sub, sd)
	case Success, Failure:
		return state, sd
	default:
		protocol.Unreachable(state)
		return state, sd
	}
}

func (r *Reducer) withdrawalResult(s WaitForWithdrawal, sub withdrawing.State, sd protocol.SharedData) (State, protocol.SharedData) {
	switch sub := sub.(type) {
	case withdrawing.Success:
		return Success{}, sd
	case withdrawing.Failure:
		return r.failed(s.ProcessID, sub.Reason), sd
	default:
		s.WithdrawalState = sub
		return s, sd
	}
}

func (r *Reducer) indirectResult(s WaitForIndirectDefunding, sub indirectdefunding.State, sd protocol.SharedData) (State, protocol.SharedData) {
	switch sub := sub.(type) {
	case indirectdefunding.Success:
		return Success{}, sd
	case indirectdefunding.Failure:
		return r.failed(s.ProcessID, sub.Reason), sd
	default:
		s.DefundingState = sub
		return s, sd
	}
}

func (r *Reducer) failed(processID, reason string) Failure {
	if reason == "" {
		reason = DefundingFailure
	}
	r.log.Warn().Str("process_id", processID).Str("reason", reason).Msg("Defunding failed")
	return Failure{Reason: reason}
}
