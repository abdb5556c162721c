package playerb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol"
	indirectfunding "github.com/compose-network/nitro-wallet/x/protocol/indirect-funding"
)

type Reducer struct {
	log      zerolog.Logger
	indirect *indirectfunding.Reducer
}

func NewReducer(log zerolog.Logger) *Reducer {
	return &Reducer{
		log:      log.With().Str("component", "funding-player-b").Logger(),
		indirect: indirectfunding.NewReducer(log),
	}
}

// Initialize starts player B's side of the funding negotiation.
func (r *Reducer) Initialize(sd protocol.SharedData, processID string, channelID channel.ID, ourAddress, opponentAddress common.Address) (State, protocol.SharedData) {
	return WaitForStrategyProposal{Core: protocol.Core{
		ProcessID:       processID,
		TargetChannelID: channelID,
		OurAddress:      ourAddress,
		OpponentAddress: opponentAddress,
	}}, protocol.ShowWallet(sd)
}

func (r *Reducer) Reduce(state State, sd protocol.SharedData, action protocol.Action) (State, protocol.SharedData) {
	if indirectfunding.IsAction(action) {
		return r.fundingAction(state, sd, action)
	}

	switch a := action.(type) {
	case communication.StrategyProposed:
		return r.strategyProposed(state, sd, a)
	case StrategyApproved:
		return r.strategyApproved(state, sd)
	case StrategyRejected:
		return r.strategyRejected(state, sd)
	case FundingSuccessAcknowledged:
		return r.fundingSuccessAcknowledged(state, sd)
	case Cancelled:
		return r.cancelled(state, sd, a)
	default:
		protocol.Unreachable(action)
		return state, sd
	}
}

func (r *Reducer) fundingAction(state State, sd protocol.SharedData, action protocol.Action) (State, protocol.SharedData) {
	s, ok := state.(WaitForFunding)
	if !ok {
		r.log.Warn().Str("state", state.StateName()).Msgf("Received indirect funding action %T outside WaitForFunding", action)
		return state, sd
	}

	fundingState, sd := r.indirect.Reduce(s.FundingState, sd, action)
	if !indirectfunding.IsTerminal(fundingState) {
		s.FundingState = fundingState
		return s, sd
	}
	return fundingComplete(s.Core, fundingState, sd)
}

func (r *Reducer) strategyProposed(state State, sd protocol.SharedData, a communication.StrategyProposed) (State, protocol.SharedData) {
	s, ok := state.(WaitForStrategyProposal)
	if !ok {
		return state, sd
	}
	return WaitForStrategyApproval{Core: s.Core, Strategy: a.Strategy}, sd
}

func (r *Reducer) strategyApproved(state State, sd protocol.SharedData) (State, protocol.SharedData) {
	s, ok := state.(WaitForStrategyApproval)
	if !ok {
		return state, sd
	}

	message := communication.SendStrategyApproved(s.OpponentAddress, s.ProcessID)
	fundingState, sd := r.indirect.Initialize(s.ProcessID, s.TargetChannelID, sd)
	if indirectfunding.IsTerminal(fundingState) {
		r.log.Error().Str("process_id", s.ProcessID).Str("state", fundingState.StateName()).Msg("Indirect funding initialized to terminal state")
		if _, ok := fundingState.(indirectfunding.Success); ok {
			return Success{}, protocol.HideWallet(protocol.SendFundingComplete(sd, s.TargetChannelID))
		}
		return Failure{Reason: IndirectFundingFailure}, sd
	}
	return WaitForFunding{Core: s.Core, Strategy: s.Strategy, FundingState: fundingState}, protocol.QueueMessage(sd, message)
}

func (r *Reducer) strategyRejected(state State, sd protocol.SharedData) (State, protocol.SharedData) {
	s, ok := state.(WaitForStrategyApproval)
	if !ok {
		return state, sd
	}
	return WaitForStrategyProposal{Core: s.Core}, sd
}

func (r *Reducer) fundingSuccessAcknowledged(state State, sd protocol.SharedData) (State, protocol.SharedData) {
	s, ok := state.(WaitForSuccessConfirmation)
	if !ok {
		return state, sd
	}
	sd = protocol.SendFundingComplete(sd, s.TargetChannelID)
	return Success{}, protocol.HideWallet(sd)
}

func (r *Reducer) cancelled(state State, sd protocol.SharedData, a Cancelled) (State, protocol.SharedData) {
	var core protocol.Core
	switch s := state.(type) {
	case WaitForStrategyProposal:
		core = s.Core
	case WaitForStrategyApproval:
		core = s.Core
	default:
		return state, sd
	}

	message := communication.FundingFailure(core.TargetChannelID, communication.FundingDeclined)
	switch a.By {
	case protocol.PlayerA:
		return Failure{Reason: OpponentRefused}, protocol.QueueMessage(sd, message)
	case protocol.PlayerB:
		return Failure{Reason: UserRefused}, protocol.QueueMessage(sd, message)
	default:
		protocol.Unreachable(a.By)
		return state, sd
	}
}

func fundingComplete(core protocol.Core, fundingState indirectfunding.State, sd protocol.SharedData) (State, protocol.SharedData) {
	if _, ok := fundingState.(indirectfunding.Success); ok {
		return WaitForSuccessConfirmation{Core: core}, sd
	}
	return Failure{Reason: IndirectFundingFailure}, sd
}
