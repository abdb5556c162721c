package playera

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
		log:      log.With().Str("component", "funding-player-a").Logger(),
		indirect: indirectfunding.NewReducer(log),
	}
}

// Initialize starts player A's side of the funding negotiation.
func (r *Reducer) Initialize(sd protocol.SharedData, processID string, channelID channel.ID, ourAddress, opponentAddress common.Address) (State, protocol.SharedData) {
	return WaitForStrategyChoice{Core: protocol.Core{
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
	case StrategyChosen:
		s, ok := state.(WaitForStrategyChoice)
		if !ok {
			return state, sd
		}
		message := communication.SendStrategyProposed(s.OpponentAddress, s.ProcessID, a.Strategy)
		return WaitForStrategyResponse{Core: s.Core, Strategy: a.Strategy}, protocol.QueueMessage(sd, message)

	case communication.StrategyApproved:
		s, ok := state.(WaitForStrategyResponse)
		if !ok {
			return state, sd
		}
		return r.strategyApproved(s, sd)

	case StrategyRejected:
		s, ok := state.(WaitForStrategyResponse)
		if !ok {
			return state, sd
		}
		return WaitForStrategyChoice{Core: s.Core}, sd

	case FundingSuccessAcknowledged:
		s, ok := state.(WaitForSuccessConfirmation)
		if !ok {
			return state, sd
		}
		return Success{}, protocol.HideWallet(protocol.SendFundingComplete(sd, s.TargetChannelID))

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
	if _, ok := fundingState.(indirectfunding.Success); ok {
		return WaitForSuccessConfirmation{Core: s.Core}, sd
	}
	return Failure{Reason: IndirectFundingFailure}, sd
}

func (r *Reducer) strategyApproved(s WaitForStrategyResponse, sd protocol.SharedData) (State, protocol.SharedData) {
	fundingState, sd := r.indirect.Initialize(s.ProcessID, s.TargetChannelID, sd)
	if indirectfunding.IsTerminal(fundingState) {
		r.log.Error().Str("process_id", s.ProcessID).Str("state", fundingState.StateName()).Msg("Indirect funding initialized to terminal state")
		if _, ok := fundingState.(indirectfunding.Success); ok {
			return Success{}, protocol.HideWallet(protocol.SendFundingComplete(sd, s.TargetChannelID))
		}
		return Failure{Reason: IndirectFundingFailure}, sd
	}
	return WaitForFunding{Core: s.Core, Strategy: s.Strategy, FundingState: fundingState}, sd
}

func (r *Reducer) cancelled(state State, sd protocol.SharedData, a Cancelled) (State, protocol.SharedData) {
	var core protocol.Core
	switch s := state.(type) {
	case WaitForStrategyChoice:
		core = s.Core
	case WaitForStrategyResponse:
		core = s.Core
	default:
		return state, sd
	}

	message := communication.FundingFailure(core.TargetChannelID, communication.FundingDeclined)
	switch a.By {
	case protocol.PlayerA:
		return Failure{Reason: UserRefused}, protocol.QueueMessage(sd, message)
	case protocol.PlayerB:
		return Failure{Reason: OpponentRefused}, protocol.QueueMessage(sd, message)
	default:
		protocol.Unreachable(a.By)
		return state, sd
	}
}
