package wallet

import (
	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/outbox"
	"github.com/compose-network/nitro-wallet/x/protocol"
	"github.com/compose-network/nitro-wallet/x/protocol/defunding"
	"github.com/compose-network/nitro-wallet/x/protocol/funding"
)

const (
	channelNotFound = "Channel Not Found"
	invalidChannel  = "Invalid Channel"
)

// Reducer is the top-level wallet reducer. It starts processes, routes process
// actions to the running one and clears the outbox as deliveries complete.
type Reducer struct {
	log       zerolog.Logger
	funding   *funding.Reducer
	defunding *defunding.Reducer
}

func NewReducer(log zerolog.Logger) *Reducer {
	return &Reducer{
		log:       log.With().Str("component", "wallet").Logger(),
		funding:   funding.NewReducer(log),
		defunding: defunding.NewReducer(log),
	}
}

func (r *Reducer) Reduce(state State, action any) State {
	switch a := action.(type) {
	case outbox.SentAction:
		state.SharedData.Outbox = outbox.ClearOutbox(state.SharedData.Outbox, a)
		return state
	case ChannelOpened:
		return r.channelOpened(state, a)
	case CommitmentsStored:
		return r.commitmentsStored(state, a)
	case FundingRequested:
		return r.fundingRequested(state, a)
	case DefundRequested:
		return r.defundRequested(state, a)
	case protocol.Action:
		return r.processAction(state, a)
	default:
		protocol.Unreachable(action)
		return state
	}
}

func (r *Reducer) channelOpened(state State, a ChannelOpened) State {
	if state.SharedData.Signer == nil {
		r.log.Error().Msg("Cannot open channel without a signer")
		return state
	}
	cs, err := protocol.NewChannelState(a.SignedCommitment, state.SharedData.Signer.Address())
	if err != nil {
		r.log.Warn().Err(err).Msg("Rejected channel")
		return state
	}
	if _, ok := state.SharedData.Channels.Get(cs.ID()); ok {
		r.log.Warn().Str("channel_id", cs.ID().Hex()).Msg("Channel already open")
		return state
	}
	cs.IsLedger = a.IsLedger
	state.SharedData.Channels = state.SharedData.Channels.Put(cs)
	return state
}

func (r *Reducer) commitmentsStored(state State, a CommitmentsStored) State {
	for _, sc := range a.SignedCommitments {
		sd, err := protocol.ReceiveCommitment(state.SharedData, sc)
		if err != nil {
			r.log.Warn().Err(err).Str("channel_id", sc.Commitment.ChannelID().Hex()).Msg("Rejected commitment")
			return state
		}
		state.SharedData = sd
	}
	return state
}

func (r *Reducer) fundingRequested(state State, a FundingRequested) State {
	processID := ProcessID(FundingProcess, a.ChannelID)
	if !state.Idle() {
		r.log.Warn().Str("process_id", processID).Str("current", state.Current.ID).Msg("Process already running")
		return state
	}
	cs, ok := state.SharedData.Channels.Get(a.ChannelID)
	if !ok {
		return r.rejected(state, processID, FundingProcess, a.ChannelID, channelNotFound)
	}
	opponents := cs.Opponents()
	if len(opponents) != 1 || cs.OurIndex != int(a.PlayerIndex) {
		return r.rejected(state, processID, FundingProcess, a.ChannelID, invalidChannel)
	}

	fundingState, sd := r.funding.Initialize(state.SharedData, processID, a.ChannelID, a.PlayerIndex, cs.OurAddress(), opponents[0])
	state.SharedData = sd
	return r.started(state, &Process{ID: processID, Kind: FundingProcess, ChannelID: a.ChannelID, State: fundingState})
}

func (r *Reducer) defundRequested(state State, a DefundRequested) State {
	processID := ProcessID(DefundingProcess, a.ChannelID)
	if !state.Idle() {
		r.log.Warn().Str("process_id", processID).Str("current", state.Current.ID).Msg("Process already running")
		return state
	}
	defundingState, sd := r.defunding.Initialize(processID, a.ChannelID, state.SharedData)
	state.SharedData = sd
	return r.started(state, &Process{ID: processID, Kind: DefundingProcess, ChannelID: a.ChannelID, State: defundingState})
}

func (r *Reducer) processAction(state State, a protocol.Action) State {
	if state.Idle() || a.Process() != state.Current.ID {
		r.log.Debug().Str("process_id", a.Process()).Msgf("Ignoring %T for inactive process", a)
		return state
	}

	current := *state.Current
	switch current.Kind {
	case FundingProcess:
		if !funding.IsAction(a) {
			return state
		}
		current.State, state.SharedData = r.funding.Reduce(current.State, state.SharedData, a)
	case DefundingProcess:
		s, ok := current.State.(defunding.State)
		if !ok || !defunding.IsAction(a) {
			return state
		}
		current.State, state.SharedData = r.defunding.Reduce(s, state.SharedData, a)
	default:
		protocol.Unreachable(current.Kind)
	}
	return r.settle(state, &current)
}

func (r *Reducer) started(state State, p *Process) State {
	r.log.Info().Str("process_id", p.ID).Str("state", p.State.StateName()).Msg("Process started")
	return r.settle(state, p)
}

// settle installs p as the current process, closing it when it has reached a
// terminal state.
func (r *Reducer) settle(state State, p *Process) State {
	terminal, ok := p.State.(protocol.Terminal)
	if !ok {
		state.Current = p
		return state
	}
	outcome := terminal.Outcome()
	r.log.Info().Str("process_id", p.ID).Bool("success", outcome.Success).Str("reason", outcome.Reason).Msg("Process closed")
	state.Current = nil
	state.LastOutcome = &Outcome{ProcessID: p.ID, Kind: p.Kind, ChannelID: p.ChannelID, Outcome: outcome}
	return state
}

func (r *Reducer) rejected(state State, processID string, kind Kind, channelID channel.ID, reason string) State {
	r.log.Warn().Str("process_id", processID).Str("reason", reason).Msg("Process not started")
	state.LastOutcome = &Outcome{ProcessID: processID, Kind: kind, ChannelID: channelID, Outcome: protocol.Outcome{Reason: reason}}
	return state
}
