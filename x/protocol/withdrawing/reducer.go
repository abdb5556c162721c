package withdrawing

import (
	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/outbox"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

type Reducer struct {
	log zerolog.Logger
}

func NewReducer(log zerolog.Logger) *Reducer {
	return &Reducer{log: log.With().Str("component", "withdrawing").Logger()}
}

// Initialize asks the user to approve withdrawing our share of the concluded channel.
func (r *Reducer) Initialize(processID string, channelID channel.ID, sd protocol.SharedData) (State, protocol.SharedData) {
	cs, ok := sd.Channels.Get(channelID)
	if !ok {
		return Failure{Reason: ChannelNotFound}, sd
	}
	last := cs.Last.Commitment
	if last.CommitmentType != channel.Conclude {
		return Failure{Reason: ChannelNotClosed}, sd
	}
	amount := channel.AmountFor(last.Allocation, cs.OurAddress())
	return WaitForApproval{ProcessID: processID, ChannelID: channelID, Amount: amount}, protocol.ShowWallet(sd)
}

func (r *Reducer) Reduce(state State, sd protocol.SharedData, action protocol.Action) (State, protocol.SharedData) {
	switch a := action.(type) {
	case WithdrawalApproved:
		s, ok := state.(WaitForApproval)
		if !ok {
			return state, sd
		}
		return r.approved(s, sd, a)
	case WithdrawalRejected:
		if _, ok := state.(WaitForApproval); !ok {
			return state, sd
		}
		return Failure{Reason: UserDeclined}, protocol.HideWallet(sd)
	case TransactionConfirmed:
		s, ok := state.(WaitForTransaction)
		if !ok {
			return state, sd
		}
		return WaitForAcknowledgement{ProcessID: s.ProcessID, ChannelID: s.ChannelID}, sd
	case TransactionFailed:
		if _, ok := state.(WaitForTransaction); !ok {
			return state, sd
		}
		return Failure{Reason: TransactionFailure}, sd
	case WithdrawalSuccessAcknowledged:
		if _, ok := state.(WaitForAcknowledgement); !ok {
			return state, sd
		}
		return Success{}, protocol.HideWallet(sd)
	default:
		protocol.Unreachable(action)
		return state, sd
	}
}

func (r *Reducer) approved(s WaitForApproval, sd protocol.SharedData, a WithdrawalApproved) (State, protocol.SharedData) {
	cs, _ := sd.Channels.Get(s.ChannelID)
	binding, err := NewAdjudicatorBinding(sd.Adjudicator)
	if err != nil {
		r.log.Error().Err(err).Str("process_id", s.ProcessID).Msg("No adjudicator configured")
		return Failure{Reason: TransactionFailure}, sd
	}
	hash, err := WithdrawalHash(cs.OurAddress(), a.Destination, s.Amount)
	if err != nil {
		return Failure{Reason: SigningFailed}, sd
	}
	sig, err := sd.Signer.SignHash(hash)
	if err != nil {
		r.log.Error().Err(err).Str("process_id", s.ProcessID).Msg("Failed to sign withdrawal")
		return Failure{Reason: SigningFailed}, sd
	}
	data, err := binding.WithdrawCalldata(cs.OurAddress(), a.Destination, s.Amount, []byte(sig))
	if err != nil {
		return Failure{Reason: TransactionFailure}, sd
	}

	tx := outbox.NewTransactionRequest(s.ProcessID, binding.Address(), data)
	r.log.Info().Str("process_id", s.ProcessID).Str("destination", a.Destination.Hex()).Str("amount", s.Amount.String()).Msg("Withdrawal queued")
	return WaitForTransaction{ProcessID: s.ProcessID, ChannelID: s.ChannelID, Transaction: tx}, protocol.QueueTransaction(sd, tx)
}
