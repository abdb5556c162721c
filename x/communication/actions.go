package communication

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/nitro-wallet/x/channel"
)

// ActionType is the wire discriminator of a relayable action.
type ActionType string

const (
	CommitmentReceivedType        ActionType = "WALLET.COMMON.COMMITMENT_RECEIVED"
	CommitmentsReceivedType       ActionType = "WALLET.COMMON.COMMITMENTS_RECEIVED"
	StrategyProposedType          ActionType = "WALLET.FUNDING.STRATEGY_PROPOSED"
	StrategyApprovedType          ActionType = "WALLET.FUNDING.STRATEGY_APPROVED"
	ConcludeInstigatedType        ActionType = "WALLET.NEW_PROCESS.CONCLUDE_INSTIGATED"
	KeepLedgerChannelApprovedType ActionType = "WALLET.CONCLUDING.KEEP_LEDGER_CHANNEL_APPROVED"
	DefundRequestedType           ActionType = "WALLET.NEW_PROCESS.DEFUND_REQUESTED"
	MultipleRelayableActionsType  ActionType = "WALLET.MULTIPLE_RELAYABLE_ACTIONS"
)

// Strategy names a funding mechanism the players agree on.
type Strategy string

const IndirectFundingStrategy Strategy = "IndirectFundingStrategy"

// RelayableAction is an action one wallet sends to another through the relay.
type RelayableAction interface {
	Type() ActionType
	Process() string
	isRelayable()
}

// CommitmentReceived carries a single signed commitment.
type CommitmentReceived struct {
	ProcessID        string
	SignedCommitment channel.SignedCommitment
}

// CommitmentsReceived carries a run of signed commitments, oldest first.
type CommitmentsReceived struct {
	ProcessID         string
	SignedCommitments []channel.SignedCommitment
	ProtocolLocator   string
}

// Newest returns the last commitment of the run.
func (a CommitmentsReceived) Newest() (channel.SignedCommitment, bool) {
	if len(a.SignedCommitments) == 0 {
		return channel.SignedCommitment{}, false
	}
	return a.SignedCommitments[len(a.SignedCommitments)-1], true
}

type StrategyProposed struct {
	ProcessID string
	Strategy  Strategy
}

type StrategyApproved struct {
	ProcessID string
}

type ConcludeInstigated struct {
	ProcessID string
	ChannelID common.Address
}

type KeepLedgerChannelApproved struct {
	ProcessID string
}

type DefundRequested struct {
	ProcessID string
	ChannelID common.Address
}

// MultipleRelayableActions bundles actions delivered together.
type MultipleRelayableActions struct {
	ProcessID string
	Actions   []RelayableAction
}

func (CommitmentReceived) Type() ActionType        { return CommitmentReceivedType }
func (CommitmentsReceived) Type() ActionType       { return CommitmentsReceivedType }
func (StrategyProposed) Type() ActionType          { return StrategyProposedType }
func (StrategyApproved) Type() ActionType          { return StrategyApprovedType }
func (ConcludeInstigated) Type() ActionType        { return ConcludeInstigatedType }
func (KeepLedgerChannelApproved) Type() ActionType { return KeepLedgerChannelApprovedType }
func (DefundRequested) Type() ActionType           { return DefundRequestedType }
func (MultipleRelayableActions) Type() ActionType  { return MultipleRelayableActionsType }

func (a CommitmentReceived) Process() string        { return a.ProcessID }
func (a CommitmentsReceived) Process() string       { return a.ProcessID }
func (a StrategyProposed) Process() string          { return a.ProcessID }
func (a StrategyApproved) Process() string          { return a.ProcessID }
func (a ConcludeInstigated) Process() string        { return a.ProcessID }
func (a KeepLedgerChannelApproved) Process() string { return a.ProcessID }
func (a DefundRequested) Process() string           { return a.ProcessID }
func (a MultipleRelayableActions) Process() string  { return a.ProcessID }

func (CommitmentReceived) isRelayable()        {}
func (CommitmentsReceived) isRelayable()       {}
func (StrategyProposed) isRelayable()          {}
func (StrategyApproved) isRelayable()          {}
func (ConcludeInstigated) isRelayable()        {}
func (KeepLedgerChannelApproved) isRelayable() {}
func (DefundRequested) isRelayable()           {}
func (MultipleRelayableActions) isRelayable()  {}
