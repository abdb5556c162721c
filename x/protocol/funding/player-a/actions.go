package playera

import (
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol"
	indirectfunding "github.com/compose-network/nitro-wallet/x/protocol/indirect-funding"
)

// StrategyChosen is player A's pick of a funding strategy.
type StrategyChosen struct {
	ProcessID string
	Strategy  communication.Strategy
}

// StrategyRejected reports that the opponent turned down the proposal.
type StrategyRejected struct {
	ProcessID string
}

type FundingSuccessAcknowledged struct {
	ProcessID string
}

type Cancelled struct {
	ProcessID string
	By        protocol.PlayerIndex
}

func (a StrategyChosen) Process() string             { return a.ProcessID }
func (a StrategyRejected) Process() string           { return a.ProcessID }
func (a FundingSuccessAcknowledged) Process() string { return a.ProcessID }
func (a Cancelled) Process() string                  { return a.ProcessID }

// IsAction reports whether the player A reducer handles action.
func IsAction(action protocol.Action) bool {
	switch action.(type) {
	case StrategyChosen, communication.StrategyApproved, StrategyRejected, FundingSuccessAcknowledged, Cancelled:
		return true
	default:
		return indirectfunding.IsAction(action)
	}
}
