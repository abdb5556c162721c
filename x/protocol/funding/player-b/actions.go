package playerb

import (
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol"
	indirectfunding "github.com/compose-network/nitro-wallet/x/protocol/indirect-funding"
)

// StrategyApproved is player B's approval of the proposed strategy.
type StrategyApproved struct {
	ProcessID string
}

type StrategyRejected struct {
	ProcessID string
}

type FundingSuccessAcknowledged struct {
	ProcessID string
}

// Cancelled ends the negotiation on behalf of By.
type Cancelled struct {
	ProcessID string
	By        protocol.PlayerIndex
}

func (a StrategyApproved) Process() string           { return a.ProcessID }
func (a StrategyRejected) Process() string           { return a.ProcessID }
func (a FundingSuccessAcknowledged) Process() string { return a.ProcessID }
func (a Cancelled) Process() string                  { return a.ProcessID }

// IsAction reports whether the player B reducer handles action.
func IsAction(action protocol.Action) bool {
	switch action.(type) {
	case communication.StrategyProposed, StrategyApproved, StrategyRejected, FundingSuccessAcknowledged, Cancelled:
		return true
	default:
		return indirectfunding.IsAction(action)
	}
}
