package playerb

import (
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol"
	indirectfunding "github.com/compose-network/nitro-wallet/x/protocol/indirect-funding"
)

const (
	OpponentRefused        = "Opponent refused"
	UserRefused            = "User refused"
	IndirectFundingFailure = "Indirect Funding Failure"
)

type State interface {
	protocol.State
	isPlayerBState()
}

type WaitForStrategyProposal struct {
	protocol.Core
}

type WaitForStrategyApproval struct {
	protocol.Core
	Strategy communication.Strategy
}

type WaitForFunding struct {
	protocol.Core
	Strategy     communication.Strategy
	FundingState indirectfunding.State
}

type WaitForSuccessConfirmation struct {
	protocol.Core
}

type Success struct{}

type Failure struct {
	Reason string
}

func (WaitForStrategyProposal) StateName() string { return "Funding.PlayerB.WaitForStrategyProposal" }
func (WaitForStrategyApproval) StateName() string { return "Funding.PlayerB.WaitForStrategyApproval" }
func (WaitForFunding) StateName() string          { return "Funding.PlayerB.WaitForFunding" }
func (WaitForSuccessConfirmation) StateName() string {
	return "Funding.PlayerB.WaitForSuccessConfirmation"
}
func (Success) StateName() string { return "Funding.PlayerB.Success" }
func (Failure) StateName() string { return "Funding.PlayerB.Failure" }

func (WaitForStrategyProposal) isPlayerBState()    {}
func (WaitForStrategyApproval) isPlayerBState()    {}
func (WaitForFunding) isPlayerBState()             {}
func (WaitForSuccessConfirmation) isPlayerBState() {}
func (Success) isPlayerBState()                    {}
func (Failure) isPlayerBState()                    {}

func (Success) Outcome() protocol.Outcome   { return protocol.Outcome{Success: true} }
func (f Failure) Outcome() protocol.Outcome { return protocol.Outcome{Reason: f.Reason} }
