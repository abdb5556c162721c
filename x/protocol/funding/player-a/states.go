package playera

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
	isPlayerAState()
}

type WaitForStrategyChoice struct {
	protocol.Core
}

type WaitForStrategyResponse struct {
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

func (WaitForStrategyChoice) StateName() string   { return "Funding.PlayerA.WaitForStrategyChoice" }
func (WaitForStrategyResponse) StateName() string { return "Funding.PlayerA.WaitForStrategyResponse" }
func (WaitForFunding) StateName() string          { return "Funding.PlayerA.WaitForFunding" }
func (WaitForSuccessConfirmation) StateName() string {
	return "Funding.PlayerA.WaitForSuccessConfirmation"
}
func (Success) StateName() string { return "Funding.PlayerA.Success" }
func (Failure) StateName() string { return "Funding.PlayerA.Failure" }

func (WaitForStrategyChoice) isPlayerAState()      {}
func (WaitForStrategyResponse) isPlayerAState()    {}
func (WaitForFunding) isPlayerAState()             {}
func (WaitForSuccessConfirmation) isPlayerAState() {}
func (Success) isPlayerAState()                    {}
func (Failure) isPlayerAState()                    {}

func (Success) Outcome() protocol.Outcome   { return protocol.Outcome{Success: true} }
func (f Failure) Outcome() protocol.Outcome { return protocol.Outcome{Reason: f.Reason} }
