package defunding

import (
	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/protocol"
	indirectdefunding "github.com/compose-network/nitro-wallet/x/protocol/indirect-defunding"
	"github.com/compose-network/nitro-wallet/x/protocol/withdrawing"
)

const (
	ChannelNotFound  = "Channel Not Found"
	ChannelNotClosed = "Channel Not Closed"
	DefundingFailure = "Defunding Failure"
)

type State interface {
	protocol.State
	isDefundingState()
}

// WaitForWithdrawal returns the channel's funds with an on-chain withdrawal.
type WaitForWithdrawal struct {
	ProcessID       string
	ChannelID       channel.ID
	WithdrawalState withdrawing.State
}

// WaitForIndirectDefunding returns the channel's funds to the ledger channel
// that funded it.
type WaitForIndirectDefunding struct {
	ProcessID      string
	ChannelID      channel.ID
	DefundingState indirectdefunding.State
}

type Success struct{}

type Failure struct {
	Reason string
}

func (WaitForWithdrawal) StateName() string        { return "Defunding.WaitForWithdrawal" }
func (WaitForIndirectDefunding) StateName() string { return "Defunding.WaitForIndirectDefunding" }
func (Success) StateName() string                  { return "Defunding.Success" }
func (Failure) StateName() string                  { return "Defunding.Failure" }

func (WaitForWithdrawal) isDefundingState()        {}
func (WaitForIndirectDefunding) isDefundingState() {}
func (Success) isDefundingState()                  {}
func (Failure) isDefundingState()                  {}

func (Success) Outcome() protocol.Outcome   { return protocol.Outcome{Success: true} }
func (f Failure) Outcome() protocol.Outcome { return protocol.Outcome{Reason: f.Reason} }

func IsTerminal(s State) bool {
	return protocol.IsTerminal(s)
}

// IsAction reports whether either defunding path handles action.
func IsAction(action protocol.Action) bool {
	return withdrawing.IsAction(action) || indirectdefunding.IsAction(action)
}
