package indirectfunding

import (
	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

// Failure reasons.
const (
	ChannelNotFound           = "Channel Not Found"
	ChannelNotReady           = "Channel Not Ready"
	NoLedgerChannel           = "No Ledger Channel"
	InsufficientLedgerFunds   = "Insufficient Ledger Funds"
	LedgerUpdateRejected      = "Ledger Update Rejected"
	ReceivedInvalidCommitment = "Received Invalid Commitment"
	SigningFailed             = "Signing Failed"
)

// State is one of WaitForLedgerUpdate, WaitForPostFundSetup, Success or Failure.
type State interface {
	protocol.State
	isIndirectFundingState()
}

// Channels names the two channels the sub-protocol works on.
type Channels struct {
	ProcessID       string
	TargetChannelID channel.ID
	LedgerID        channel.ID
}

// WaitForLedgerUpdate waits for the ledger channel to reach consensus on an
// allocation that funds the target channel.
type WaitForLedgerUpdate struct {
	Channels
}

// WaitForPostFundSetup exchanges PostFundSetup commitments on the target channel.
type WaitForPostFundSetup struct {
	Channels
}

type Success struct{}

type Failure struct {
	Reason string
}

func (WaitForLedgerUpdate) StateName() string  { return "IndirectFunding.WaitForLedgerUpdate" }
func (WaitForPostFundSetup) StateName() string { return "IndirectFunding.WaitForPostFundSetup" }
func (Success) StateName() string              { return "IndirectFunding.Success" }
func (Failure) StateName() string              { return "IndirectFunding.Failure" }

func (WaitForLedgerUpdate) isIndirectFundingState()  {}
func (WaitForPostFundSetup) isIndirectFundingState() {}
func (Success) isIndirectFundingState()              {}
func (Failure) isIndirectFundingState()              {}

func (Success) Outcome() protocol.Outcome   { return protocol.Outcome{Success: true} }
func (f Failure) Outcome() protocol.Outcome { return protocol.Outcome{Reason: f.Reason} }

// IsTerminal reports whether s is Success or Failure.
func IsTerminal(s State) bool {
	return protocol.IsTerminal(s)
}
