package indirectdefunding

import (
	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

const (
	ChannelNotFound           = "Channel Not Found"
	ChannelNotClosed          = "Channel Not Closed"
	NoLedgerChannel           = "No Ledger Channel"
	LedgerUpdateRejected      = "Ledger Update Rejected"
	ReceivedInvalidCommitment = "Received Invalid Commitment"
	SigningFailed             = "Signing Failed"
)

type State interface {
	protocol.State
	isIndirectDefundingState()
}

// WaitForLedgerUpdate waits for the ledger channel to agree on returning the
// concluded channel's funds to its participants.
type WaitForLedgerUpdate struct {
	ProcessID string
	ChannelID channel.ID
	LedgerID  channel.ID
}

type Success struct{}

type Failure struct {
	Reason string
}

func (WaitForLedgerUpdate) StateName() string { return "IndirectDefunding.WaitForLedgerUpdate" }
func (Success) StateName() string             { return "IndirectDefunding.Success" }
func (Failure) StateName() string             { return "IndirectDefunding.Failure" }

func (WaitForLedgerUpdate) isIndirectDefundingState() {}
func (Success) isIndirectDefundingState()             {}
func (Failure) isIndirectDefundingState()             {}

func (Success) Outcome() protocol.Outcome   { return protocol.Outcome{Success: true} }
func (f Failure) Outcome() protocol.Outcome { return protocol.Outcome{Reason: f.Reason} }

func IsTerminal(s State) bool {
	return protocol.IsTerminal(s)
}
