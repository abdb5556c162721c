package withdrawing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/outbox"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

const (
	ChannelNotFound    = "Channel Not Found"
	ChannelNotClosed   = "Channel Not Closed"
	UserDeclined       = "User declined"
	TransactionFailure = "Transaction failed"
	SigningFailed      = "Signing Failed"
)

type State interface {
	protocol.State
	isWithdrawingState()
}

type WaitForApproval struct {
	ProcessID string
	ChannelID channel.ID
	Amount    *big.Int
}

type WaitForTransaction struct {
	ProcessID   string
	ChannelID   channel.ID
	Transaction outbox.TransactionRequest
}

type WaitForAcknowledgement struct {
	ProcessID string
	ChannelID channel.ID
}

type Success struct{}

type Failure struct {
	Reason string
}

func (WaitForApproval) StateName() string        { return "Withdrawing.WaitForApproval" }
func (WaitForTransaction) StateName() string     { return "Withdrawing.WaitForTransaction" }
func (WaitForAcknowledgement) StateName() string { return "Withdrawing.WaitForAcknowledgement" }
func (Success) StateName() string                { return "Withdrawing.Success" }
func (Failure) StateName() string                { return "Withdrawing.Failure" }

func (WaitForApproval) isWithdrawingState()        {}
func (WaitForTransaction) isWithdrawingState()     {}
func (WaitForAcknowledgement) isWithdrawingState() {}
func (Success) isWithdrawingState()                {}
func (Failure) isWithdrawingState()                {}

func (Success) Outcome() protocol.Outcome   { return protocol.Outcome{Success: true} }
func (f Failure) Outcome() protocol.Outcome { return protocol.Outcome{Reason: f.Reason} }

func IsTerminal(s State) bool {
	return protocol.IsTerminal(s)
}

// Actions

type WithdrawalApproved struct {
	ProcessID   string
	Destination common.Address
}

type WithdrawalRejected struct {
	ProcessID string
}

type TransactionConfirmed struct {
	ProcessID string
}

type TransactionFailed struct {
	ProcessID string
}

type WithdrawalSuccessAcknowledged struct {
	ProcessID string
}

func (a WithdrawalApproved) Process() string            { return a.ProcessID }
func (a WithdrawalRejected) Process() string            { return a.ProcessID }
func (a TransactionConfirmed) Process() string          { return a.ProcessID }
func (a TransactionFailed) Process() string             { return a.ProcessID }
func (a WithdrawalSuccessAcknowledged) Process() string { return a.ProcessID }

func IsAction(action protocol.Action) bool {
	switch action.(type) {
	case WithdrawalApproved, WithdrawalRejected, TransactionConfirmed, TransactionFailed, WithdrawalSuccessAcknowledged:
		return true
	default:
		return false
	}
}
