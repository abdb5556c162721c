package communication

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/nitro-wallet/x/channel"
)

const messageRelayRequested = "WALLET.MESSAGE_RELAY_REQUESTED"

// Message is an entry of the message outbox: either a RelayMessage for a
// counterparty or a WalletEvent for the embedding application.
type Message interface {
	isMessage()
}

// RelayMessage asks the relay to deliver Action to To.
type RelayMessage struct {
	To     common.Address
	Action RelayableAction
}

func (RelayMessage) isMessage() {}

func (m RelayMessage) MarshalJSON() ([]byte, error) {
	payload, err := MarshalAction(m.Action)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type           string          `json:"type"`
		To             common.Address  `json:"to"`
		MessagePayload json.RawMessage `json:"messagePayload"`
	}{messageRelayRequested, m.To, payload})
}

func (m *RelayMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type           string          `json:"type"`
		To             common.Address  `json:"to"`
		MessagePayload json.RawMessage `json:"messagePayload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type != messageRelayRequested {
		return fmt.Errorf("%w: message %q", ErrUnknownActionType, raw.Type)
	}
	action, err := UnmarshalAction(raw.MessagePayload)
	if err != nil {
		return err
	}
	m.To = raw.To
	m.Action = action
	return nil
}

// EventType identifies a wallet event sent to the application.
type EventType string

const (
	FundingSuccessEvent EventType = "WALLET.FUNDING.FUNDING_SUCCESS"
	FundingFailureEvent EventType = "WALLET.FUNDING.FUNDING_FAILURE"
)

// FundingDeclined is the failure code used when either player refuses to fund.
const FundingDeclined = "FundingDeclined"

// WalletEvent reports a protocol outcome for a channel to the application.
type WalletEvent struct {
	Type      EventType      `json:"type"`
	ChannelID common.Address `json:"channelId"`
	Reason    string         `json:"reason,omitempty"`
}

func (WalletEvent) isMessage() {}

// DisplayMessage toggles the wallet UI.
type DisplayMessage string

const (
	ShowWallet DisplayMessage = "WALLET.DISPLAY.SHOW_WALLET"
	HideWallet DisplayMessage = "WALLET.DISPLAY.HIDE_WALLET"
)

func SendStrategyApproved(to common.Address, processID string) RelayMessage {
	return RelayMessage{To: to, Action: StrategyApproved{ProcessID: processID}}
}

func SendStrategyProposed(to common.Address, processID string, strategy Strategy) RelayMessage {
	return RelayMessage{To: to, Action: StrategyProposed{ProcessID: processID, Strategy: strategy}}
}

func SendCommitmentReceived(to common.Address, processID string, commitment channel.Commitment, signature channel.Signature) RelayMessage {
	return RelayMessage{To: to, Action: CommitmentReceived{
		ProcessID:        processID,
		SignedCommitment: channel.SignedCommitment{Commitment: commitment, Signature: signature},
	}}
}

func SendCommitmentsReceived(to common.Address, processID string, commitments []channel.SignedCommitment, protocolLocator string) RelayMessage {
	return RelayMessage{To: to, Action: CommitmentsReceived{
		ProcessID:         processID,
		SignedCommitments: commitments,
		ProtocolLocator:   protocolLocator,
	}}
}

func FundingFailure(channelID common.Address, reason string) WalletEvent {
	return WalletEvent{Type: FundingFailureEvent, ChannelID: channelID, Reason: reason}
}

func FundingSuccess(channelID common.Address) WalletEvent {
	return WalletEvent{Type: FundingSuccessEvent, ChannelID: channelID}
}
