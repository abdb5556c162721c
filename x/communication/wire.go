package communication

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/nitro-wallet/x/channel"
)

var (
	ErrUnknownActionType = errors.New("communication: unknown action type")
	ErrMissingField      = errors.New("communication: missing field")
)

// wireAction is the JSON shape shared by every relayable action.
type wireAction struct {
	Type              ActionType                 `json:"type"`
	ProcessID         string                     `json:"processId"`
	SignedCommitment  *channel.SignedCommitment  `json:"signedCommitment,omitempty"`
	SignedCommitments []channel.SignedCommitment `json:"signedCommitments,omitempty"`
	ProtocolLocator   string                     `json:"protocolLocator,omitempty"`
	Strategy          Strategy                   `json:"strategy,omitempty"`
	ChannelID         *common.Address            `json:"channelId,omitempty"`
	Actions           []json.RawMessage          `json:"actions,omitempty"`
}

// MarshalAction encodes a relayable action in its wire shape.
func MarshalAction(a RelayableAction) ([]byte, error) {
	w, err := toWire(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalAction decodes a relayable action, dispatching on its type field.
func UnmarshalAction(data []byte) (RelayableAction, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("communication: decode action: %w", err)
	}
	return fromWire(w)
}

func toWire(a RelayableAction) (wireAction, error) {
	w := wireAction{Type: a.Type(), ProcessID: a.Process()}
	switch v := a.(type) {
	case CommitmentReceived:
		sc := v.SignedCommitment
		w.SignedCommitment = &sc
	case CommitmentsReceived:
		w.SignedCommitments = v.SignedCommitments
		w.ProtocolLocator = v.ProtocolLocator
	case StrategyProposed:
		w.Strategy = v.Strategy
	case StrategyApproved, KeepLedgerChannelApproved:
	case ConcludeInstigated:
		id := v.ChannelID
		w.ChannelID = &id
	case DefundRequested:
		id := v.ChannelID
		w.ChannelID = &id
	case MultipleRelayableActions:
		for _, inner := range v.Actions {
			raw, err := MarshalAction(inner)
			if err != nil {
				return wireAction{}, err
			}
			w.Actions = append(w.Actions, raw)
		}
	default:
		return wireAction{}, fmt.Errorf("%w: %T", ErrUnknownActionType, a)
	}
	return w, nil
}

func fromWire(w wireAction) (RelayableAction, error) {
	switch w.Type {
	case CommitmentReceivedType:
		if w.SignedCommitment == nil {
			return nil, fmt.Errorf("%w: signedCommitment", ErrMissingField)
		}
		return CommitmentReceived{ProcessID: w.ProcessID, SignedCommitment: *w.SignedCommitment}, nil
	case CommitmentsReceivedType:
		if len(w.SignedCommitments) == 0 {
			return nil, fmt.Errorf("%w: signedCommitments", ErrMissingField)
		}
		return CommitmentsReceived{
			ProcessID:         w.ProcessID,
			SignedCommitments: w.SignedCommitments,
			ProtocolLocator:   w.ProtocolLocator,
		}, nil
	case StrategyProposedType:
		return StrategyProposed{ProcessID: w.ProcessID, Strategy: w.Strategy}, nil
	case StrategyApprovedType:
		return StrategyApproved{ProcessID: w.ProcessID}, nil
	case KeepLedgerChannelApprovedType:
		return KeepLedgerChannelApproved{ProcessID: w.ProcessID}, nil
	case ConcludeInstigatedType:
		return ConcludeInstigated{ProcessID: w.ProcessID, ChannelID: derefAddress(w.ChannelID)}, nil
	case DefundRequestedType:
		return DefundRequested{ProcessID: w.ProcessID, ChannelID: derefAddress(w.ChannelID)}, nil
	case MultipleRelayableActionsType:
		actions := make([]RelayableAction, 0, len(w.Actions))
		for _, raw := range w.Actions {
			inner, err := UnmarshalAction(raw)
			if err != nil {
				return nil, err
			}
			actions = append(actions, inner)
		}
		return MultipleRelayableActions{ProcessID: w.ProcessID, Actions: actions}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, w.Type)
	}
}

func derefAddress(a *common.Address) common.Address {
	if a == nil {
		return common.Address{}
	}
	return *a
}
