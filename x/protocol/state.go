package protocol

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/nitro-wallet/x/channel"
)

// PlayerIndex is a participant's position in a two-party channel.
type PlayerIndex uint8

const (
	PlayerA PlayerIndex = iota
	PlayerB
)

func (p PlayerIndex) String() string {
	switch p {
	case PlayerA:
		return "A"
	case PlayerB:
		return "B"
	default:
		return fmt.Sprintf("PlayerIndex(%d)", uint8(p))
	}
}

// Action is anything a protocol reducer can receive. Every action names the
// process it belongs to.
type Action interface {
	Process() string
}

// State is a protocol state variant.
type State interface {
	StateName() string
}

// Outcome is the result carried by a terminal state.
type Outcome struct {
	Success bool
	Reason  string
}

// Terminal is implemented by Success and Failure variants.
type Terminal interface {
	State
	Outcome() Outcome
}

// IsTerminal reports whether s ends its protocol.
func IsTerminal(s State) bool {
	_, ok := s.(Terminal)
	return ok
}

// Core identifies a running funding or defunding process.
type Core struct {
	ProcessID       string
	TargetChannelID channel.ID
	OurAddress      common.Address
	OpponentAddress common.Address
}

// Unreachable panics. Reducers call it from the default branch of an
// exhaustive switch.
func Unreachable(v any) {
	panic(fmt.Sprintf("protocol: unreachable: %T %+v", v, v))
}
