package wallet

import (
	"fmt"
	"strings"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

// Kind names the top-level protocol a process runs.
type Kind string

const (
	FundingProcess   Kind = "funding"
	DefundingProcess Kind = "defunding"
)

// ProcessID returns the id of the kind process for channelID.
func ProcessID(kind Kind, channelID channel.ID) string {
	return fmt.Sprintf("%s-%s", kind, strings.ToLower(channelID.Hex()))
}

// Process is the protocol instance the wallet is currently running.
type Process struct {
	ID        string
	Kind      Kind
	ChannelID channel.ID
	State     protocol.State
}

// Outcome is how the last process ended.
type Outcome struct {
	ProcessID string
	Kind      Kind
	ChannelID channel.ID
	protocol.Outcome
}

// State is the whole wallet: the shared data every protocol works on, at most
// one running process and the outcome of the previous one.
type State struct {
	SharedData  protocol.SharedData
	Current     *Process
	LastOutcome *Outcome
}

// Idle reports whether no process is running.
func (s State) Idle() bool {
	return s.Current == nil
}
