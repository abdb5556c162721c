// Package funding routes funding actions to the reducer of the role we play.
package funding

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/protocol"
	playera "github.com/compose-network/nitro-wallet/x/protocol/funding/player-a"
	playerb "github.com/compose-network/nitro-wallet/x/protocol/funding/player-b"
)

type Reducer struct {
	playerA *playera.Reducer
	playerB *playerb.Reducer
}

func NewReducer(log zerolog.Logger) *Reducer {
	return &Reducer{
		playerA: playera.NewReducer(log),
		playerB: playerb.NewReducer(log),
	}
}

// IsAction reports whether either role handles action.
func IsAction(action protocol.Action) bool {
	return playera.IsAction(action) || playerb.IsAction(action)
}

// Initialize starts the funding protocol for the given role.
func (r *Reducer) Initialize(sd protocol.SharedData, processID string, channelID channel.ID, role protocol.PlayerIndex, ourAddress, opponentAddress common.Address) (protocol.State, protocol.SharedData) {
	switch role {
	case protocol.PlayerA:
		return r.playerA.Initialize(sd, processID, channelID, ourAddress, opponentAddress)
	case protocol.PlayerB:
		return r.playerB.Initialize(sd, processID, channelID, ourAddress, opponentAddress)
	default:
		protocol.Unreachable(role)
		return nil, sd
	}
}

// Reduce hands action to the role owning state. Actions the role does not
// understand are ignored.
func (r *Reducer) Reduce(state protocol.State, sd protocol.SharedData, action protocol.Action) (protocol.State, protocol.SharedData) {
	switch s := state.(type) {
	case playera.State:
		if !playera.IsAction(action) {
			return state, sd
		}
		return r.playerA.Reduce(s, sd, action)
	case playerb.State:
		if !playerb.IsAction(action) {
			return state, sd
		}
		return r.playerB.Reduce(s, sd, action)
	default:
		protocol.Unreachable(state)
		return state, sd
	}
}
