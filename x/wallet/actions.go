package wallet

import (
	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/protocol"
)

// FundingRequested starts funding channelID, playing the given role.
type FundingRequested struct {
	ChannelID   channel.ID
	PlayerIndex protocol.PlayerIndex
}

// DefundRequested starts returning the funds of the concluded channel.
type DefundRequested struct {
	ChannelID channel.ID
}

// ChannelOpened adds a channel to the wallet from its first signed commitment.
type ChannelOpened struct {
	SignedCommitment channel.SignedCommitment
	IsLedger         bool
}

// CommitmentsStored replaces the latest commitments of known channels. The
// application moves channels outside of funding and defunding this way.
type CommitmentsStored struct {
	SignedCommitments []channel.SignedCommitment
}
