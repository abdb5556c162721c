package protocol

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/outbox"
)

// SharedData is the state every protocol reducer reads and returns: the outbox,
// the channel store, and the key we sign with. Reducers never mutate it in place.
type SharedData struct {
	Outbox      outbox.State
	Channels    ChannelStore
	Signer      channel.Signer
	Adjudicator common.Address
}

func ShowWallet(sd SharedData) SharedData {
	sd.Outbox = sd.Outbox.QueueDisplay(communication.ShowWallet)
	return sd
}

func HideWallet(sd SharedData) SharedData {
	sd.Outbox = sd.Outbox.QueueDisplay(communication.HideWallet)
	return sd
}

// SendFundingComplete tells the application that channelID is funded.
func SendFundingComplete(sd SharedData, channelID channel.ID) SharedData {
	return QueueMessage(sd, communication.FundingSuccess(channelID))
}

func QueueMessage(sd SharedData, msg communication.Message) SharedData {
	sd.Outbox = sd.Outbox.QueueMessage(msg)
	return sd
}

func QueueTransaction(sd SharedData, tx outbox.TransactionRequest) SharedData {
	sd.Outbox = sd.Outbox.QueueTransaction(tx)
	return sd
}

// ReceiveCommitment validates sc against the stored channel and records it.
func ReceiveCommitment(sd SharedData, sc channel.SignedCommitment) (SharedData, error) {
	id := sc.Commitment.ChannelID()
	cs, ok := sd.Channels.Get(id)
	if !ok {
		return sd, fmt.Errorf("%w: %s", ErrChannelNotFound, id.Hex())
	}
	next, err := cs.Advance(sc)
	if err != nil {
		return sd, err
	}
	sd.Channels = sd.Channels.Put(next)
	return sd, nil
}

// SignAndStore signs c, records it as the latest commitment of its channel and
// queues it for every other participant under processID.
func SignAndStore(sd SharedData, processID string, c channel.Commitment) (SharedData, channel.SignedCommitment, error) {
	if sd.Signer == nil {
		return sd, channel.SignedCommitment{}, fmt.Errorf("protocol: no signer configured")
	}
	sc, err := sd.Signer.SignCommitment(c)
	if err != nil {
		return sd, channel.SignedCommitment{}, err
	}
	sd, err = ReceiveCommitment(sd, sc)
	if err != nil {
		return sd, channel.SignedCommitment{}, err
	}
	cs, _ := sd.Channels.Get(c.ChannelID())
	for _, to := range cs.Opponents() {
		sd = QueueMessage(sd, communication.SendCommitmentReceived(to, processID, sc.Commitment, sc.Signature))
	}
	return sd, sc, nil
}
