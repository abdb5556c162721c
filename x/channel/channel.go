package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ID identifies a channel. It is the last 20 bytes of the keccak256 hash of the
// ABI-encoded (channelType, nonce, participants) triple, so it can also be used
// as an allocation destination.
type ID = common.Address

// MinParticipants is the minimum number of participants a channel can have.
const MinParticipants = 2

var (
	ErrTooFewParticipants = errors.New("channel: at least two participants are required")
	ErrZeroParticipant    = errors.New("channel: participant address is zero")
)

// Channel is the immutable description of a state channel. Participant order is turn order.
type Channel struct {
	Participants []common.Address
	ChannelType  common.Address
	Nonce        *big.Int
}

// ID derives the channel identifier.
func (c Channel) ID() ID {
	packed, err := channelIDArgs.Pack(c.ChannelType, c.nonce(), c.participants())
	if err != nil {
		// Only reachable with types that do not match the static argument list.
		panic(fmt.Sprintf("channel: pack channel id: %v", err))
	}
	return common.BytesToAddress(crypto.Keccak256(packed)[12:])
}

// Mover returns the participant expected to sign the commitment with the given turn number.
func (c Channel) Mover(turnNum uint32) common.Address {
	if len(c.Participants) == 0 {
		return common.Address{}
	}
	return c.Participants[c.MoverIndex(turnNum)]
}

// MoverIndex returns the index of the participant whose turn it is.
func (c Channel) MoverIndex(turnNum uint32) int {
	if len(c.Participants) == 0 {
		return 0
	}
	return int(turnNum % uint32(len(c.Participants)))
}

// IndexOf returns the participant index of addr, or -1.
func (c Channel) IndexOf(addr common.Address) int {
	for i, p := range c.Participants {
		if p == addr {
			return i
		}
	}
	return -1
}

// Validate checks the structural invariants of the channel.
func (c Channel) Validate() error {
	if len(c.Participants) < MinParticipants {
		return ErrTooFewParticipants
	}
	for i, p := range c.Participants {
		if p == (common.Address{}) {
			return fmt.Errorf("%w: index %d", ErrZeroParticipant, i)
		}
	}
	return nil
}

// Equal reports whether both channels describe the same participants, rules and nonce.
func (c Channel) Equal(o Channel) bool {
	if c.ChannelType != o.ChannelType || c.nonce().Cmp(o.nonce()) != 0 {
		return false
	}
	if len(c.Participants) != len(o.Participants) {
		return false
	}
	for i := range c.Participants {
		if c.Participants[i] != o.Participants[i] {
			return false
		}
	}
	return true
}

func (c Channel) nonce() *big.Int {
	if c.Nonce == nil {
		return new(big.Int)
	}
	return c.Nonce
}

func (c Channel) participants() []common.Address {
	if c.Participants == nil {
		return []common.Address{}
	}
	return c.Participants
}

type channelJSON struct {
	Participants []common.Address `json:"participants"`
	ChannelType  common.Address   `json:"channelType"`
	Nonce        *hexutil.Big     `json:"nonce"`
}

func (c Channel) MarshalJSON() ([]byte, error) {
	return json.Marshal(channelJSON{
		Participants: c.participants(),
		ChannelType:  c.ChannelType,
		Nonce:        (*hexutil.Big)(c.nonce()),
	})
}

func (c *Channel) UnmarshalJSON(data []byte) error {
	var dec channelJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	c.Participants = dec.Participants
	c.ChannelType = dec.ChannelType
	c.Nonce = new(big.Int)
	if dec.Nonce != nil {
		c.Nonce = dec.Nonce.ToInt()
	}
	return nil
}

var channelIDArgs = abi.Arguments{
	{Type: mustType("address")},
	{Type: mustType("uint256")},
	{Type: mustType("address[]")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("channel: abi type %s: %v", t, err))
	}
	return typ
}
