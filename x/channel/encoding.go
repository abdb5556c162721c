package channel

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrMalformedEncoding = errors.New("channel: malformed commitment encoding")

// commitmentArgs is the ABI layout of an encoded commitment. Allocation is written
// in priority order as two parallel arrays, so the encoding is deterministic.
var commitmentArgs = abi.Arguments{
	{Name: "channelType", Type: mustType("address")},
	{Name: "nonce", Type: mustType("uint256")},
	{Name: "participants", Type: mustType("address[]")},
	{Name: "commitmentType", Type: mustType("uint8")},
	{Name: "turnNum", Type: mustType("uint32")},
	{Name: "commitmentCount", Type: mustType("uint32")},
	{Name: "destination", Type: mustType("address[]")},
	{Name: "allocation", Type: mustType("uint256[]")},
	{Name: "appAttributes", Type: mustType("bytes")},
}

// Encode ABI-encodes the commitment.
func Encode(c Commitment) ([]byte, error) {
	if !c.CommitmentType.Valid() {
		return nil, fmt.Errorf("channel: encode: unknown commitment type %d", c.CommitmentType)
	}
	sorted := SortedAllocation(c.Allocation)
	destinations := make([]common.Address, len(sorted))
	amounts := make([]*big.Int, len(sorted))
	for i, a := range sorted {
		if a.amount().Sign() < 0 {
			return nil, fmt.Errorf("channel: encode: negative amount for %s", a.Destination.Hex())
		}
		destinations[i] = a.Destination
		amounts[i] = a.amount()
	}
	attrs := []byte(c.AppAttributes)
	if attrs == nil {
		attrs = []byte{}
	}

	packed, err := commitmentArgs.Pack(
		c.Channel.ChannelType,
		c.Channel.nonce(),
		c.Channel.participants(),
		uint8(c.CommitmentType),
		c.TurnNum,
		c.CommitmentCount,
		destinations,
		amounts,
		attrs,
	)
	if err != nil {
		return nil, fmt.Errorf("channel: encode: %w", err)
	}
	return packed, nil
}

// Decode parses an encoding produced by Encode. The allocation of the result carries
// priorities equal to each entry's position.
func Decode(data []byte) (Commitment, error) {
	values, err := commitmentArgs.Unpack(data)
	if err != nil {
		return Commitment{}, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	if len(values) != len(commitmentArgs) {
		return Commitment{}, fmt.Errorf("%w: expected %d values, got %d", ErrMalformedEncoding, len(commitmentArgs), len(values))
	}

	channelType, ok1 := values[0].(common.Address)
	nonce, ok2 := values[1].(*big.Int)
	participants, ok3 := values[2].([]common.Address)
	commitmentType, ok4 := values[3].(uint8)
	turnNum, ok5 := values[4].(uint32)
	commitmentCount, ok6 := values[5].(uint32)
	destinations, ok7 := values[6].([]common.Address)
	amounts, ok8 := values[7].([]*big.Int)
	attrs, ok9 := values[8].([]byte)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8 && ok9) {
		return Commitment{}, fmt.Errorf("%w: unexpected value types", ErrMalformedEncoding)
	}
	if len(destinations) != len(amounts) {
		return Commitment{}, fmt.Errorf("%w: %d destinations for %d amounts", ErrMalformedEncoding, len(destinations), len(amounts))
	}
	if !Type(commitmentType).Valid() {
		return Commitment{}, fmt.Errorf("%w: unknown commitment type %d", ErrMalformedEncoding, commitmentType)
	}

	alloc := make([]Allocation, len(destinations))
	for i := range destinations {
		alloc[i] = Allocation{Destination: destinations[i], Amount: amounts[i], Priority: uint32(i)}
	}

	return Commitment{
		Channel: Channel{
			Participants: participants,
			ChannelType:  channelType,
			Nonce:        nonce,
		},
		CommitmentType:  Type(commitmentType),
		CommitmentCount: commitmentCount,
		TurnNum:         turnNum,
		Allocation:      alloc,
		AppAttributes:   attrs,
	}, nil
}

// Hash returns keccak256 of the commitment encoding. This is the message that gets signed.
func Hash(c Commitment) (common.Hash, error) {
	encoded, err := Encode(c)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}
