package withdrawing

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

//go:embed abi/adjudicator.json
var adjudicatorABIJSON string

var withdrawalArgs = abi.Arguments{
	{Name: "participant", Type: mustType("address")},
	{Name: "destination", Type: mustType("address")},
	{Name: "amount", Type: mustType("uint256")},
}

// AdjudicatorBinding builds calldata for the adjudicator contract.
type AdjudicatorBinding struct {
	address common.Address
	abi     abi.ABI
}

// NewAdjudicatorBinding parses the embedded ABI for the contract at address.
func NewAdjudicatorBinding(address common.Address) (*AdjudicatorBinding, error) {
	if address == (common.Address{}) {
		return nil, fmt.Errorf("adjudicator address cannot be empty")
	}
	parsedABI, err := abi.JSON(strings.NewReader(adjudicatorABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse adjudicator ABI: %w", err)
	}
	return &AdjudicatorBinding{address: address, abi: parsedABI}, nil
}

func (b *AdjudicatorBinding) Address() common.Address {
	return b.address
}

func (b *AdjudicatorBinding) ABI() abi.ABI {
	return b.abi
}

// WithdrawCalldata encodes withdraw(participant, destination, amount, signature).
func (b *AdjudicatorBinding) WithdrawCalldata(participant, destination common.Address, amount *big.Int, signature []byte) ([]byte, error) {
	data, err := b.abi.Pack("withdraw", participant, destination, amount, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to pack withdraw calldata: %w", err)
	}
	return data, nil
}

// WithdrawalHash is the message the participant signs to authorize a withdrawal.
func WithdrawalHash(participant, destination common.Address, amount *big.Int) (common.Hash, error) {
	packed, err := withdrawalArgs.Pack(participant, destination, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack withdrawal: %w", err)
	}
	return crypto.Keccak256Hash(packed), nil
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("withdrawing: abi type %s: %v", t, err))
	}
	return typ
}
