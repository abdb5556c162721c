package channel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Type is the phase a commitment belongs to.
type Type uint8

const (
	PreFundSetup Type = iota
	PostFundSetup
	App
	Conclude
)

func (t Type) String() string {
	switch t {
	case PreFundSetup:
		return "PreFundSetup"
	case PostFundSetup:
		return "PostFundSetup"
	case App:
		return "App"
	case Conclude:
		return "Conclude"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the known commitment types.
func (t Type) Valid() bool {
	return t <= Conclude
}

// Allocation assigns Amount to Destination. Entries are ordered by Priority.
type Allocation struct {
	Destination common.Address
	Amount      *big.Int
	Priority    uint32
}

type allocationJSON struct {
	Destination common.Address `json:"destination"`
	Amount      *hexutil.Big   `json:"amount"`
	Priority    uint32         `json:"priority"`
}

func (a Allocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(allocationJSON{
		Destination: a.Destination,
		Amount:      (*hexutil.Big)(a.amount()),
		Priority:    a.Priority,
	})
}

func (a *Allocation) UnmarshalJSON(data []byte) error {
	var dec allocationJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	a.Destination = dec.Destination
	a.Priority = dec.Priority
	a.Amount = new(big.Int)
	if dec.Amount != nil {
		a.Amount = dec.Amount.ToInt()
	}
	return nil
}

func (a Allocation) amount() *big.Int {
	if a.Amount == nil {
		return new(big.Int)
	}
	return a.Amount
}

// SortedAllocation returns a copy of alloc ordered by priority. Entries with equal
// priority keep their insertion order.
func SortedAllocation(alloc []Allocation) []Allocation {
	out := cloneAllocation(alloc)
	slices.SortStableFunc(out, func(a, b Allocation) int {
		switch {
		case a.Priority < b.Priority:
			return -1
		case a.Priority > b.Priority:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Reprioritize returns a copy of alloc with priorities set to the slice index.
func Reprioritize(alloc []Allocation) []Allocation {
	out := cloneAllocation(alloc)
	for i := range out {
		out[i].Priority = uint32(i)
	}
	return out
}

// TotalOf sums the amounts of alloc.
func TotalOf(alloc []Allocation) *big.Int {
	total := new(big.Int)
	for _, a := range alloc {
		total.Add(total, a.amount())
	}
	return total
}

// AmountFor sums every entry of alloc that pays dest.
func AmountFor(alloc []Allocation, dest common.Address) *big.Int {
	total := new(big.Int)
	for _, a := range alloc {
		if a.Destination == dest {
			total.Add(total, a.amount())
		}
	}
	return total
}

// AllocationsEqual compares destinations and amounts in priority order.
func AllocationsEqual(a, b []Allocation) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := SortedAllocation(a), SortedAllocation(b)
	for i := range sa {
		if sa[i].Destination != sb[i].Destination || sa[i].amount().Cmp(sb[i].amount()) != 0 {
			return false
		}
	}
	return true
}

func cloneAllocation(alloc []Allocation) []Allocation {
	if alloc == nil {
		return nil
	}
	out := make([]Allocation, len(alloc))
	for i, a := range alloc {
		out[i] = Allocation{Destination: a.Destination, Amount: new(big.Int).Set(a.amount()), Priority: a.Priority}
	}
	return out
}

// Commitment is a snapshot of a channel's state at a turn number.
type Commitment struct {
	Channel         Channel       `json:"channel"`
	CommitmentType  Type          `json:"commitmentType"`
	CommitmentCount uint32        `json:"commitmentCount"`
	TurnNum         uint32        `json:"turnNum"`
	Allocation      []Allocation  `json:"allocation"`
	AppAttributes   hexutil.Bytes `json:"appAttributes"`
}

// ChannelID derives the id of the commitment's channel.
func (c Commitment) ChannelID() ID {
	return c.Channel.ID()
}

// Mover returns the participant expected to have signed the commitment.
func (c Commitment) Mover() common.Address {
	return c.Channel.Mover(c.TurnNum)
}

// Total returns the sum of all allocated amounts.
func (c Commitment) Total() *big.Int {
	return TotalOf(c.Allocation)
}

// Clone returns a deep copy.
func (c Commitment) Clone() Commitment {
	out := c
	out.Channel.Participants = slices.Clone(c.Channel.Participants)
	out.Channel.Nonce = new(big.Int).Set(c.Channel.nonce())
	out.Allocation = cloneAllocation(c.Allocation)
	out.AppAttributes = bytes.Clone(c.AppAttributes)
	return out
}

// Canonical returns a copy with allocation sorted by priority and priorities renumbered
// to their index. The canonical form is what Decode produces.
func (c Commitment) Canonical() Commitment {
	out := c.Clone()
	out.Allocation = Reprioritize(SortedAllocation(c.Allocation))
	if out.Allocation == nil {
		out.Allocation = []Allocation{}
	}
	if out.AppAttributes == nil {
		out.AppAttributes = hexutil.Bytes{}
	}
	return out
}

// Equal compares two commitments by their encoding.
func (c Commitment) Equal(o Commitment) bool {
	a, errA := Encode(c)
	b, errB := Encode(o)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// SignedCommitment pairs a commitment with the mover's signature.
type SignedCommitment struct {
	Commitment Commitment `json:"commitment"`
	Signature  Signature  `json:"signature"`
}

// Signer recovers the address that produced the signature.
func (s SignedCommitment) Signer() (common.Address, error) {
	hash, err := Hash(s.Commitment)
	if err != nil {
		return common.Address{}, err
	}
	return RecoverAddress(hash, s.Signature)
}

// Verify checks that the signature was produced by the commitment's mover.
func (s SignedCommitment) Verify() error {
	signer, err := s.Signer()
	if err != nil {
		return err
	}
	if mover := s.Commitment.Mover(); signer != mover {
		return fmt.Errorf("%w: signed by %s, mover is %s", ErrNotSignedByMover, signer.Hex(), mover.Hex())
	}
	return nil
}
