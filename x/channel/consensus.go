package channel

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidConsensusTransition = errors.New("channel: invalid consensus transition")

var consensusArgs = abi.Arguments{
	{Name: "furtherVotesRequired", Type: mustType("uint32")},
	{Name: "proposedDestination", Type: mustType("address[]")},
	{Name: "proposedAllocation", Type: mustType("uint256[]")},
}

// ConsensusAttributes are the app attributes of a ledger channel commitment: the
// allocation being voted on and how many votes it still needs.
type ConsensusAttributes struct {
	FurtherVotesRequired uint32
	ProposedAllocation   []Allocation
}

// EncodeConsensusAttributes ABI-encodes attrs.
func EncodeConsensusAttributes(attrs ConsensusAttributes) ([]byte, error) {
	sorted := SortedAllocation(attrs.ProposedAllocation)
	destinations := make([]common.Address, len(sorted))
	amounts := make([]*big.Int, len(sorted))
	for i, a := range sorted {
		destinations[i] = a.Destination
		amounts[i] = a.amount()
	}
	packed, err := consensusArgs.Pack(attrs.FurtherVotesRequired, destinations, amounts)
	if err != nil {
		return nil, fmt.Errorf("channel: encode consensus attributes: %w", err)
	}
	return packed, nil
}

// DecodeConsensusAttributes parses app attributes written by EncodeConsensusAttributes.
func DecodeConsensusAttributes(data []byte) (ConsensusAttributes, error) {
	values, err := consensusArgs.Unpack(data)
	if err != nil {
		return ConsensusAttributes{}, fmt.Errorf("%w: consensus attributes: %v", ErrMalformedEncoding, err)
	}
	votes, ok1 := values[0].(uint32)
	destinations, ok2 := values[1].([]common.Address)
	amounts, ok3 := values[2].([]*big.Int)
	if !(ok1 && ok2 && ok3) || len(destinations) != len(amounts) {
		return ConsensusAttributes{}, fmt.Errorf("%w: consensus attributes", ErrMalformedEncoding)
	}
	alloc := make([]Allocation, len(destinations))
	for i := range destinations {
		alloc[i] = Allocation{Destination: destinations[i], Amount: amounts[i], Priority: uint32(i)}
	}
	return ConsensusAttributes{FurtherVotesRequired: votes, ProposedAllocation: alloc}, nil
}

// ConsensusCommitment is a ledger channel commitment with decoded consensus attributes.
type ConsensusCommitment struct {
	Commitment
	ConsensusAttributes
}

// AsConsensusCommitment decodes the app attributes of c. Commitments without
// attributes (setup commitments) are treated as being in consensus on their allocation.
func AsConsensusCommitment(c Commitment) (ConsensusCommitment, error) {
	if len(c.AppAttributes) == 0 {
		return ConsensusCommitment{
			Commitment:          c,
			ConsensusAttributes: ConsensusAttributes{ProposedAllocation: cloneAllocation(c.Allocation)},
		}, nil
	}
	attrs, err := DecodeConsensusAttributes(c.AppAttributes)
	if err != nil {
		return ConsensusCommitment{}, err
	}
	return ConsensusCommitment{Commitment: c, ConsensusAttributes: attrs}, nil
}

// InConsensus reports whether no further votes are outstanding.
func (cc ConsensusCommitment) InConsensus() bool {
	return cc.FurtherVotesRequired == 0
}

// ProposeAllocation builds the commitment that follows prev and proposes alloc.
// The proposer's signature counts as the first vote.
func ProposeAllocation(prev Commitment, alloc []Allocation) (Commitment, error) {
	if total, proposed := prev.Total(), TotalOf(alloc); total.Cmp(proposed) != 0 {
		return Commitment{}, fmt.Errorf("%w: proposal allocates %s of %s", ErrInvalidConsensusTransition, proposed, total)
	}
	votes := uint32(len(prev.Channel.Participants) - 1)
	attrs := ConsensusAttributes{FurtherVotesRequired: votes, ProposedAllocation: alloc}
	if votes == 0 {
		return consensusSuccessor(prev, alloc)
	}
	return successor(prev, prev.Allocation, attrs)
}

// Vote builds the commitment that follows prev and agrees with its proposal. The
// final vote moves the proposed allocation into the current allocation.
func Vote(prev Commitment) (Commitment, error) {
	cc, err := AsConsensusCommitment(prev)
	if err != nil {
		return Commitment{}, err
	}
	if cc.InConsensus() {
		return Commitment{}, fmt.Errorf("%w: nothing to vote on at turn %d", ErrInvalidConsensusTransition, prev.TurnNum)
	}
	if cc.FurtherVotesRequired == 1 {
		return consensusSuccessor(prev, cc.ProposedAllocation)
	}
	return successor(prev, prev.Allocation, ConsensusAttributes{
		FurtherVotesRequired: cc.FurtherVotesRequired - 1,
		ProposedAllocation:   cc.ProposedAllocation,
	})
}

// Veto builds the commitment that follows prev and returns to consensus on the
// current allocation.
func Veto(prev Commitment) (Commitment, error) {
	return consensusSuccessor(prev, prev.Allocation)
}

// Pass builds the commitment that follows prev and keeps its consensus.
func Pass(prev Commitment) (Commitment, error) {
	cc, err := AsConsensusCommitment(prev)
	if err != nil {
		return Commitment{}, err
	}
	if !cc.InConsensus() {
		return Commitment{}, fmt.Errorf("%w: proposal pending at turn %d", ErrInvalidConsensusTransition, prev.TurnNum)
	}
	return consensusSuccessor(prev, prev.Allocation)
}

func consensusSuccessor(prev Commitment, alloc []Allocation) (Commitment, error) {
	return successor(prev, alloc, ConsensusAttributes{ProposedAllocation: alloc})
}

func successor(prev Commitment, alloc []Allocation, attrs ConsensusAttributes) (Commitment, error) {
	encoded, err := EncodeConsensusAttributes(attrs)
	if err != nil {
		return Commitment{}, err
	}
	next := prev.Clone()
	next.CommitmentType = App
	next.CommitmentCount = 0
	next.TurnNum = prev.TurnNum + 1
	next.Allocation = Reprioritize(SortedAllocation(alloc))
	next.AppAttributes = encoded
	return next, nil
}

// ValidateConsensusTransition checks that next is a legal ledger move after prev:
// a proposal from consensus, a vote, or a veto. Allocation totals are conserved.
func ValidateConsensusTransition(prev, next Commitment) error {
	if !prev.Channel.Equal(next.Channel) {
		return fmt.Errorf("%w: channel mismatch", ErrInvalidConsensusTransition)
	}
	if next.TurnNum != prev.TurnNum+1 {
		return fmt.Errorf("%w: turn %d does not follow %d", ErrInvalidConsensusTransition, next.TurnNum, prev.TurnNum)
	}
	if next.CommitmentType != App {
		return fmt.Errorf("%w: expected App commitment, got %s", ErrInvalidConsensusTransition, next.CommitmentType)
	}
	if prev.CommitmentType == PreFundSetup || prev.CommitmentType == Conclude {
		return fmt.Errorf("%w: cannot follow %s", ErrInvalidConsensusTransition, prev.CommitmentType)
	}
	if prev.Total().Cmp(next.Total()) != 0 {
		return fmt.Errorf("%w: allocation total changed from %s to %s", ErrInvalidConsensusTransition, prev.Total(), next.Total())
	}

	from, err := AsConsensusCommitment(prev)
	if err != nil {
		return err
	}
	to, err := AsConsensusCommitment(next)
	if err != nil {
		return err
	}
	if TotalOf(to.ProposedAllocation).Cmp(next.Total()) != 0 {
		return fmt.Errorf("%w: proposed allocation does not conserve funds", ErrInvalidConsensusTransition)
	}

	participants := uint32(len(prev.Channel.Participants))
	unchanged := AllocationsEqual(to.Allocation, from.Allocation)

	if from.InConsensus() {
		switch {
		case to.InConsensus() && unchanged && AllocationsEqual(to.ProposedAllocation, to.Allocation):
			return nil // pass
		case to.FurtherVotesRequired == participants-1 && unchanged:
			return nil // proposal
		default:
			return fmt.Errorf("%w: expected pass or proposal", ErrInvalidConsensusTransition)
		}
	}

	switch {
	case to.InConsensus() && unchanged && AllocationsEqual(to.ProposedAllocation, from.Allocation):
		return nil // veto
	case !AllocationsEqual(to.ProposedAllocation, from.ProposedAllocation):
		return fmt.Errorf("%w: vote changed the proposal", ErrInvalidConsensusTransition)
	case to.FurtherVotesRequired == from.FurtherVotesRequired-1 && to.InConsensus():
		if !AllocationsEqual(to.Allocation, from.ProposedAllocation) {
			return fmt.Errorf("%w: final vote must adopt the proposal", ErrInvalidConsensusTransition)
		}
		return nil
	case to.FurtherVotesRequired == from.FurtherVotesRequired-1 && unchanged:
		return nil
	default:
		return fmt.Errorf("%w: unexpected vote count %d after %d", ErrInvalidConsensusTransition, to.FurtherVotesRequired, from.FurtherVotesRequired)
	}
}
