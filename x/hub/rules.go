package hub

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/nitro-wallet/x/channel"
)

// AppRules produce the hub's answer to an App commitment on an application
// channel. Implementations are registered per channel type.
type AppRules interface {
	Respond(received channel.Commitment) (channel.Commitment, error)
}

// AppRulesFunc adapts a function to AppRules.
type AppRulesFunc func(received channel.Commitment) (channel.Commitment, error)

func (f AppRulesFunc) Respond(received channel.Commitment) (channel.Commitment, error) {
	return f(received)
}

// AcknowledgeRules answers every move with the same allocation and attributes
// at the next turn.
var AcknowledgeRules AppRules = AppRulesFunc(func(received channel.Commitment) (channel.Commitment, error) {
	next := received.Clone()
	next.TurnNum++
	return next, nil
})

// rulesRegistry resolves the rules for a channel type.
type rulesRegistry struct {
	byType   map[common.Address]AppRules
	fallback AppRules
}

func (r rulesRegistry) forType(channelType common.Address) AppRules {
	if rules, ok := r.byType[channelType]; ok {
		return rules
	}
	return r.fallback
}

func isSetup(t channel.Type) bool {
	return t == channel.PreFundSetup || t == channel.PostFundSetup || t == channel.Conclude
}

// nextSetup returns the next commitment of a setup or conclude round. The
// boolean is false when received completed the round.
func nextSetup(received channel.Commitment) (channel.Commitment, bool) {
	if int(received.CommitmentCount)+1 >= len(received.Channel.Participants) {
		return channel.Commitment{}, false
	}
	next := received.Clone()
	next.TurnNum++
	next.CommitmentCount++
	return next, true
}

// validateSetup checks a setup or conclude commitment against its predecessor.
func validateSetup(prev *channel.Commitment, next channel.Commitment) error {
	n := uint32(len(next.Channel.Participants))
	if next.CommitmentCount >= n {
		return fmt.Errorf("%w: commitment count %d in a %d party channel", ErrValidation, next.CommitmentCount, n)
	}
	if prev == nil {
		if next.CommitmentType != channel.PreFundSetup || next.CommitmentCount != 0 {
			return fmt.Errorf("%w: channel must open with PreFundSetup 0", ErrValidation)
		}
		return nil
	}

	switch {
	case prev.CommitmentType == next.CommitmentType:
		if next.CommitmentCount != prev.CommitmentCount+1 {
			return fmt.Errorf("%w: %s count %d does not follow %d", ErrValidation, next.CommitmentType, next.CommitmentCount, prev.CommitmentCount)
		}
	case next.CommitmentCount != 0:
		return fmt.Errorf("%w: %s must start at count 0", ErrValidation, next.CommitmentType)
	case next.CommitmentType == channel.PreFundSetup:
		return fmt.Errorf("%w: PreFundSetup cannot follow %s", ErrValidation, prev.CommitmentType)
	case next.CommitmentType == channel.PostFundSetup:
		if prev.CommitmentType != channel.PreFundSetup || prev.CommitmentCount+1 != n {
			return fmt.Errorf("%w: PostFundSetup before PreFundSetup completed", ErrValidation)
		}
	}

	if !channel.AllocationsEqual(prev.Allocation, next.Allocation) {
		return fmt.Errorf("%w: %s changed the allocation", ErrValidation, next.CommitmentType)
	}
	return nil
}

// validateAppMove checks an App commitment on an application channel.
func validateAppMove(prev channel.Commitment, next channel.Commitment) error {
	if prev.CommitmentType != channel.PostFundSetup && prev.CommitmentType != channel.App {
		return fmt.Errorf("%w: App move cannot follow %s", ErrValidation, prev.CommitmentType)
	}
	if prev.CommitmentType == channel.PostFundSetup && int(prev.CommitmentCount)+1 != len(prev.Channel.Participants) {
		return fmt.Errorf("%w: App move before PostFundSetup completed", ErrValidation)
	}
	if next.CommitmentCount != 0 {
		return fmt.Errorf("%w: App commitment count must be 0", ErrValidation)
	}
	if prev.Total().Cmp(next.Total()) != 0 {
		return fmt.Errorf("%w: allocation total changed from %s to %s", ErrValidation, prev.Total(), next.Total())
	}
	return nil
}

// respondLedger votes on a pending proposal and passes otherwise.
func respondLedger(received channel.Commitment) (channel.Commitment, error) {
	cc, err := channel.AsConsensusCommitment(received)
	if err != nil {
		return channel.Commitment{}, err
	}
	if cc.InConsensus() {
		return channel.Pass(received)
	}
	return channel.Vote(received)
}
