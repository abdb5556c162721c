package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/protocol/protocoltest"
)

func TestValidateSetup(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)
	commitment := func(typ channel.Type, turn, count uint32) *channel.Commitment {
		c := s.TargetCommitment(typ, turn, count)
		return &c
	}
	app := commitment(channel.App, 4, 0)

	tests := []struct {
		name    string
		prev    *channel.Commitment
		next    *channel.Commitment
		wantErr bool
	}{
		{"open", nil, commitment(channel.PreFundSetup, 0, 0), false},
		{"open with PostFundSetup", nil, commitment(channel.PostFundSetup, 0, 0), true},
		{"second PreFundSetup", commitment(channel.PreFundSetup, 0, 0), commitment(channel.PreFundSetup, 1, 1), false},
		{"count overflow", commitment(channel.PreFundSetup, 1, 1), commitment(channel.PreFundSetup, 2, 2), true},
		{"count skipped", commitment(channel.PreFundSetup, 0, 0), commitment(channel.PreFundSetup, 1, 0), true},
		{"PostFundSetup after round", commitment(channel.PreFundSetup, 1, 1), commitment(channel.PostFundSetup, 2, 0), false},
		{"PostFundSetup early", commitment(channel.PreFundSetup, 0, 0), commitment(channel.PostFundSetup, 1, 0), true},
		{"PreFundSetup after App", app, commitment(channel.PreFundSetup, 5, 0), true},
		{"Conclude after App", app, commitment(channel.Conclude, 5, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateSetup(tt.prev, *tt.next)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}

	conclude := commitment(channel.Conclude, 5, 0)
	conclude.Allocation = s.FinalAllocation()
	require.ErrorIs(t, validateSetup(app, *conclude), ErrValidation)
}

func TestNextSetup(t *testing.T) {
	t.Parallel()

	s := protocoltest.NewScenario(t)

	next, ok := nextSetup(s.TargetCommitment(channel.Conclude, 6, 0))
	require.True(t, ok)
	require.Equal(t, uint32(7), next.TurnNum)
	require.Equal(t, uint32(1), next.CommitmentCount)
	require.Equal(t, channel.Conclude, next.CommitmentType)

	_, ok = nextSetup(s.TargetCommitment(channel.PostFundSetup, 3, 1))
	require.False(t, ok)
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	t.Parallel()

	k := newKeyedMutex()
	unlock := k.Lock("a")

	// Another key is free.
	k.Lock("b")()

	acquired := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		k.Lock("a")()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a locked key")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	wg.Wait()
	require.Zero(t, k.size())
}
