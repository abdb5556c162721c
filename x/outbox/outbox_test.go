package outbox

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/x/communication"
)

func newTestState() State {
	processID := "0x0"
	tx := NewTransactionRequest(processID, common.HexToAddress("0xadd"), []byte{0x01})
	return State{
		DisplayOutbox:     []communication.DisplayMessage{communication.HideWallet, communication.ShowWallet},
		TransactionOutbox: []TransactionRequest{tx, tx},
		MessageOutbox: []communication.Message{
			communication.SendStrategyProposed(common.HexToAddress("0xa00"), processID, communication.IndirectFundingStrategy),
			communication.SendStrategyApproved(common.HexToAddress("0xb00"), processID),
		},
	}
}

func TestClearOutbox(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		action SentAction
		check  func(t *testing.T, before, after State)
	}{
		{
			name:   "display message sent",
			action: DisplayMessageSent{},
			check: func(t *testing.T, before, after State) {
				require.Equal(t, before.DisplayOutbox[1:], after.DisplayOutbox)
				require.Equal(t, before.MessageOutbox, after.MessageOutbox)
				require.Equal(t, before.TransactionOutbox, after.TransactionOutbox)
			},
		},
		{
			name:   "message sent",
			action: MessageSent{},
			check: func(t *testing.T, before, after State) {
				require.Equal(t, before.MessageOutbox[1:], after.MessageOutbox)
				require.Equal(t, before.DisplayOutbox, after.DisplayOutbox)
				require.Equal(t, before.TransactionOutbox, after.TransactionOutbox)
			},
		},
		{
			name:   "transaction sent",
			action: TransactionSent{ProcessID: "processId"},
			check: func(t *testing.T, before, after State) {
				require.Equal(t, before.TransactionOutbox[1:], after.TransactionOutbox)
				require.Equal(t, before.DisplayOutbox, after.DisplayOutbox)
				require.Equal(t, before.MessageOutbox, after.MessageOutbox)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			before := newTestState()
			after := ClearOutbox(before, tt.action)
			tt.check(t, before, after)

			// the input keeps both entries
			require.Len(t, before.DisplayOutbox, 2)
			require.Len(t, before.MessageOutbox, 2)
			require.Len(t, before.TransactionOutbox, 2)
		})
	}
}

func TestClearOutboxEmpty(t *testing.T) {
	t.Parallel()

	require.True(t, ClearOutbox(State{}, MessageSent{}).Empty())
}

func TestQueueDoesNotAlias(t *testing.T) {
	t.Parallel()

	base := State{}.QueueDisplay(communication.ShowWallet)
	a := base.QueueDisplay(communication.HideWallet)
	b := base.QueueDisplay(communication.ShowWallet)

	require.Equal(t, []communication.DisplayMessage{communication.ShowWallet}, base.DisplayOutbox)
	require.Equal(t, communication.HideWallet, a.DisplayOutbox[1])
	require.Equal(t, communication.ShowWallet, b.DisplayOutbox[1])
}
