package outbox

import (
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/compose-network/nitro-wallet/x/communication"
)

// TransactionRequest is an on-chain transaction the wallet wants submitted for a process.
type TransactionRequest struct {
	ProcessID string         `json:"processId"`
	To        common.Address `json:"to"`
	Data      hexutil.Bytes  `json:"data"`
	Value     *hexutil.Big   `json:"value,omitempty"`
}

// NewTransactionRequest builds a request with a zero value.
func NewTransactionRequest(processID string, to common.Address, data []byte) TransactionRequest {
	return TransactionRequest{ProcessID: processID, To: to, Data: data, Value: (*hexutil.Big)(new(big.Int))}
}

// State holds the pending side effects of the protocol reducers. Every method
// returns a new State and leaves the receiver untouched.
type State struct {
	DisplayOutbox     []communication.DisplayMessage
	TransactionOutbox []TransactionRequest
	MessageOutbox     []communication.Message
}

func (s State) QueueDisplay(msg communication.DisplayMessage) State {
	s.DisplayOutbox = appendCopy(s.DisplayOutbox, msg)
	return s
}

func (s State) QueueMessage(msg communication.Message) State {
	s.MessageOutbox = appendCopy(s.MessageOutbox, msg)
	return s
}

func (s State) QueueTransaction(tx TransactionRequest) State {
	s.TransactionOutbox = appendCopy(s.TransactionOutbox, tx)
	return s
}

// Empty reports whether nothing is waiting for delivery.
func (s State) Empty() bool {
	return len(s.DisplayOutbox) == 0 && len(s.TransactionOutbox) == 0 && len(s.MessageOutbox) == 0
}

func appendCopy[T any](queue []T, item T) []T {
	out := make([]T, len(queue), len(queue)+1)
	copy(out, queue)
	return append(out, item)
}

func dropHead[T any](queue []T) []T {
	if len(queue) == 0 {
		return queue
	}
	return slices.Clone(queue[1:])
}
