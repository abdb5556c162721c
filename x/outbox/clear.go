package outbox

// SentAction confirms delivery of the head of one outbox.
type SentAction interface {
	isSent()
}

// DisplayMessageSent confirms the head of the display outbox was shown.
type DisplayMessageSent struct{}

// MessageSent confirms the head of the message outbox was delivered.
type MessageSent struct{}

// TransactionSent confirms the head of the transaction outbox was submitted.
type TransactionSent struct {
	ProcessID string
}

func (DisplayMessageSent) isSent() {}
func (MessageSent) isSent()        {}
func (TransactionSent) isSent()    {}

// ClearOutbox removes the first entry of the outbox matching action. The other
// outboxes are returned as they are.
func ClearOutbox(state State, action SentAction) State {
	switch action.(type) {
	case DisplayMessageSent:
		state.DisplayOutbox = dropHead(state.DisplayOutbox)
	case MessageSent:
		state.MessageOutbox = dropHead(state.MessageOutbox)
	case TransactionSent:
		state.TransactionOutbox = dropHead(state.TransactionOutbox)
	}
	return state
}
