package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	apisrv "github.com/compose-network/nitro-wallet/server/api"
	"github.com/compose-network/nitro-wallet/x/communication"
)

const actionsPath = "/api/v1/actions"

// Inbox receives the actions counterparties answer with.
type Inbox interface {
	Dispatch(action any)
}

// InboxFunc adapts a function to Inbox.
type InboxFunc func(action any)

func (f InboxFunc) Dispatch(action any) { f(action) }

// HTTPSender posts relay messages to a hub and hands the hub's replies to an
// inbox.
type HTTPSender struct {
	baseURL string
	client  *http.Client
	inbox   Inbox
	log     zerolog.Logger
}

func NewHTTPSender(baseURL string, client *http.Client, inbox Inbox, log zerolog.Logger) *HTTPSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		inbox:   inbox,
		log:     log.With().Str("component", "http-sender").Logger(),
	}
}

// Send posts msg's action. Client errors from the hub are permanent; server
// and transport errors are retried by the courier.
func (s *HTTPSender) Send(ctx context.Context, msg communication.RelayMessage) error {
	body, err := communication.MarshalAction(msg.Action)
	if err != nil {
		return Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+actionsPath, bytes.NewReader(body))
	if err != nil {
		return Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post action: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("hub failed %s: %w", msg.Action.Type(), apisrv.ParseError(resp.StatusCode, payload))
	case resp.StatusCode >= http.StatusBadRequest:
		return Permanent(fmt.Errorf("hub rejected %s: %w", msg.Action.Type(), apisrv.ParseError(resp.StatusCode, payload)))
	}

	s.forward(payload)
	return nil
}

// forward dispatches the hub's reply. Echoed actions are not relay messages
// and are dropped.
func (s *HTTPSender) forward(payload []byte) {
	if s.inbox == nil {
		return
	}
	var reply communication.RelayMessage
	if err := json.Unmarshal(payload, &reply); err != nil {
		s.log.Debug().Err(err).Msg("Hub response is not a relay message")
		return
	}
	s.inbox.Dispatch(reply.Action)
}
