package courier

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/codec"
	"github.com/compose-network/nitro-wallet/x/communication"
)

// StreamSender writes relay messages as codec frames to a stream such as a
// net.Conn. Writes are serialized.
type StreamSender struct {
	mu    sync.Mutex
	w     io.Writer
	codec *codec.Codec
}

func NewStreamSender(w io.Writer, c *codec.Codec) *StreamSender {
	return &StreamSender{w: w, codec: c}
}

func (s *StreamSender) Send(ctx context.Context, msg communication.RelayMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.codec.WriteMessage(s.w, msg)
	if errors.Is(err, codec.ErrMessageTooLarge) {
		return Permanent(err)
	}
	return err
}

// Pump reads frames from r and dispatches their actions to inbox until r is
// exhausted or ctx is done. Closing r unblocks a pending read.
func Pump(ctx context.Context, r io.Reader, c *codec.Codec, inbox Inbox, log zerolog.Logger) error {
	log = log.With().Str("component", "stream-pump").Logger()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := c.ReadMessage(r)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		log.Debug().
			Str("type", string(msg.Action.Type())).
			Str("process_id", msg.Action.Process()).
			Msg("Received message")
		inbox.Dispatch(msg.Action)
	}
}
