// Package codec frames relay messages for stream transports. Each frame is a
// big endian uint32 length followed by a protobuf encoded google.protobuf.Struct
// holding the message's JSON shape.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/compose-network/nitro-wallet/x/communication"
)

// DefaultMaxMessageSize bounds a frame payload.
const DefaultMaxMessageSize = 1 << 20

const prefixLen = 4

var (
	ErrMessageTooLarge = errors.New("codec: message too large")
	ErrShortFrame      = errors.New("codec: short frame")
	ErrEmptyMessage    = errors.New("codec: empty message")
)

// Codec encodes and decodes framed relay messages. It is safe for concurrent
// use; callers serialize access to a shared stream.
type Codec struct {
	maxMessageSize int

	scratchPool sync.Pool
}

func New(maxMessageSize int) *Codec {
	if maxMessageSize <= 0 || maxMessageSize > math.MaxUint32 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return &Codec{
		maxMessageSize: maxMessageSize,
		scratchPool: sync.Pool{
			New: func() any {
				buf := make([]byte, 4096)
				return &buf
			},
		},
	}
}

// Encode returns msg as a single frame.
func (c *Codec) Encode(msg communication.RelayMessage) ([]byte, error) {
	data, err := c.marshal(msg)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, prefixLen+len(data))
	binary.BigEndian.PutUint32(frame[:prefixLen], uint32(len(data))) //nolint:gosec // bounded by maxMessageSize
	copy(frame[prefixLen:], data)
	return frame, nil
}

// Decode reads the frame at the start of data.
func (c *Codec) Decode(data []byte) (communication.RelayMessage, error) {
	if len(data) < prefixLen {
		return communication.RelayMessage{}, fmt.Errorf("%w: missing length prefix", ErrShortFrame)
	}
	length, err := c.length(data[:prefixLen])
	if err != nil {
		return communication.RelayMessage{}, err
	}
	if len(data) < prefixLen+length {
		return communication.RelayMessage{}, fmt.Errorf("%w: want %d bytes, have %d", ErrShortFrame, length, len(data)-prefixLen)
	}
	return c.unmarshal(data[prefixLen : prefixLen+length])
}

// WriteMessage writes msg to w as one frame.
func (c *Codec) WriteMessage(w io.Writer, msg communication.RelayMessage) error {
	frame, err := c.Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadMessage reads the next frame from r. io.EOF is returned unwrapped when
// the stream ends between frames.
func (c *Codec) ReadMessage(r io.Reader) (communication.RelayMessage, error) {
	var prefix [prefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return communication.RelayMessage{}, fmt.Errorf("%w: %v", ErrShortFrame, err)
		}
		return communication.RelayMessage{}, err
	}
	length, err := c.length(prefix[:])
	if err != nil {
		return communication.RelayMessage{}, err
	}

	scratchPtr := c.scratchPool.Get().(*[]byte)
	defer c.scratchPool.Put(scratchPtr)

	payload := *scratchPtr
	if length <= len(payload) {
		payload = payload[:length]
	} else {
		payload = make([]byte, length)
	}
	if _, err := io.ReadFull(r, payload); err != nil {
		return communication.RelayMessage{}, fmt.Errorf("%w: %v", ErrShortFrame, err)
	}
	return c.unmarshal(payload)
}

func (c *Codec) MaxMessageSize() int {
	return c.maxMessageSize
}

func (c *Codec) length(prefix []byte) (int, error) {
	length := int(binary.BigEndian.Uint32(prefix))
	switch {
	case length == 0:
		return 0, ErrEmptyMessage
	case length > c.maxMessageSize:
		return 0, fmt.Errorf("%w: %d exceeds %d", ErrMessageTooLarge, length, c.maxMessageSize)
	}
	return length, nil
}

func (c *Codec) marshal(msg communication.RelayMessage) ([]byte, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("codec: encode message: %w", err)
	}
	var s structpb.Struct
	if err := protojson.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("codec: convert message: %w", err)
	}
	data, err := proto.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal struct: %w", err)
	}
	if len(data) > c.maxMessageSize {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrMessageTooLarge, len(data), c.maxMessageSize)
	}
	return data, nil
}

func (c *Codec) unmarshal(data []byte) (communication.RelayMessage, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return communication.RelayMessage{}, fmt.Errorf("codec: unmarshal struct: %w", err)
	}
	raw, err := protojson.Marshal(&s)
	if err != nil {
		return communication.RelayMessage{}, fmt.Errorf("codec: convert struct: %w", err)
	}
	var msg communication.RelayMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return communication.RelayMessage{}, fmt.Errorf("codec: decode message: %w", err)
	}
	return msg, nil
}
