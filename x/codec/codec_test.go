package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol/protocoltest"
)

func commitmentMessage(t *testing.T) communication.RelayMessage {
	t.Helper()

	s := protocoltest.NewScenario(t)
	sc := s.Sign(t, s.TargetCommitment(channel.PreFundSetup, 0, 0))
	return communication.SendCommitmentReceived(s.B, "funding-1", sc.Commitment, sc.Signature)
}

func requireSameMessage(t *testing.T, want, got communication.RelayMessage) {
	t.Helper()

	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	require.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestCodec_EncodeDecode_Roundtrip(t *testing.T) {
	t.Parallel()

	c := New(DefaultMaxMessageSize)
	in := commitmentMessage(t)

	data, err := c.Encode(in)
	require.NoError(t, err)
	require.Equal(t, len(data)-prefixLen, int(binary.BigEndian.Uint32(data[:prefixLen])))

	out, err := c.Decode(data)
	require.NoError(t, err)
	requireSameMessage(t, in, out)

	received, ok := out.Action.(communication.CommitmentReceived)
	require.True(t, ok)
	require.NoError(t, received.SignedCommitment.Verify())
}

func TestCodec_Stream(t *testing.T) {
	t.Parallel()

	c := New(DefaultMaxMessageSize)
	buf := new(bytes.Buffer)

	first := commitmentMessage(t)
	second := communication.SendStrategyApproved(common.HexToAddress("0xa00"), "funding-1")
	require.NoError(t, c.WriteMessage(buf, first))
	require.NoError(t, c.WriteMessage(buf, second))

	out, err := c.ReadMessage(buf)
	require.NoError(t, err)
	requireSameMessage(t, first, out)

	out, err = c.ReadMessage(buf)
	require.NoError(t, err)
	require.Equal(t, second, out)

	_, err = c.ReadMessage(buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestCodec_MaxSizeExceeded(t *testing.T) {
	t.Parallel()

	c := New(16)

	_, err := c.Encode(commitmentMessage(t))
	require.ErrorIs(t, err, ErrMessageTooLarge)

	frame := make([]byte, prefixLen)
	binary.BigEndian.PutUint32(frame, 17)
	_, err = c.ReadMessage(bytes.NewReader(frame))
	require.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestCodec_MalformedFrames(t *testing.T) {
	t.Parallel()

	c := New(1024)

	truncated := make([]byte, prefixLen+6)
	binary.BigEndian.PutUint32(truncated[:prefixLen], 10)
	copy(truncated[prefixLen:], "123456")

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"no prefix", []byte{0, 0}, ErrShortFrame},
		{"truncated payload", truncated, ErrShortFrame},
		{"empty", []byte{0, 0, 0, 0}, ErrEmptyMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := c.Decode(tt.data)
			require.ErrorIs(t, err, tt.err)

			_, err = c.ReadMessage(bytes.NewReader(tt.data))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCodec_RejectsForeignPayload(t *testing.T) {
	t.Parallel()

	c := New(1024)
	payload := []byte{0xff, 0xff, 0xff}
	frame := make([]byte, prefixLen+len(payload))
	binary.BigEndian.PutUint32(frame[:prefixLen], uint32(len(payload)))
	copy(frame[prefixLen:], payload)

	_, err := c.Decode(frame)
	assert.Error(t, err)
}

func TestNew_DefaultsSize(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultMaxMessageSize, New(0).MaxMessageSize())
	require.Equal(t, 64, New(64).MaxMessageSize())
}
