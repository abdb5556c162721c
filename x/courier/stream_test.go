package courier

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/x/codec"
	"github.com/compose-network/nitro-wallet/x/communication"
)

func TestStreamSenderAndPump(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	c := codec.New(codec.DefaultMaxMessageSize)
	in := &inbox{}

	done := make(chan error, 1)
	go func() { done <- Pump(context.Background(), server, c, in, zerolog.New(io.Discard)) }()

	sender := NewStreamSender(client, c)
	to := common.HexToAddress("0xb00")
	require.NoError(t, sender.Send(context.Background(), communication.SendStrategyApproved(to, "p1")))
	require.NoError(t, sender.Send(context.Background(), communication.SendStrategyApproved(to, "p2")))
	require.NoError(t, client.Close())

	require.NoError(t, <-done)
	require.Equal(t, []any{
		communication.StrategyApproved{ProcessID: "p1"},
		communication.StrategyApproved{ProcessID: "p2"},
	}, in.Actions())
}

func TestStreamSenderRejectsOversizedMessages(t *testing.T) {
	t.Parallel()

	sender := NewStreamSender(io.Discard, codec.New(8))
	err := sender.Send(context.Background(), communication.SendStrategyApproved(common.HexToAddress("0xb00"), "p1"))
	require.ErrorIs(t, err, codec.ErrMessageTooLarge)
	require.ErrorIs(t, err, errPermanent)
}

func TestStreamSenderHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := NewStreamSender(io.Discard, codec.New(0))
	require.ErrorIs(t, sender.Send(ctx, communication.SendStrategyApproved(common.HexToAddress("0xb00"), "p1")), context.Canceled)
}
