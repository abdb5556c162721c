package lobby_test

import (
	"context"
	"io"
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/x/lobby"
	lobbyhttp "github.com/compose-network/nitro-wallet/x/lobby/http"
)

func TestHTTPDirectoryAgainstServer(t *testing.T) {
	t.Parallel()

	backing := lobby.NewMemoryDirectory()
	r := mux.NewRouter()
	lobbyhttp.NewHandler(backing, zerolog.New(io.Discard)).RegisterMux(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	d := lobby.NewHTTPDirectory(srv.URL, srv.Client())
	ctx := context.Background()
	oc := lobby.OpenChannel{
		Address:  common.HexToAddress("0xa11ce"),
		Name:     "alice",
		Stake:    (*hexutil.Big)(big.NewInt(5)),
		IsPublic: true,
	}

	require.NoError(t, d.Publish(ctx, oc))
	open, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, oc.Address, open[0].Address)
	require.Equal(t, "alice", open[0].Name)
	require.Zero(t, open[0].Stake.ToInt().Cmp(big.NewInt(5)))

	require.NoError(t, d.Remove(ctx, oc.Address))
	open, err = d.List(ctx)
	require.NoError(t, err)
	require.Empty(t, open)

	oc.Stake = nil
	require.ErrorIs(t, d.Publish(ctx, oc), lobby.ErrInvalidOpenChannel)
}
