package courier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	apisrv "github.com/compose-network/nitro-wallet/server/api"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/hub"
	hubhttp "github.com/compose-network/nitro-wallet/x/hub/http"
	"github.com/compose-network/nitro-wallet/x/protocol/protocoltest"
	"github.com/compose-network/nitro-wallet/x/store"
)

type inbox struct {
	mu      sync.Mutex
	actions []any
}

func (i *inbox) Dispatch(action any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.actions = append(i.actions, action)
}

func (i *inbox) Actions() []any {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]any(nil), i.actions...)
}

func newHub(t *testing.T) (*protocoltest.Scenario, *store.Memory, *httptest.Server) {
	t.Helper()

	s := protocoltest.NewScenario(t)
	repo := store.NewMemory()
	relay := hub.NewRelay(repo, s.SignerB, zerolog.New(io.Discard))

	r := mux.NewRouter()
	hubhttp.NewHandler(relay, repo, zerolog.New(io.Discard)).RegisterMux(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return s, repo, srv
}

func TestHTTPSenderForwardsHubReply(t *testing.T) {
	t.Parallel()

	s, repo, srv := newHub(t)
	p, err := repo.CreateProcess(context.Background(), store.Process{AppChannelID: s.TargetID(), TheirAddress: s.A})
	require.NoError(t, err)

	in := &inbox{}
	sender := NewHTTPSender(srv.URL+"/", srv.Client(), in, zerolog.New(io.Discard))

	msg := communication.SendStrategyProposed(s.B, p.ID, communication.IndirectFundingStrategy)
	require.NoError(t, sender.Send(context.Background(), msg))
	require.Equal(t, []any{communication.StrategyApproved{ProcessID: p.ID}}, in.Actions())

	// Echoed actions are not forwarded.
	require.NoError(t, sender.Send(context.Background(), communication.SendStrategyApproved(s.B, p.ID)))
	require.Len(t, in.Actions(), 1)
}

func TestHTTPSenderClassifiesFailures(t *testing.T) {
	t.Parallel()

	s, _, srv := newHub(t)
	sender := NewHTTPSender(srv.URL, srv.Client(), nil, zerolog.New(io.Discard))

	err := sender.Send(context.Background(), communication.SendStrategyProposed(s.B, "unknown", communication.IndirectFundingStrategy))
	require.Error(t, err)
	require.ErrorIs(t, err, errPermanent)
	var apiErr *apisrv.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "process_missing", apiErr.Code)
	require.Equal(t, "unknown", apiErr.Details["processId"])

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(failing.Close)

	sender = NewHTTPSender(failing.URL, failing.Client(), nil, zerolog.New(io.Discard))
	err = sender.Send(context.Background(), communication.SendStrategyApproved(s.B, "p"))
	require.Error(t, err)
	require.False(t, errors.Is(err, errPermanent))
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	require.Empty(t, apiErr.Code)
}
