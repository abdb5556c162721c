package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	apicommon "github.com/compose-network/nitro-wallet/server/api"
	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/hub"
	"github.com/compose-network/nitro-wallet/x/protocol/protocoltest"
	"github.com/compose-network/nitro-wallet/x/store"
)

type testServer struct {
	s      *protocoltest.Scenario
	repo   *store.Memory
	router *mux.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := protocoltest.NewScenario(t)
	repo := store.NewMemory()
	relay := hub.NewRelay(repo, s.SignerB, zerolog.New(io.Discard))

	r := mux.NewRouter()
	NewHandler(relay, repo, zerolog.New(io.Discard)).RegisterMux(r)
	return &testServer{s: s, repo: repo, router: r}
}

func (ts *testServer) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createProcess(t *testing.T) store.Process {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"appChannelId": ts.s.TargetID(),
		"theirAddress": ts.s.A,
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, routeProcesses, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var p store.Process
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.NotEmpty(t, p.ID)
	return p
}

func (ts *testServer) action(t *testing.T, a communication.RelayableAction) *httptest.ResponseRecorder {
	t.Helper()

	body, err := communication.MarshalAction(a)
	require.NoError(t, err)
	return ts.do(t, http.MethodPost, routeActions, body)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHandler_ProcessLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	p := ts.createProcess(t)

	u, err := ts.router.Get(routeNameProcessByID).URL("processId", p.ID)
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, u.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got store.Process
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, ts.s.TargetID(), got.AppChannelID)
	require.Equal(t, ts.s.A, got.TheirAddress)

	body, err := json.Marshal(map[string]any{
		"processId":    p.ID,
		"appChannelId": ts.s.TargetID(),
		"theirAddress": ts.s.A,
	})
	require.NoError(t, err)
	rec = ts.do(t, http.MethodPost, routeProcesses, body)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "process_exists", errorCode(t, rec))

	u, err = ts.router.Get(routeNameProcessByID).URL("processId", "missing")
	require.NoError(t, err)
	rec = ts.do(t, http.MethodGet, u.String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, string(hub.CodeProcessMissing), errorCode(t, rec))
}

func TestHandler_CreateProcessRejectsBadInput(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed", `{`, "invalid_json"},
		{"unknown field", `{"bogus":1}`, "invalid_json"},
		{"missing addresses", `{"processId":"p"}`, "invalid_process"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := ts.do(t, http.MethodPost, routeProcesses, []byte(tt.body))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestHandler_CommitmentRoundTrip(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	p := ts.createProcess(t)

	rec := ts.action(t, communication.CommitmentReceived{
		ProcessID:        p.ID,
		SignedCommitment: ts.s.Sign(t, ts.s.TargetCommitment(channel.PreFundSetup, 0, 0)),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply communication.RelayMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.Equal(t, ts.s.A, reply.To)

	received, ok := reply.Action.(communication.CommitmentReceived)
	require.True(t, ok)
	require.Equal(t, p.ID, received.ProcessID)
	require.NoError(t, received.SignedCommitment.Verify())
	require.Equal(t, uint32(1), received.SignedCommitment.Commitment.TurnNum)
	require.Equal(t, uint32(1), received.SignedCommitment.Commitment.CommitmentCount)

	// Replaying the opening commitment is stale.
	rec = ts.action(t, communication.CommitmentReceived{
		ProcessID:        p.ID,
		SignedCommitment: ts.s.Sign(t, ts.s.TargetCommitment(channel.PreFundSetup, 0, 0)),
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, string(hub.CodeTurnNumberConflict), errorCode(t, rec))
}

func TestHandler_ActionErrors(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	p := ts.createProcess(t)

	unknown := ts.action(t, communication.CommitmentReceived{
		ProcessID:        "unknown",
		SignedCommitment: ts.s.Sign(t, ts.s.TargetCommitment(channel.PreFundSetup, 0, 0)),
	})
	require.Equal(t, http.StatusNotFound, unknown.Code)
	require.Equal(t, string(hub.CodeProcessMissing), errorCode(t, unknown))

	gap := ts.action(t, communication.CommitmentReceived{
		ProcessID:        p.ID,
		SignedCommitment: ts.s.Sign(t, ts.s.TargetCommitment(channel.PreFundSetup, 2, 0)),
	})
	require.Equal(t, http.StatusBadRequest, gap.Code)
	require.Equal(t, string(hub.CodeSignatureOrTurnNumberInvalid), errorCode(t, gap))
	require.Equal(t, string(hub.CodeSignatureOrTurnNumberInvalid), gap.Header().Get(apicommon.ErrorCodeHeader))
	apiErr := apicommon.ParseError(gap.Code, gap.Body.Bytes())
	require.Equal(t, p.ID, apiErr.Details["processId"])
	require.Equal(t, string(hub.CodeSignatureOrTurnNumberInvalid), apiErr.Details["code"])

	rec := ts.do(t, http.MethodPost, routeActions, []byte(`{"type":"WALLET.UNKNOWN","processId":"p"}`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, string(hub.CodeValidation), errorCode(t, rec))

	rec = ts.do(t, http.MethodPost, routeActions, []byte(`not json`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_json", errorCode(t, rec))
}

func TestHandler_StrategyProposed(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	p := ts.createProcess(t)

	rec := ts.action(t, communication.StrategyProposed{ProcessID: p.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply communication.RelayMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.Equal(t, communication.StrategyApproved{ProcessID: p.ID}, reply.Action)
}

type failingRelay struct{}

func (failingRelay) HandleOngoingProcessAction(context.Context, communication.RelayableAction) (hub.Response, error) {
	return hub.Response{}, errors.New("disk on fire")
}

func TestHandler_InternalErrorHidesCause(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	NewHandler(failingRelay{}, store.NewMemory(), zerolog.New(io.Discard)).RegisterMux(r)

	body, err := communication.MarshalAction(communication.StrategyApproved{ProcessID: "p"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, routeActions, bytes.NewReader(body)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, string(hub.CodeInternal), errorCode(t, rec))
	require.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusNotFound, statusOf(hub.CodeProcessMissing))
	require.Equal(t, http.StatusBadRequest, statusOf(hub.CodeSignatureOrTurnNumberInvalid))
	require.Equal(t, http.StatusConflict, statusOf(hub.CodeTurnNumberConflict))
	require.Equal(t, http.StatusUnprocessableEntity, statusOf(hub.CodeValidation))
	require.Equal(t, http.StatusInternalServerError, statusOf(hub.CodeInternal))
}
