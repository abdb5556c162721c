package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/nitro-wallet/server/api/middleware"
)

func TestServerServesAndShutsDown(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	s := NewServer(cfg, zerolog.New(io.Discard))
	s.Use(middleware.RequestID())
	s.Router.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"pong": "ok"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	addrCtx, addrCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer addrCancel()
	addr, err := s.Addr(addrCtx)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	cancel()
	require.NoError(t, <-done)
}

func TestServerCORS(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.CORSOrigins = []string{"https://app.example"}
	s := NewServer(cfg, zerolog.New(io.Discard))
	s.Router.HandleFunc("/x", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-7"))
	WriteError(rec, req, http.StatusConflict, "turn_number_conflict", "stale", map[string]any{"processId": "p"})

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Code      string         `json:"code"`
			Message   string         `json:"message"`
			RequestID string         `json:"request_id"`
			Details   map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "turn_number_conflict", body.Error.Code)
	require.Equal(t, "req-7", body.Error.RequestID)
	require.Equal(t, "p", body.Error.Details["processId"])
}

type rejection struct{ processID string }

func (r rejection) Error() string { return "rejected" }

func (r rejection) ErrorDetails() map[string]any {
	return map[string]any{"processId": r.processID}
}

func TestWriteErrorDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		details any
		want    map[string]any
	}{
		{"none", nil, nil},
		{"map", map[string]any{"field": "to"}, map[string]any{"field": "to"}},
		{"detailer", rejection{processID: "p-9"}, map[string]any{"processId": "p-9"}},
		{"other", "turn 4", map[string]any{"detail": "turn 4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusBadRequest, "bad", "bad request", tt.details)
			require.Equal(t, "bad", rec.Header().Get(ErrorCodeHeader))

			apiErr := ParseError(rec.Code, rec.Body.Bytes())
			require.Equal(t, http.StatusBadRequest, apiErr.Status)
			require.Equal(t, "bad", apiErr.Code)
			require.Equal(t, "bad request", apiErr.Message)
			require.Equal(t, tt.want, apiErr.Details)
			require.EqualError(t, apiErr, "http 400 bad: bad request")
		})
	}
}

func TestParseErrorForeignBody(t *testing.T) {
	t.Parallel()

	apiErr := ParseError(http.StatusBadGateway, []byte("upstream down"))
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
	require.Empty(t, apiErr.Code)
	require.EqualError(t, apiErr, "http 502: upstream down")
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"cors origins", func(c *Config) { c.CORSOrigins = []string{"*", "https://app.example:8443"} }, false},
		{"no listen addr", func(c *Config) { c.ListenAddr = "" }, true},
		{"no header timeout", func(c *Config) { c.ReadHeaderTimeout = 0 }, true},
		{"negative write timeout", func(c *Config) { c.WriteTimeout = -time.Second }, true},
		{"negative header bytes", func(c *Config) { c.MaxHeaderBytes = -1 }, true},
		{"origin with path", func(c *Config) { c.CORSOrigins = []string{"https://app.example/wallet"} }, true},
		{"origin without scheme", func(c *Config) { c.CORSOrigins = []string{"app.example"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if tt.wantErr {
				require.Error(t, cfg.Validate())
				return
			}
			require.NoError(t, cfg.Validate())
		})
	}
}
