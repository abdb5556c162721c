// Package http exposes the hub relay and its process registry over HTTP.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apicommon "github.com/compose-network/nitro-wallet/server/api"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/hub"
	"github.com/compose-network/nitro-wallet/x/store"
)

const maxBodyBytes = 1 << 20

// Relay handles actions of ongoing processes.
type Relay interface {
	HandleOngoingProcessAction(ctx context.Context, action communication.RelayableAction) (hub.Response, error)
}

// Processes is the process registry the hub serves.
type Processes interface {
	GetProcess(ctx context.Context, id string) (store.Process, error)
	CreateProcess(ctx context.Context, p store.Process) (store.Process, error)
}

type Handler struct {
	relay     Relay
	processes Processes
	log       zerolog.Logger
}

func NewHandler(relay Relay, processes Processes, log zerolog.Logger) *Handler {
	return &Handler{
		relay:     relay,
		processes: processes,
		log:       log.With().Str("component", "hub-http").Logger(),
	}
}

// handleAction decodes a relayable action and hands it to the relay.
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_body", "failed to read request", nil)
		return
	}

	action, err := communication.UnmarshalAction(body)
	switch {
	case errors.Is(err, communication.ErrUnknownActionType), errors.Is(err, communication.ErrMissingField):
		apicommon.WriteError(w, r, http.StatusUnprocessableEntity, string(hub.CodeValidation), err.Error(), nil)
		return
	case err != nil:
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode action", nil)
		return
	}

	resp, err := h.relay.HandleOngoingProcessAction(r.Context(), action)
	if err != nil {
		h.writeRelayError(w, r, action, err)
		return
	}

	apicommon.WriteJSON(w, resp.Status, resp)
}

func (h *Handler) writeRelayError(w http.ResponseWriter, r *http.Request, action communication.RelayableAction, err error) {
	code := hub.CodeOf(err)
	status := statusOf(code)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("process_id", action.Process()).
			Str("type", string(action.Type())).
			Msg("Relay failed")
		apicommon.WriteError(w, r, status, string(code), "internal error", nil)
		return
	}

	h.log.Debug().Err(err).
		Str("process_id", action.Process()).
		Str("code", string(code)).
		Msg("Relay rejected action")
	var re *hub.RelayError
	if errors.As(err, &re) {
		apicommon.WriteError(w, r, status, string(code), err.Error(), re)
		return
	}
	apicommon.WriteError(w, r, status, string(code), err.Error(), map[string]any{"processId": action.Process()})
}

func statusOf(code hub.Code) int {
	switch code {
	case hub.CodeProcessMissing:
		return http.StatusNotFound
	case hub.CodeSignatureOrTurnNumberInvalid:
		return http.StatusBadRequest
	case hub.CodeTurnNumberConflict:
		return http.StatusConflict
	case hub.CodeValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createProcessReq
	if err := decodeJSON(r, &req); err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request", nil)
		return
	}
	if req.AppChannelID == nil || req.TheirAddress == nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_process", "appChannelId and theirAddress are required", nil)
		return
	}

	p, err := h.processes.CreateProcess(r.Context(), store.Process{
		ID:           req.ProcessID,
		AppChannelID: *req.AppChannelID,
		TheirAddress: *req.TheirAddress,
	})
	switch {
	case errors.Is(err, store.ErrProcessExists):
		apicommon.WriteError(w, r, http.StatusConflict, "process_exists", err.Error(), nil)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to create process")
		apicommon.WriteError(w, r, http.StatusInternalServerError, string(hub.CodeInternal), "internal error", nil)
		return
	}

	h.log.Info().
		Str("process_id", p.ID).
		Str("app_channel_id", p.AppChannelID.Hex()).
		Msg("Process created")
	apicommon.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["processId"]

	p, err := h.processes.GetProcess(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrProcessNotFound):
		apicommon.WriteError(w, r, http.StatusNotFound, string(hub.CodeProcessMissing), "process not found", nil)
		return
	case err != nil:
		h.log.Error().Err(err).Str("process_id", id).Msg("Failed to get process")
		apicommon.WriteError(w, r, http.StatusInternalServerError, string(hub.CodeInternal), "internal error", nil)
		return
	}

	apicommon.WriteJSON(w, http.StatusOK, p)
}
