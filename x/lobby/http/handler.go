// Package http serves a lobby directory.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apicommon "github.com/compose-network/nitro-wallet/server/api"
	"github.com/compose-network/nitro-wallet/x/lobby"
)

type Handler struct {
	dir lobby.Directory
	log zerolog.Logger
}

func NewHandler(dir lobby.Directory, log zerolog.Logger) *Handler {
	return &Handler{
		dir: dir,
		log: log.With().Str("component", "lobby-http").Logger(),
	}
}

type listResp struct {
	OpenChannels []lobby.OpenChannel `json:"openChannels"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	open, err := h.dir.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list open channels")
		apicommon.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, listResp{OpenChannels: open})
}

// handlePublish stores the body under the address in the path. The body's
// address, when set, must match.
func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	var oc lobby.OpenChannel
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&oc); err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request", nil)
		return
	}
	if oc.Address != (common.Address{}) && oc.Address != addr {
		apicommon.WriteError(w, r, http.StatusBadRequest, "address_mismatch", "body address does not match path", nil)
		return
	}
	oc.Address = addr

	err := h.dir.Publish(r.Context(), oc)
	switch {
	case errors.Is(err, lobby.ErrInvalidOpenChannel):
		apicommon.WriteError(w, r, http.StatusUnprocessableEntity, "invalid_open_channel", err.Error(), nil)
		return
	case err != nil:
		h.log.Error().Err(err).Str("address", addr.Hex()).Msg("Failed to publish open channel")
		apicommon.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	if err := h.dir.Remove(r.Context(), addr); err != nil {
		h.log.Error().Err(err).Str("address", addr.Hex()).Msg("Failed to remove open channel")
		apicommon.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := mux.Vars(r)["address"]
	if !common.IsHexAddress(raw) {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_address", "bad address", nil)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
