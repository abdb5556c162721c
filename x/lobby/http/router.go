package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMux binds gorilla/mux routes.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeOpenChannels, h.handleList).Methods(http.MethodGet).Name(routeNameListOpenChannels)
	r.HandleFunc(routeOpenChannelByAddr, h.handlePublish).Methods(http.MethodPut).Name(routeNamePublishOpenChannel)
	r.HandleFunc(routeOpenChannelByAddr, h.handleRemove).Methods(http.MethodDelete).Name(routeNameRemoveOpenChannel)
}
