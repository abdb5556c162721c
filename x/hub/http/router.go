package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMux binds gorilla/mux routes.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeActions, h.handleAction).Methods(http.MethodPost).Name(routeNameActions)
	r.HandleFunc(routeProcesses, h.handleCreateProcess).Methods(http.MethodPost).Name(routeNameCreateProcess)
	r.HandleFunc(routeProcessByID, h.handleGetProcess).Methods(http.MethodGet).Name(routeNameProcessByID)
}
