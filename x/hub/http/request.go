package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// createProcessReq is the JSON schema for POST routeProcesses.
type createProcessReq struct {
	ProcessID    string          `json:"processId,omitempty"`
	AppChannelID *common.Address `json:"appChannelId"`
	TheirAddress *common.Address `json:"theirAddress"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
