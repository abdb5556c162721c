package lobby

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const openChannelsPath = "/api/v1/open-channels"

// HTTPDirectory is a Directory served by a hub.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

var _ Directory = (*HTTPDirectory)(nil)

func NewHTTPDirectory(baseURL string, client *http.Client) *HTTPDirectory {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDirectory{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (d *HTTPDirectory) List(ctx context.Context) ([]OpenChannel, error) {
	var body struct {
		OpenChannels []OpenChannel `json:"openChannels"`
	}
	if err := d.do(ctx, http.MethodGet, openChannelsPath, nil, &body); err != nil {
		return nil, err
	}
	return body.OpenChannels, nil
}

func (d *HTTPDirectory) Publish(ctx context.Context, oc OpenChannel) error {
	if err := oc.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(oc)
	if err != nil {
		return err
	}
	return d.do(ctx, http.MethodPut, openChannelsPath+"/"+oc.Address.Hex(), payload, nil)
}

func (d *HTTPDirectory) Remove(ctx context.Context, address common.Address) error {
	return d.do(ctx, http.MethodDelete, openChannelsPath+"/"+address.Hex(), nil, nil)
}

func (d *HTTPDirectory) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
