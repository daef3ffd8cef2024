package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/himakhaitan/redislens/types"
)

// HTTP is a Gateway that talks to a redislensd server.
type HTTP struct {
	baseURL string
	client  *http.Client
}

var _ Gateway = (*HTTP)(nil)

func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTP) BaseURL() string { return h.baseURL }

func (h *HTTP) Ping(ctx context.Context, conn ConnParams) error {
	var out types.StatusResponse
	return h.do(ctx, http.MethodPost, "/api/ping", types.ConnRequest{ConnParams: conn}, &out)
}

func (h *HTTP) ListKeys(ctx context.Context, conn ConnParams, pattern string, page, pageSize int) (KeyListing, error) {
	req := types.ListKeysRequest{ConnParams: conn, Pattern: pattern, Page: page, PerPage: pageSize}
	var out KeyListing
	if err := h.do(ctx, http.MethodPost, "/api/keys", req, &out); err != nil {
		return KeyListing{}, err
	}
	return out, nil
}

func (h *HTTP) GetKey(ctx context.Context, conn ConnParams, key string) (RawKey, error) {
	var out RawKey
	if err := h.do(ctx, http.MethodPost, keyPath(key), types.ConnRequest{ConnParams: conn}, &out); err != nil {
		return RawKey{}, err
	}
	return out, nil
}

func (h *HTTP) DeleteKey(ctx context.Context, conn ConnParams, key string) error {
	var out types.StatusResponse
	return h.do(ctx, http.MethodDelete, keyPath(key), types.ConnRequest{ConnParams: conn}, &out)
}

func (h *HTTP) DeleteKeys(ctx context.Context, conn ConnParams, keys []string) (BulkDeleteResult, error) {
	if len(keys) == 0 {
		return BulkDeleteResult{}, ErrNoKeys
	}
	var out BulkDeleteResult
	if err := h.do(ctx, http.MethodPost, "/api/keys/delete", types.DeleteKeysRequest{ConnParams: conn, Keys: keys}, &out); err != nil {
		return BulkDeleteResult{}, err
	}
	return out, nil
}

func (h *HTTP) Execute(ctx context.Context, conn ConnParams, command string, args []string) (any, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}
	if args == nil {
		args = []string{}
	}
	var out types.ExecuteResponse
	if err := h.do(ctx, http.MethodPost, "/api/execute", types.ExecuteRequest{ConnParams: conn, Command: command, Args: args}, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (h *HTTP) ServerInfo(ctx context.Context, conn ConnParams) (map[string]string, error) {
	var out types.InfoResponse
	if err := h.do(ctx, http.MethodPost, "/api/info", types.ConnRequest{ConnParams: conn}, &out); err != nil {
		return nil, err
	}
	return out.Info, nil
}

// Health checks the API server itself, without touching Redis.
func (h *HTTP) Health(ctx context.Context) error {
	return h.do(ctx, http.MethodGet, "/health", nil, nil)
}

func keyPath(key string) string {
	return "/api/key/" + url.PathEscape(key)
}

func (h *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server at %s: %w", h.baseURL, err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e types.ErrorResponse
		_ = dec.Decode(&e)
		if resp.StatusCode == http.StatusNotFound {
			if e.Detail == "" {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %s", ErrNotFound, e.Detail)
		}
		return &RemoteError{Status: resp.StatusCode, Detail: e.Detail}
	}

	if out == nil {
		return nil
	}
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
