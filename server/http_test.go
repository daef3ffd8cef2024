package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/himakhaitan/redislens/gateway"
	"github.com/himakhaitan/redislens/monitor"
	"github.com/himakhaitan/redislens/server"
	"github.com/himakhaitan/redislens/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestServer(t *testing.T) (*httptest.Server, *miniredis.Miniredis, types.ConnParams) {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := zaptest.NewLogger(t)

	gw := gateway.NewRedis(logger)
	t.Cleanup(func() { _ = gw.Close() })

	router := server.NewRouter(server.NewHandlers(gw, logger), prometheus.NewRegistry(), logger)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return ts, mr, types.ConnParams{Host: mr.Host(), Port: portOf(t, mr)}
}

func portOf(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}

func post(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestPing(t *testing.T) {
	ts, _, conn := setupTestServer(t)

	resp := post(t, http.MethodPost, ts.URL+"/api/ping", types.ConnRequest{ConnParams: conn})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var st types.StatusResponse
	decodeBody(t, resp, &st)
	assert.Equal(t, "ok", st.Status)

	bad := conn
	bad.Port = 1
	resp = post(t, http.MethodPost, ts.URL+"/api/ping", types.ConnRequest{ConnParams: bad})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var e types.ErrorResponse
	decodeBody(t, resp, &e)
	assert.Equal(t, "Could not connect to Redis server", e.Detail)
}

func TestListKeys(t *testing.T) {
	ts, mr, conn := setupTestServer(t)
	for _, k := range []string{"user:3", "user:1", "user:2", "order:1"} {
		require.NoError(t, mr.Set(k, "v"))
	}

	resp := post(t, http.MethodPost, ts.URL+"/api/keys", types.ListKeysRequest{ConnParams: conn, Pattern: "user:*", Page: 2, PerPage: 2})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing types.KeyListing
	decodeBody(t, resp, &listing)
	assert.Equal(t, []string{"user:3"}, listing.Keys)
	assert.Equal(t, 3, listing.Total)
	assert.Equal(t, 2, listing.TotalPages)
	assert.Equal(t, 2, listing.Page)

	resp = post(t, http.MethodPost, ts.URL+"/api/keys", types.ListKeysRequest{ConnParams: conn})
	decodeBody(t, resp, &listing)
	assert.Equal(t, 4, listing.Total, "an empty pattern matches every key")
}

func TestGetKey(t *testing.T) {
	ts, mr, conn := setupTestServer(t)
	require.NoError(t, mr.Set("a/b c", "hello"))
	_, err := mr.ZAdd("scores", 1.5, "ada")
	require.NoError(t, err)

	resp := post(t, http.MethodPost, ts.URL+"/api/key/a%2Fb%20c", types.ConnRequest{ConnParams: conn})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var raw types.KeyResponse
	decodeBody(t, resp, &raw)
	assert.Equal(t, "a/b c", raw.Key)
	assert.Equal(t, "string", raw.Type)
	assert.Equal(t, "hello", raw.Value)
	assert.Equal(t, int64(-1), raw.TTL)

	resp = post(t, http.MethodPost, ts.URL+"/api/key/scores", types.ConnRequest{ConnParams: conn})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &raw)
	assert.Equal(t, []any{"ada", "1.5"}, raw.Value)

	resp = post(t, http.MethodPost, ts.URL+"/api/key/missing", types.ConnRequest{ConnParams: conn})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var e types.ErrorResponse
	decodeBody(t, resp, &e)
	assert.Equal(t, "Key 'missing' not found", e.Detail)
}

func TestDeleteKey(t *testing.T) {
	ts, mr, conn := setupTestServer(t)
	require.NoError(t, mr.Set("delete_me", "bye"))

	resp := post(t, http.MethodDelete, ts.URL+"/api/key/delete_me", types.ConnRequest{ConnParams: conn})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, mr.Exists("delete_me"))

	resp = post(t, http.MethodDelete, ts.URL+"/api/key/delete_me", types.ConnRequest{ConnParams: conn})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteKeys(t *testing.T) {
	ts, mr, conn := setupTestServer(t)
	require.NoError(t, mr.Set("a", "1"))
	require.NoError(t, mr.Set("b", "2"))

	resp := post(t, http.MethodPost, ts.URL+"/api/keys/delete", types.DeleteKeysRequest{ConnParams: conn, Keys: []string{"a", "ghost", "b"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res types.BulkDeleteResponse
	decodeBody(t, resp, &res)
	assert.Equal(t, "partial", res.Status)
	assert.Equal(t, 2, res.DeletedCount)
	assert.Equal(t, 3, res.TotalCount)
	assert.Equal(t, []string{"ghost: key not found"}, res.Errors)
	assert.Equal(t, []string{"ghost"}, res.FailedKeys)

	resp = post(t, http.MethodPost, ts.URL+"/api/keys/delete", types.DeleteKeysRequest{ConnParams: conn})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e types.ErrorResponse
	decodeBody(t, resp, &e)
	assert.Equal(t, "No keys provided", e.Detail)
}

func TestExecute(t *testing.T) {
	ts, mr, conn := setupTestServer(t)

	resp := post(t, http.MethodPost, ts.URL+"/api/execute", types.ExecuteRequest{ConnParams: conn, Command: "SET", Args: []string{"k", "v"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out types.ExecuteResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, "OK", out.Result)
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	resp = post(t, http.MethodPost, ts.URL+"/api/execute", types.ExecuteRequest{ConnParams: conn, Command: "GET", Args: []string{"nope"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = types.ExecuteResponse{Result: "sentinel"}
	decodeBody(t, resp, &out)
	assert.Nil(t, out.Result)

	resp = post(t, http.MethodPost, ts.URL+"/api/execute", types.ExecuteRequest{ConnParams: conn, Command: "NOSUCH"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var e types.ErrorResponse
	decodeBody(t, resp, &e)
	assert.Contains(t, e.Detail, "Error executing command")

	resp = post(t, http.MethodPost, ts.URL+"/api/execute", types.ExecuteRequest{ConnParams: conn, Command: " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvalidJSONAndMethods(t *testing.T) {
	ts, _, _ := setupTestServer(t)

	resp, err := http.Post(ts.URL+"/api/keys", "application/json", bytes.NewBufferString(`{"pattern":`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Post(ts.URL+"/api/ping", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	resp3, err := http.Post(ts.URL+"/health", "text/plain", nil)
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp3.StatusCode)

	resp4, err := http.Get(ts.URL + "/api/unknown")
	require.NoError(t, err)
	defer resp4.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp4.StatusCode)
}

// infoGateway answers ServerInfo from a fixed field map.
type infoGateway struct {
	gateway.Gateway
	fields map[string]string
	err    error
}

func (g infoGateway) ServerInfo(ctx context.Context, conn gateway.ConnParams) (map[string]string, error) {
	return g.fields, g.err
}

func TestInfoAndStats(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gw := infoGateway{fields: map[string]string{
		"redis_version":              "7.2.4",
		"used_memory":                "2048",
		"used_memory_human":          "2.00K",
		"connected_clients":          "2",
		"total_commands_processed":   "10",
		"db0":                        "keys=5,expires=0,avg_ttl=0",
		"db2":                        "keys=9,expires=0,avg_ttl=0",
		"total_connections_received": "4",
	}}
	ts := httptest.NewServer(server.NewRouter(server.NewHandlers(gw, logger), prometheus.NewRegistry(), logger))
	defer ts.Close()

	resp := post(t, http.MethodPost, ts.URL+"/api/info", types.ConnRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info types.InfoResponse
	decodeBody(t, resp, &info)
	assert.Equal(t, "7.2.4", info.Info["redis_version"])

	resp = post(t, http.MethodPost, ts.URL+"/api/stats", types.ConnRequest{ConnParams: types.ConnParams{DB: 2}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats monitor.Stats
	decodeBody(t, resp, &stats)
	assert.Equal(t, int64(9), stats.Keys.Total)
	assert.Equal(t, int64(2048), stats.Memory.UsedMemory)
	assert.Equal(t, "2.00K", stats.Memory.UsedMemoryHuman)
	assert.Equal(t, int64(2), stats.Performance.ConnectedClients)
}

func TestInfo_GatewayError(t *testing.T) {
	logger := zaptest.NewLogger(t)
	gw := infoGateway{err: errors.New("NOAUTH Authentication required")}
	ts := httptest.NewServer(server.NewRouter(server.NewHandlers(gw, logger), prometheus.NewRegistry(), logger))
	defer ts.Close()

	resp := post(t, http.MethodPost, ts.URL+"/api/info", types.ConnRequest{})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var e types.ErrorResponse
	decodeBody(t, resp, &e)
	assert.Equal(t, "Error fetching Redis info: NOAUTH Authentication required", e.Detail)
}
