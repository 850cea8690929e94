package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/crisisdesk/internal/mcp"
	"github.com/rpggio/crisisdesk/internal/metrics"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	err    error
}

func (h *testHandler) Handle(_ context.Context, caller, method string, params json.RawMessage) (any, error) {
	h.method = method
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"caller": caller}, nil
}

func postRPC(t *testing.T, url, token, body string) Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(StaticResolver{"token": "A"})))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, "token", `{"jsonrpc":"2.0","method":"list_crisis_updates","id":1}`)
	require.Nil(t, resp.Error)
	require.Equal(t, map[string]any{"caller": "A"}, resp.Result)
	require.Equal(t, "list_crisis_updates", handler.method)
}

func TestHTTPServer_RPCUnauthorized(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, AuthMiddleware(StaticResolver{"token": "A"})))
	t.Cleanup(server.Close)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/rpc",
		bytes.NewBufferString(`{"jsonrpc":"2.0","method":"ping","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPServer_RPCErrors(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, StaticCallerMiddleware("A")))
	t.Cleanup(server.Close)

	handler.err = &mcp.APIError{Code: mcp.CodeNotFound, Message: "crisis update id=3: crisis update not found"}
	resp := postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"get_crisis_update","params":{"id":3},"id":1}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrServerCode, resp.Error.Code)
	data, ok := resp.Error.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, mcp.CodeNotFound, data["code"])

	handler.err = mcp.ErrUnknownMethod
	resp = postRPC(t, server.URL, "", `{"jsonrpc":"2.0","method":"nope","id":2}`)
	require.Equal(t, ErrMethodNotFound, resp.Error.Code)

	resp = postRPC(t, server.URL, "", `{"jsonrpc":`)
	require.Equal(t, ErrParseCode, resp.Error.Code)

	resp = postRPC(t, server.URL, "", `{"jsonrpc":"1.0","method":"ping"}`)
	require.Equal(t, ErrInvalidReq, resp.Error.Code)
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, nil))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestHTTPServer_Metrics(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, nil, WithMetrics(metrics.Handler())))
	t.Cleanup(server.Close)

	_, err := http.Get(server.URL + "/health")
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "crisisdesk_http_requests_total")
}

func TestHTTPServer_MCPMount(t *testing.T) {
	mounted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	server := httptest.NewServer(NewServer(&testHandler{}, nil, WithMCP(mounted)))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}
