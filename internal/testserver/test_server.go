// Package testserver runs the full JSON-RPC stack over an in-memory sqlite
// database for functional tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/hourly/internal/app"
	"github.com/rpggio/hourly/internal/clock"
	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/mcp"
	"github.com/rpggio/hourly/internal/sqlite"
	"github.com/rpggio/hourly/internal/transport"
	"github.com/stretchr/testify/require"
)

// Start is the manual clock's initial reading.
var Start = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Clock  *clock.Manual
}

// New starts a server whose clock only moves when the test advances it.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	clk := clock.NewManual(Start)
	a := app.New(app.SQLiteStores(db), nil, app.WithClock(clk))

	handler := mcp.NewHandler(mcp.Services{
		Contracts: a.Contracts,
		Tracking:  a.Tracking,
		Payments:  a.Payments,
		Reports:   a.Reports,
		Activity:  a.Activity,
	})
	server := httptest.NewServer(transport.NewServer(handler, transport.AuthMiddleware(a.Stores.APIKeys), nil))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{Server: server, App: a, Clock: clk}
}

// AddAPIKey registers token for actor.
func (ts *TestServer) AddAPIKey(t *testing.T, token string, actor contract.Actor) {
	t.Helper()
	require.NoError(t, ts.App.Stores.APIKeys.Add(context.Background(), token, actor, "test"))
}

// Call posts one JSON-RPC request and returns the decoded response.
func (ts *TestServer) Call(t *testing.T, token, method string, params any) transport.Response {
	t.Helper()

	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(transport.Request{JSONRPC: "2.0", Method: method, Params: raw, ID: 1})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Result calls method, requires success and decodes the result into out.
func (ts *TestServer) Result(t *testing.T, token, method string, params, out any) {
	t.Helper()
	resp := ts.Call(t, token, method, params)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	if out == nil {
		return
	}
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// ErrorCode calls method, requires failure and returns the domain code.
func (ts *TestServer) ErrorCode(t *testing.T, token, method string, params any) string {
	t.Helper()
	resp := ts.Call(t, token, method, params)
	require.NotNil(t, resp.Error, "%s unexpectedly succeeded", method)
	data, ok := resp.Error.Data.(map[string]any)
	require.True(t, ok, "error without code: %+v", resp.Error)
	code, _ := data["code"].(string)
	return code
}
