// Package testserver runs a full crisisdesk HTTP stack over an in-memory
// SQLite database for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/crisisdesk/internal/clock"
	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/rpggio/crisisdesk/internal/mcp"
	"github.com/rpggio/crisisdesk/internal/metrics"
	"github.com/rpggio/crisisdesk/internal/sqlite"
	"github.com/rpggio/crisisdesk/internal/transport"
)

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Clock   *clock.Manual
	Service *crisis.Service
	Token   string
	Caller  string

	apiKeys *sqlite.APIKeyRepository
}

// New starts a server whose /rpc and /mcp endpoints both require a bearer
// token. token is registered for caller.
func New(t *testing.T, token, caller string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	clk := clock.NewManual(1_000)
	svc := crisis.NewService(
		sqlite.NewCrisisRepository(db),
		sqlite.NewCounterRepository(db, sqlite.CrisisUpdateCounter),
		clk,
		nil,
	)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	mcpServer := mcp.NewServer(mcp.Config{
		Updates:       svc,
		Resolver:      apiKeys,
		AuthEnabled:   true,
		TransportMode: "http",
		Version:       "test",
	})
	router := transport.NewServer(
		mcp.NewHandler(svc, nil),
		transport.AuthMiddleware(apiKeys),
		transport.WithMCP(mcp.NewHTTPHandler(mcpServer, time.Minute)),
		transport.WithMetrics(metrics.Handler()),
	)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:  server,
		DB:      db,
		Clock:   clk,
		Service: svc,
		Token:   token,
		Caller:  caller,
		apiKeys: apiKeys,
	}

	require.NoError(t, ts.AddAPIKey(token, caller))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another token.
func (ts *TestServer) AddAPIKey(token, caller string) error {
	return ts.apiKeys.Add(context.Background(), token, caller, "test")
}
