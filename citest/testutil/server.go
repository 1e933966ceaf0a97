// Package testutil provides the integration-test harness: an in-process
// codeassist server backed by a scripted engine, plus an HTTP client for it.
package testutil

import (
	"net/http/httptest"
	"os"

	"github.com/codeassist-ai/codeassist/internal/event"
	"github.com/codeassist-ai/codeassist/internal/model"
	"github.com/codeassist-ai/codeassist/internal/server"
	"github.com/codeassist-ai/codeassist/internal/session"
	"github.com/codeassist-ai/codeassist/pkg/types"
)

// TestServer wraps an in-process server instance for integration tests.
type TestServer struct {
	Server  *server.Server
	BaseURL string
	Bus     *event.Bus
	Store   *session.Store
	Models  *model.Manager
	Engine  *ScriptedEngine

	httpSrv *httptest.Server
	tempDir string
}

// StartTestServer creates and starts a test server on an ephemeral port.
func StartTestServer() (*TestServer, error) {
	tempDir, err := os.MkdirTemp("", "codeassist-citest-*")
	if err != nil {
		return nil, err
	}

	bus := event.NewBus()
	store := session.NewStore(session.WithBus(bus))
	eng := NewScriptedEngine("scripted ", "response")
	models := model.NewManager(&ScriptedLoader{Engine: eng}, bus)

	appConfig := &types.Config{
		Model:                "scripted/scripted-model",
		MaxHistory:           10,
		ContextFiles:         5,
		ContextCharBudget:    24000,
		ContextRefreshWindow: 3,
		UploadDir:            tempDir,
	}

	srv, err := server.New(server.DefaultConfig(), appConfig, store, models, bus)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	httpSrv := httptest.NewServer(srv.Handler())

	return &TestServer{
		Server:  srv,
		BaseURL: httpSrv.URL,
		Bus:     bus,
		Store:   store,
		Models:  models,
		Engine:  eng,
		httpSrv: httpSrv,
		tempDir: tempDir,
	}, nil
}

// Client returns an HTTP client bound to the server.
func (ts *TestServer) Client() *TestClient {
	return NewTestClient(ts.BaseURL)
}

// Close shuts the server down and removes its temp state.
func (ts *TestServer) Close() {
	ts.httpSrv.Close()
	ts.Bus.Close()
	os.RemoveAll(ts.tempDir)
}
