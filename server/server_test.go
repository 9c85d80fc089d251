package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/registry"
	"github.com/hangarhq/aeromesh/runner"
	"github.com/hangarhq/aeromesh/task"
	"github.com/hangarhq/aeromesh/tenant"
)

// ----- fixtures -----

type stubExecutor struct {
	agentType string
	run       func(ctx context.Context, req core.Request, up *core.Updater) error
}

func (s *stubExecutor) AgentType() string   { return s.agentType }
func (s *stubExecutor) Name() string        { return s.agentType + " stub" }
func (s *stubExecutor) Description() string { return "stub executor for " + s.agentType }

func (s *stubExecutor) ExecuteTask(ctx context.Context, req core.Request, up *core.Updater) error {
	if s.run != nil {
		return s.run(ctx, req, up)
	}
	up.Working("processing", 25)
	up.AddArtifact(s.agentType+"_response", s.agentType+"_response", "response from "+s.agentType, nil)
	up.Complete("done")
	return nil
}

type fixture struct {
	server *Server
	store  *task.InMemoryStore
}

func newFixture(t *testing.T, tenants *tenant.Registry, execs ...*stubExecutor) *fixture {
	t.Helper()

	reg := registry.New()
	for _, e := range execs {
		require.NoError(t, reg.Register(e))
	}

	store := task.NewInMemoryStore()
	r := runner.New(reg, func(o *runner.Options) {
		o.TaskStore = store
	})

	if tenants == nil {
		var err error
		tenants, err = tenant.NewRegistry("")
		require.NoError(t, err)
	}
	t.Cleanup(tenants.Close)

	return &fixture{
		server: New(r, tenants),
		store:  store,
	}
}

func fileTenants(t *testing.T, content string) *tenant.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	reg, err := tenant.NewRegistry(path)
	require.NoError(t, err)
	return reg
}

func do(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func doRaw(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeChat(t *testing.T, w *httptest.ResponseRecorder) ChatResponse {
	t.Helper()
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ----- chat -----

func TestServer_ChatCompletes(t *testing.T) {
	f := newFixture(t, nil, &stubExecutor{agentType: "hr"})

	w := do(f.server, "POST", "/chat", ChatRequest{Message: "hi", AgentType: "hr"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeChat(t, w)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "response from hr", resp.Response)
	assert.Equal(t, "hr", resp.AgentType)
	assert.Equal(t, "hr stub", resp.AgentName)
	assert.NotEmpty(t, resp.TaskID)
	assert.Equal(t, float64(1), resp.Metadata["artifacts_count"])
	assert.Equal(t, "default", resp.Metadata["tenant_id"])
}

func TestServer_ChatDefaultsToTenantDefaultAgent(t *testing.T) {
	tenants := fileTenants(t, "tenants:\n  - id: default\n    default_agent: hr\n")
	f := newFixture(t, tenants, &stubExecutor{agentType: "hr"}, &stubExecutor{agentType: "meeting"})

	w := do(f.server, "POST", "/chat", ChatRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeChat(t, w)
	assert.Equal(t, "hr", resp.AgentType)
}

func TestServer_ChatValidation(t *testing.T) {
	f := newFixture(t, nil, &stubExecutor{agentType: "hr"})

	// missing message
	w := do(f.server, "POST", "/chat", map[string]string{"agent_type": "hr"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// malformed body
	w = doRaw(f.server, "POST", "/chat", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ChatUnknownTenant(t *testing.T) {
	f := newFixture(t, nil, &stubExecutor{agentType: "hr"})

	w := do(f.server, "POST", "/chat", ChatRequest{Message: "hi", AgentType: "hr", TenantID: "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ChatUnknownAgent(t *testing.T) {
	f := newFixture(t, nil, &stubExecutor{agentType: "hr"})

	w := do(f.server, "POST", "/chat", ChatRequest{Message: "hi", AgentType: "finance"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ChatAgentNotEnabledForTenant(t *testing.T) {
	tenants := fileTenants(t, "tenants:\n  - id: default\n    agents: [hr]\n    default_agent: hr\n")
	f := newFixture(t, tenants, &stubExecutor{agentType: "hr"}, &stubExecutor{agentType: "meeting"})

	w := do(f.server, "POST", "/chat", ChatRequest{Message: "hi", AgentType: "meeting"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not enabled")
}

func TestServer_ChatConversationBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	blocking := &stubExecutor{
		agentType: "hr",
		run: func(ctx context.Context, req core.Request, up *core.Updater) error {
			up.Working("holding the slot", 10)
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
				return ctx.Err()
			}
			up.AddArtifact("hr_response", "hr_response", "done", nil)
			up.Complete("done")
			return nil
		},
	}
	f := newFixture(t, nil, blocking)

	body := ChatRequest{Message: "hi", AgentType: "hr", ConversationID: "c1"}
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- do(f.server, "POST", "/chat", body) }()

	<-started
	w := do(f.server, "POST", "/chat", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	first := <-done
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "completed", decodeChat(t, first).Status)
}

func TestServer_ChatFailedTaskReturns200(t *testing.T) {
	failing := &stubExecutor{
		agentType: "hr",
		run: func(ctx context.Context, req core.Request, up *core.Updater) error {
			up.Working("about to fail", 10)
			return core.NewTaskError(core.KindToolInvocation, "ledger offline")
		},
	}
	f := newFixture(t, nil, failing)

	w := do(f.server, "POST", "/chat", ChatRequest{Message: "hi", AgentType: "hr"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeChat(t, w)
	assert.Equal(t, "failed", resp.Status)
	assert.Contains(t, resp.Response, "I encountered an error")
	assert.Contains(t, resp.Response, "ledger offline")
}

// ----- tasks -----

func TestServer_TaskStatusRoute(t *testing.T) {
	f := newFixture(t, nil, &stubExecutor{agentType: "hr"})

	resp := decodeChat(t, do(f.server, "POST", "/chat", ChatRequest{Message: "hi", AgentType: "hr"}))

	w := do(f.server, "GET", "/tasks/"+resp.TaskID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap core.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, core.StatusCompleted, snap.Status)
	assert.Equal(t, resp.TaskID, snap.ID)

	assert.Equal(t, http.StatusNotFound, do(f.server, "GET", "/tasks/no-such-task", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(f.server, "DELETE", "/tasks/no-such-task", nil).Code)
}

func TestServer_TaskInputRoute(t *testing.T) {
	asking := &stubExecutor{
		agentType: "meeting",
		run: func(ctx context.Context, req core.Request, up *core.Updater) error {
			up.Working("checking", 10)
			up.RequireInput("Which room should be booked?")
			answer, err := up.AwaitInput(ctx)
			if err != nil {
				return err
			}
			up.AddArtifact("meeting_response", "meeting_response", "booked "+answer, nil)
			up.Complete("done")
			return nil
		},
	}
	f := newFixture(t, nil, asking)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- do(f.server, "POST", "/chat", ChatRequest{Message: "book a room", AgentType: "meeting"})
	}()

	var taskID string
	deadline := time.Now().Add(2 * time.Second)
	for taskID == "" {
		tasks, err := f.store.ListByTenant("default", 0)
		require.NoError(t, err)
		if len(tasks) > 0 && tasks[0].Status == core.StatusInputRequired {
			taskID = tasks[0].ID
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task never reached input_required")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// missing input body
	assert.Equal(t, http.StatusBadRequest, do(f.server, "POST", "/tasks/"+taskID+"/input", map[string]string{}).Code)

	w := do(f.server, "POST", "/tasks/"+taskID+"/input", TaskInputRequest{Input: "CONF_A1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	first := <-done
	require.Equal(t, http.StatusOK, first.Code)
	resp := decodeChat(t, first)
	assert.Equal(t, "completed", resp.Status)
	assert.Contains(t, resp.Response, "CONF_A1")

	// the task is terminal now, further input is rejected
	assert.Equal(t, http.StatusNotFound, do(f.server, "POST", "/tasks/"+taskID+"/input", TaskInputRequest{Input: "again"}).Code)
}

func TestServer_TaskCancelRoute(t *testing.T) {
	blocking := &stubExecutor{
		agentType: "hr",
		run: func(ctx context.Context, req core.Request, up *core.Updater) error {
			up.Working("long haul", 10)
			<-ctx.Done()
			return ctx.Err()
		},
	}
	f := newFixture(t, nil, blocking)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- do(f.server, "POST", "/chat", ChatRequest{Message: "hi", AgentType: "hr"}) }()

	var taskID string
	deadline := time.Now().Add(2 * time.Second)
	for taskID == "" {
		tasks, err := f.store.ListByTenant("default", 0)
		require.NoError(t, err)
		if len(tasks) > 0 && tasks[0].Status == core.StatusWorking {
			taskID = tasks[0].ID
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task never started working")
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, http.StatusOK, do(f.server, "DELETE", "/tasks/"+taskID, nil).Code)

	first := <-done
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "canceled", decodeChat(t, first).Status)
}

// ----- listings -----

func TestServer_AgentsRoutes(t *testing.T) {
	f := newFixture(t, nil, &stubExecutor{agentType: "hr"}, &stubExecutor{agentType: "meeting"})

	w := do(f.server, "GET", "/agents", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Agents  []registry.Entry `json:"agents"`
		Tenants []string         `json:"tenants"`
		Status  string           `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Agents, 2)
	assert.Equal(t, "hr", listing.Agents[0].AgentType)
	assert.Equal(t, []string{"default"}, listing.Tenants)
	assert.Equal(t, "operational", listing.Status)

	detail := do(f.server, "GET", "/agents/hr", nil)
	require.Equal(t, http.StatusOK, detail.Code)
	var entry registry.Entry
	require.NoError(t, json.Unmarshal(detail.Body.Bytes(), &entry))
	assert.Equal(t, "hr stub", entry.Name)

	assert.Equal(t, http.StatusNotFound, do(f.server, "GET", "/agents/ghost", nil).Code)
}

func TestServer_AgentChatRoute(t *testing.T) {
	f := newFixture(t, nil, &stubExecutor{agentType: "hr"}, &stubExecutor{agentType: "meeting"})

	w := do(f.server, "POST", "/agents/meeting/chat", ChatRequest{Message: "hi", AgentType: "hr"})
	require.Equal(t, http.StatusOK, w.Code)

	// the path overrides the body's agent_type
	assert.Equal(t, "meeting", decodeChat(t, w).AgentType)
}

func TestServer_TenantsRoutes(t *testing.T) {
	tenants := fileTenants(t, "tenants:\n  - id: skyline\n    name: Skyline Airways\n  - id: nimbus\n")
	f := newFixture(t, tenants, &stubExecutor{agentType: "hr"})

	w := do(f.server, "GET", "/tenants", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Tenants []tenant.Tenant `json:"tenants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Tenants, 2)
	assert.Equal(t, "skyline", listing.Tenants[0].ID)

	detail := do(f.server, "GET", "/tenants/skyline", nil)
	require.Equal(t, http.StatusOK, detail.Code)
	var ten tenant.Tenant
	require.NoError(t, json.Unmarshal(detail.Body.Bytes(), &ten))
	assert.Equal(t, "Skyline Airways", ten.Name)

	assert.Equal(t, http.StatusNotFound, do(f.server, "GET", "/tenants/ghost", nil).Code)
}

func TestServer_HealthAndIndex(t *testing.T) {
	f := newFixture(t, nil, &stubExecutor{agentType: "hr"}, &stubExecutor{agentType: "meeting"})

	w := do(f.server, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(2), health["agents"])
	assert.NotEmpty(t, health["time"])

	idx := do(f.server, "GET", "/", nil)
	require.Equal(t, http.StatusOK, idx.Code)
	var index map[string]any
	require.NoError(t, json.Unmarshal(idx.Body.Bytes(), &index))
	assert.Contains(t, index["available_agents"], "hr")
}
