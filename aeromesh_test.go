package aeromesh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangarhq/aeromesh/config"
	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/logging"
	"github.com/hangarhq/aeromesh/tenant"
)

func testConfig() config.Config {
	cfg := *config.Default()
	cfg.Model.Provider = "mock"
	cfg.Storage.Driver = "memory"
	return cfg
}

func newMesh(t *testing.T, cfg config.Config) *AeroMesh {
	t.Helper()
	mesh, err := New(func(o *Options) {
		o.Config = cfg
		o.Logger = logging.NoOpLogger{}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mesh.Close() })
	return mesh
}

// ----- assembly -----

func TestNew_RegistersAgentFleet(t *testing.T) {
	mesh := newMesh(t, testConfig())

	entries := mesh.Agents()
	require.Len(t, entries, 4)
	assert.Equal(t, "orchestrator", entries[0].AgentType)
	assert.Equal(t, "hr", entries[1].AgentType)
	assert.Equal(t, "meeting", entries[2].AgentType)
	assert.Equal(t, "supply_chain", entries[3].AgentType)
	assert.Contains(t, entries[1].Keywords, "certification")
	assert.Contains(t, entries[3].Keywords, "procurement")

	ten, err := mesh.Tenants().Get(tenant.DefaultID)
	require.NoError(t, err)
	assert.Equal(t, "orchestrator", ten.DefaultAgent)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Model.Provider = "quantum"

	_, err := New(func(o *Options) { o.Config = cfg })
	require.ErrorContains(t, err, "unknown model provider")
}

func TestNew_UnknownStorageDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "tape"

	_, err := New(func(o *Options) { o.Config = cfg })
	require.ErrorContains(t, err, "unknown storage driver")
}

func TestNew_SQLiteStore(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.Path = t.TempDir() + "/tasks.db"
	mesh := newMesh(t, cfg)

	task, err := mesh.Submit(context.Background(), "hr", core.Request{Message: "track pilot certification"})
	require.NoError(t, err)

	stored, err := mesh.Status(task.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, stored.Status)
}

// ----- submission -----

func TestAeroMesh_SubmitDirect(t *testing.T) {
	mesh := newMesh(t, testConfig())

	task, err := mesh.Submit(context.Background(), "hr", core.Request{
		Message:  "Onboard a new employee",
		TenantID: "default",
		UserID:   "amy",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, task.Status)
	require.Contains(t, task.Artifacts, "hr_response")
}

func TestAeroMesh_SubmitThroughOrchestrator(t *testing.T) {
	mesh := newMesh(t, testConfig())

	task, err := mesh.Submit(context.Background(), "orchestrator", core.Request{
		Message:  "Onboard a new employee and track their certification",
		TenantID: "default",
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, task.Status)

	art, ok := task.PrimaryArtifact()
	require.True(t, ok)
	assert.Equal(t, "orchestrated_response", art.Name)

	composite, ok := art.Content.(map[string]any)
	require.True(t, ok)
	responses, ok := composite["responses"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, responses, "hr")
}

func TestAeroMesh_SubmitStream(t *testing.T) {
	mesh := newMesh(t, testConfig())

	taskID, events, errs, err := mesh.SubmitStream(context.Background(), "meeting", core.Request{
		Message:        "book CONF_A1 for the safety briefing",
		ConversationID: "conv-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	var last core.TaskEvent
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				require.True(t, last.Final)
				assert.Equal(t, core.StatusCompleted, last.Status)
				require.Empty(t, errs)
				return
			}
			last = ev
		case <-deadline:
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestAeroMesh_CloseIdempotent(t *testing.T) {
	mesh := newMesh(t, testConfig())
	require.NoError(t, mesh.Close())
	require.NoError(t, mesh.Close())
}
