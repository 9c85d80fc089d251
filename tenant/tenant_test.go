package tenant

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleFile = `tenants:
  - id: skyline
    name: Skyline Airways
    agents:
      - orchestrator
      - hr
    default_agent: hr
  - id: nimbus
`

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "tenants.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write tenant file: %v", err)
	}
	return path
}

// ----- loading -----

func TestRegistry_DefaultWhenNoFile(t *testing.T) {
	r, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer r.Close()

	ten, err := r.Get(DefaultID)
	if err != nil {
		t.Fatalf("Get default: %v", err)
	}
	if ten.DefaultAgent != "orchestrator" {
		t.Fatalf("expected orchestrator default agent, got %q", ten.DefaultAgent)
	}
	if !ten.Allows("hr") || !ten.Allows("supply_chain") {
		t.Fatal("default tenant should allow every agent")
	}
	if len(r.List()) != 1 {
		t.Fatalf("expected single built-in tenant, got %d", len(r.List()))
	}

	if _, err := r.Get("skyline"); !errors.Is(err, ErrUnknownTenant) {
		t.Fatalf("expected ErrUnknownTenant, got %v", err)
	}
}

func TestRegistry_LoadsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), sampleFile)
	r, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer r.Close()

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 tenants, got %d", len(list))
	}
	if list[0].ID != "skyline" || list[1].ID != "nimbus" {
		t.Fatalf("expected file order, got %s, %s", list[0].ID, list[1].ID)
	}

	skyline, err := r.Get("skyline")
	if err != nil {
		t.Fatalf("Get skyline: %v", err)
	}
	if skyline.Name != "Skyline Airways" || skyline.DefaultAgent != "hr" {
		t.Fatalf("unexpected skyline tenant: %+v", skyline)
	}
	if !skyline.Allows("hr") || skyline.Allows("meeting") {
		t.Fatal("skyline should allow only its listed agents")
	}

	// nimbus omits everything but the id
	nimbus, err := r.Get("nimbus")
	if err != nil {
		t.Fatalf("Get nimbus: %v", err)
	}
	if nimbus.Name != "nimbus" {
		t.Fatalf("expected name to default to id, got %q", nimbus.Name)
	}
	if nimbus.DefaultAgent != "orchestrator" {
		t.Fatalf("expected orchestrator default agent, got %q", nimbus.DefaultAgent)
	}
	if !nimbus.Allows("meeting") {
		t.Fatal("tenant without an agent list should allow every agent")
	}
}

func TestRegistry_RejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewRegistry(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	empty := writeFile(t, dir, "tenants: []\n")
	if _, err := NewRegistry(empty); err == nil {
		t.Fatal("expected error for empty tenant list")
	}

	dup := writeFile(t, dir, "tenants:\n  - id: a\n  - id: a\n")
	if _, err := NewRegistry(dup); err == nil {
		t.Fatal("expected error for duplicate tenant id")
	}

	noID := writeFile(t, dir, "tenants:\n  - name: Nameless\n")
	if _, err := NewRegistry(noID); err == nil {
		t.Fatal("expected error for tenant without id")
	}
}

// ----- reload -----

func TestRegistry_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, sampleFile)
	r, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer r.Close()

	if err := os.WriteFile(path, []byte("tenants: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err == nil {
		t.Fatal("expected reload error for broken yaml")
	}

	if _, err := r.Get("skyline"); err != nil {
		t.Fatalf("previous snapshot should survive a failed reload: %v", err)
	}
}

func TestRegistry_WatcherAppliesEdits(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, sampleFile)
	r, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer r.Close()

	updated := sampleFile + "  - id: stratus\n    name: Stratus Cargo\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		if _, err := r.Get("stratus"); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("watcher did not apply the edited tenant file")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
