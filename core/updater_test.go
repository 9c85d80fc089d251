package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type recordingStore struct {
	mu    sync.Mutex
	saves []*Task
}

func (s *recordingStore) Save(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, t)
	return nil
}

func (s *recordingStore) Get(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.saves) - 1; i >= 0; i-- {
		if s.saves[i].ID == id {
			return s.saves[i], nil
		}
	}
	return nil, errors.New("task not found")
}

func (s *recordingStore) ListByTenant(tenantID string, limit int) ([]*Task, error) {
	return nil, nil
}

func drainEvents(ch chan TaskEvent) []TaskEvent {
	var out []TaskEvent
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func newTestUpdater(emit chan TaskEvent, store TaskStore) *Updater {
	task := NewTask("hr", Request{Message: "onboard a technician", TenantID: "default"})
	return NewUpdater(context.Background(), task, func(o *UpdaterOptions) {
		o.Emit = emit
		o.Store = store
	})
}

func TestUpdater_WorkingTransitionsAndAppends(t *testing.T) {
	emit := make(chan TaskEvent, 16)
	up := newTestUpdater(emit, nil)

	up.Working("starting hr workflow", 25)
	up.Working("consulting records", 60)

	task := up.Task()
	if task.Status != StatusWorking {
		t.Fatalf("status = %s, want working", task.Status)
	}
	if len(task.Progress) != 2 || task.Progress[0].Percent != 25 || task.Progress[1].Message != "consulting records" {
		t.Errorf("progress not recorded: %+v", task.Progress)
	}

	events := drainEvents(emit)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Status != StatusWorking || events[0].Final || events[0].TaskID != task.ID {
		t.Errorf("first event malformed: %+v", events[0])
	}
}

func TestUpdater_CompleteRequiresArtifact(t *testing.T) {
	emit := make(chan TaskEvent, 16)
	up := newTestUpdater(emit, nil)

	up.Working("starting", 10)
	up.Complete("nothing produced")

	task := up.Task()
	if task.Status != StatusFailed {
		t.Fatalf("completion without artifacts should fail the task, got %s", task.Status)
	}
	if task.Error == nil || task.Error.Kind != KindInternalContractViolation {
		t.Errorf("error = %+v, want internal_contract_violation", task.Error)
	}
}

func TestUpdater_CompleteWithArtifact(t *testing.T) {
	emit := make(chan TaskEvent, 16)
	up := newTestUpdater(emit, nil)

	up.Working("starting", 10)
	up.AddArtifact("hr_response", "hr_response", "all set", map[string]any{"agent": "hr"})
	up.Complete("hr request handled")

	task := up.Task()
	if task.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", task.Status)
	}
	if task.Error != nil {
		t.Errorf("completed task should carry no error: %+v", task.Error)
	}
	art, ok := task.Artifacts["hr_response"]
	if !ok || art.Content != "all set" {
		t.Errorf("artifact missing or wrong: %+v", task.Artifacts)
	}

	events := drainEvents(emit)
	last := events[len(events)-1]
	if !last.Final || last.Status != StatusCompleted || last.Percent != 100 {
		t.Errorf("final event malformed: %+v", last)
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Final {
			t.Errorf("non-terminal event marked final: %+v", ev)
		}
	}
}

func TestUpdater_TerminalWritesAreDropped(t *testing.T) {
	up := newTestUpdater(nil, nil)
	up.Working("starting", 10)
	up.AddArtifact("out", "text", "v1", nil)
	up.Complete("done")

	before := up.Task()
	up.Working("late update", 99)
	up.AddArtifact("out", "text", "v2", nil)
	up.Fail(KindTimeout, "late failure")
	up.Cancel("late cancel")

	after := up.Task()
	if after.Status != StatusCompleted {
		t.Fatalf("terminal status changed to %s", after.Status)
	}
	if len(after.Progress) != len(before.Progress) {
		t.Errorf("progress grew after terminal state: %d -> %d", len(before.Progress), len(after.Progress))
	}
	if after.Artifacts["out"].Content != "v1" {
		t.Errorf("artifact overwritten after terminal state: %+v", after.Artifacts["out"])
	}
	if after.Error != nil {
		t.Errorf("error set after terminal state: %+v", after.Error)
	}
}

func TestUpdater_InputCycle(t *testing.T) {
	emit := make(chan TaskEvent, 16)
	up := newTestUpdater(emit, nil)

	if err := up.SupplyInput("too early"); err == nil {
		t.Error("expected SupplyInput to fail while task is not awaiting input")
	}

	up.Working("booking a room", 25)
	up.RequireInput("which time slot do you prefer?")
	if got := up.Task().Status; got != StatusInputRequired {
		t.Fatalf("status = %s, want input_required", got)
	}

	if err := up.SupplyInput("10:00"); err != nil {
		t.Fatalf("SupplyInput: %v", err)
	}
	if err := up.SupplyInput("11:00"); err == nil {
		t.Error("expected second SupplyInput to fail while first is pending")
	}

	answer, err := up.AwaitInput(context.Background())
	if err != nil {
		t.Fatalf("AwaitInput: %v", err)
	}
	if answer != "10:00" {
		t.Errorf("answer = %q", answer)
	}
	if got := up.Task().Status; got != StatusWorking {
		t.Errorf("status after input = %s, want working", got)
	}
}

func TestUpdater_AwaitInputHonorsContext(t *testing.T) {
	up := newTestUpdater(nil, nil)
	up.Working("booking", 10)
	up.RequireInput("need a slot")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := up.AwaitInput(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("AwaitInput error = %v, want context.Canceled", err)
	}
}

func TestUpdater_FailFromSubmittedWalksThroughWorking(t *testing.T) {
	emit := make(chan TaskEvent, 16)
	up := newTestUpdater(emit, nil)

	up.Fail(KindUnknownAgentType, "no such agent",
		TaskError{Kind: KindTimeout, Message: "target stalled"})

	task := up.Task()
	if task.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", task.Status)
	}
	if task.Error == nil || task.Error.Kind != KindUnknownAgentType || len(task.Error.Causes) != 1 {
		t.Errorf("error malformed: %+v", task.Error)
	}

	events := drainEvents(emit)
	if len(events) != 2 || events[0].Status != StatusWorking || events[1].Status != StatusFailed {
		t.Fatalf("expected working then failed events, got %+v", events)
	}
	if !events[1].Final {
		t.Error("failed event should be final")
	}
}

func TestUpdater_IllegalTransitionFailsTask(t *testing.T) {
	up := newTestUpdater(nil, nil)

	// input_required straight from submitted skips working
	up.RequireInput("premature question")

	task := up.Task()
	if task.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", task.Status)
	}
	if task.Error == nil || task.Error.Kind != KindInternalContractViolation {
		t.Fatalf("error = %+v", task.Error)
	}
	if !strings.Contains(task.Error.Message, "invalid task transition") {
		t.Errorf("message = %q", task.Error.Message)
	}
}

func TestUpdater_CancelFromNonTerminalStates(t *testing.T) {
	up := newTestUpdater(nil, nil)
	up.Cancel("caller gave up")
	if got := up.Task().Status; got != StatusCanceled {
		t.Fatalf("cancel from submitted: status = %s", got)
	}

	up = newTestUpdater(nil, nil)
	up.Working("booking", 25)
	up.RequireInput("need a slot")
	up.Cancel("caller gave up")
	if got := up.Task().Status; got != StatusCanceled {
		t.Fatalf("cancel from input_required: status = %s", got)
	}
}

func TestUpdater_PersistsEveryMutation(t *testing.T) {
	store := &recordingStore{}
	up := newTestUpdater(nil, store)

	up.Working("starting", 10)
	up.AddArtifact("out", "text", "v1", nil)
	up.Complete("done")

	store.mu.Lock()
	saves := len(store.saves)
	store.mu.Unlock()
	if saves != 3 {
		t.Fatalf("expected 3 snapshots saved, got %d", saves)
	}

	last, err := store.Get(up.TaskID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if last.Status != StatusCompleted {
		t.Errorf("persisted status = %s, want completed", last.Status)
	}
}

func TestUpdater_ChildSharesEventStream(t *testing.T) {
	emit := make(chan TaskEvent, 16)
	parent := newTestUpdater(emit, nil)
	parent.Working("routing", 10)

	child := parent.Child(context.Background(), "meeting", Request{Message: "book a room", TenantID: "default"})
	if child.TaskID() == parent.TaskID() {
		t.Fatal("child must mint its own task ID")
	}
	child.Working("checking availability", 25)

	events := drainEvents(emit)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].TaskID != child.TaskID() || events[1].AgentType != "meeting" {
		t.Errorf("child event not tagged with child identity: %+v", events[1])
	}
}
