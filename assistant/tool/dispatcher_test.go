package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"genia/assistant/contract"
	"genia/assistant/match"
	"genia/todo"
)

// memStore is an in-memory Store + match.ActiveLister for dispatch tests.
type memStore struct {
	nextID    int64
	tasks     []todo.Task
	failEverything error
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (m *memStore) Create(ctx context.Context, owner string, text string) (todo.Task, error) {
	if m.failEverything != nil {
		return todo.Task{}, m.failEverything
	}
	task := todo.Task{ID: m.nextID, UserID: owner, Text: text}
	m.nextID++
	m.tasks = append(m.tasks, task)
	return task, nil
}

func (m *memStore) List(ctx context.Context, owner string) ([]todo.Task, error) {
	if m.failEverything != nil {
		return nil, m.failEverything
	}
	out := make([]todo.Task, 0)
	for _, task := range m.tasks {
		if task.UserID == owner {
			out = append(out, task)
		}
	}
	return out, nil
}

func (m *memStore) ListActive(ctx context.Context, owner string) ([]todo.Task, error) {
	if m.failEverything != nil {
		return nil, m.failEverything
	}
	out := make([]todo.Task, 0)
	for _, task := range m.tasks {
		if task.UserID == owner && !task.Completed {
			out = append(out, task)
		}
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, owner string, id int64) (todo.Task, error) {
	for _, task := range m.tasks {
		if task.ID == id && task.UserID == owner {
			return task, nil
		}
	}
	return todo.Task{}, fmt.Errorf("%w: id=%d", contract.ErrNotFound, id)
}

func (m *memStore) Complete(ctx context.Context, owner string, id int64) error {
	for i, task := range m.tasks {
		if task.ID == id && task.UserID == owner {
			m.tasks[i].Completed = true
			return nil
		}
	}
	return fmt.Errorf("%w: id=%d", contract.ErrNotFound, id)
}

func (m *memStore) Delete(ctx context.Context, owner string, id int64) error {
	for i, task := range m.tasks {
		if task.ID == id && task.UserID == owner {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: id=%d", contract.ErrNotFound, id)
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) Broadcast(event string) {
	r.events = append(r.events, event)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *memStore, *recordingNotifier) {
	t.Helper()

	store := newMemStore()
	notifier := &recordingNotifier{}
	dispatcher, err := NewDispatcher(store, match.New(store), notifier)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return dispatcher, store, notifier
}

func TestDispatchAddThenList(t *testing.T) {
	t.Parallel()

	dispatcher, _, notifier := newTestDispatcher(t)
	ctx := context.Background()

	added, err := dispatcher.Dispatch(ctx, "alice", contract.TodoRequest{
		Action: contract.ActionAdd,
		Task:   "buy milk",
	})
	if err != nil {
		t.Fatalf("dispatch add: %v", err)
	}
	if added.Status != "added" || added.Task != "buy milk" {
		t.Fatalf("unexpected add result %+v", added)
	}

	listed, err := dispatcher.Dispatch(ctx, "alice", contract.TodoRequest{Action: contract.ActionList})
	if err != nil {
		t.Fatalf("dispatch list: %v", err)
	}
	if len(listed.Tasks) != 1 {
		t.Fatalf("expected one task, got %+v", listed.Tasks)
	}
	if listed.Tasks[0].Completed {
		t.Fatal("new task must not be completed")
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected one broadcast, got %v", notifier.events)
	}
	var event map[string]any
	if err := json.Unmarshal([]byte(notifier.events[0]), &event); err != nil {
		t.Fatalf("event payload is not JSON: %v", err)
	}
	if event["action"] != "added" || event["task"] != "buy milk" {
		t.Fatalf("unexpected event %v", event)
	}
}

func TestDispatchAddRequiresDescription(t *testing.T) {
	t.Parallel()

	dispatcher, store, notifier := newTestDispatcher(t)

	result, err := dispatcher.Dispatch(context.Background(), "alice", contract.TodoRequest{
		Action: contract.ActionAdd,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Error == "" {
		t.Fatal("expected a validation failure in the result")
	}
	if len(store.tasks) != 0 || len(notifier.events) != 0 {
		t.Fatal("failed add must not mutate or broadcast")
	}
}

func TestDispatchCompleteByFuzzyReference(t *testing.T) {
	t.Parallel()

	dispatcher, store, notifier := newTestDispatcher(t)
	ctx := context.Background()

	for _, text := range []string{"fix the login bug", "buy milk"} {
		if _, err := dispatcher.Dispatch(ctx, "alice", contract.TodoRequest{
			Action: contract.ActionAdd,
			Task:   text,
		}); err != nil {
			t.Fatalf("dispatch add: %v", err)
		}
	}

	result, err := dispatcher.Dispatch(ctx, "alice", contract.TodoRequest{
		Action: contract.ActionComplete,
		Task:   "fix login",
	})
	if err != nil {
		t.Fatalf("dispatch complete: %v", err)
	}
	if result.Status != "completed" || result.Task != "fix the login bug" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !store.tasks[0].Completed {
		t.Fatal("resolved task must be completed")
	}
	if store.tasks[1].Completed {
		t.Fatal("unrelated task must stay open")
	}
	if len(notifier.events) != 3 {
		t.Fatalf("expected three broadcasts, got %v", notifier.events)
	}
}

func TestDispatchCompleteNoSimilarTaskLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	dispatcher, store, notifier := newTestDispatcher(t)
	ctx := context.Background()

	for _, text := range []string{"fix the login bug", "buy milk"} {
		if _, err := dispatcher.Dispatch(ctx, "alice", contract.TodoRequest{
			Action: contract.ActionAdd,
			Task:   text,
		}); err != nil {
			t.Fatalf("dispatch add: %v", err)
		}
	}
	broadcastsBefore := len(notifier.events)

	result, err := dispatcher.Dispatch(ctx, "alice", contract.TodoRequest{
		Action: contract.ActionComplete,
		Task:   "nonexistent wombat herding",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Error == "" {
		t.Fatal("expected a match failure in the result")
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected both active task texts, got %v", result.Candidates)
	}
	for _, task := range store.tasks {
		if task.Completed {
			t.Fatal("no task may be mutated on a match failure")
		}
	}
	if len(notifier.events) != broadcastsBefore {
		t.Fatal("match failure must not broadcast")
	}
}

func TestDispatchExplicitIDOverridesDescription(t *testing.T) {
	t.Parallel()

	dispatcher, store, _ := newTestDispatcher(t)
	ctx := context.Background()

	for _, text := range []string{"buy milk", "fix the login bug"} {
		if _, err := dispatcher.Dispatch(ctx, "alice", contract.TodoRequest{
			Action: contract.ActionAdd,
			Task:   text,
		}); err != nil {
			t.Fatalf("dispatch add: %v", err)
		}
	}

	// The description points at task 2, the identifier at task 1; the
	// identifier must win.
	result, err := dispatcher.Dispatch(ctx, "alice", contract.TodoRequest{
		Action: contract.ActionDelete,
		Task:   "fix the login bug",
		TaskID: 1,
	})
	if err != nil {
		t.Fatalf("dispatch delete: %v", err)
	}
	if result.Status != "deleted" || result.TaskID != 1 || result.Task != "buy milk" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(store.tasks) != 1 || store.tasks[0].Text != "fix the login bug" {
		t.Fatalf("wrong task deleted: %+v", store.tasks)
	}
}

func TestDispatchMutationWithoutReferenceFailsValidation(t *testing.T) {
	t.Parallel()

	dispatcher, _, _ := newTestDispatcher(t)

	result, err := dispatcher.Dispatch(context.Background(), "alice", contract.TodoRequest{
		Action: contract.ActionDelete,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Error == "" {
		t.Fatal("expected a validation failure in the result")
	}
}

func TestDispatchUnknownIDIsDataNotFault(t *testing.T) {
	t.Parallel()

	dispatcher, _, _ := newTestDispatcher(t)

	result, err := dispatcher.Dispatch(context.Background(), "alice", contract.TodoRequest{
		Action: contract.ActionComplete,
		TaskID: 42,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Error == "" {
		t.Fatal("expected a not-found message in the result")
	}
}

func TestDispatchStorageFaultPropagates(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	dispatcher, err := NewDispatcher(store, match.New(store), nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	store.failEverything = errors.New("disk on fire")

	if _, err := dispatcher.Dispatch(context.Background(), "alice", contract.TodoRequest{
		Action: contract.ActionAdd,
		Task:   "buy milk",
	}); err == nil {
		t.Fatal("expected storage fault to propagate")
	}
}

func TestDispatchUnknownActionIsData(t *testing.T) {
	t.Parallel()

	dispatcher, _, _ := newTestDispatcher(t)

	result, err := dispatcher.Dispatch(context.Background(), "alice", contract.TodoRequest{Action: "archive"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if result.Error == "" {
		t.Fatal("expected an unknown-action message in the result")
	}
}
