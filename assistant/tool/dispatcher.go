// Package tool executes structured todo_tool invocations against the
// task store. Tool-level failures (validation, not-found, ambiguous
// reference) are data in the Result so the model can relay them to the
// user; storage faults are returned as errors and abort the answer.
package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"genia/assistant/contract"
	"genia/assistant/match"
	"genia/events"
	"genia/todo"
)

// Store is the slice of the task store the dispatcher mutates.
type Store interface {
	Create(ctx context.Context, owner string, text string) (todo.Task, error)
	List(ctx context.Context, owner string) ([]todo.Task, error)
	Get(ctx context.Context, owner string, id int64) (todo.Task, error)
	Complete(ctx context.Context, owner string, id int64) error
	Delete(ctx context.Context, owner string, id int64) error
}

// Resolver maps a free-text task reference to a concrete task.
type Resolver interface {
	Resolve(ctx context.Context, owner string, description string) (match.Result, error)
}

// Notifier receives the encoded task-change event after a successful
// mutation. Delivery is best-effort and never fails the dispatch.
type Notifier interface {
	Broadcast(event string)
}

// Result is the tool output handed back to the model. Exactly one of
// the success fields or Error is meaningful per action.
type Result struct {
	Status     string      `json:"status,omitempty"`
	Task       string      `json:"task,omitempty"`
	TaskID     int64       `json:"task_id,omitempty"`
	Tasks      []todo.Task `json:"tasks,omitempty"`
	Error      string      `json:"error,omitempty"`
	Candidates []string    `json:"candidates,omitempty"`
}

type Dispatcher struct {
	store    Store
	resolver Resolver
	notifier Notifier
}

func NewDispatcher(store Store, resolver Resolver, notifier Notifier) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("task store is required")
	}
	if resolver == nil {
		return nil, errors.New("task resolver is required")
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Dispatcher{
		store:    store,
		resolver: resolver,
		notifier: notifier,
	}, nil
}

// Dispatch runs one tool invocation for owner. The returned error is a
// storage or other infrastructure fault only; every tool-level failure
// comes back inside the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, owner string, req contract.TodoRequest) (Result, error) {
	switch req.Action {
	case contract.ActionAdd:
		return d.add(ctx, owner, req)
	case contract.ActionList:
		return d.list(ctx, owner)
	case contract.ActionComplete, contract.ActionDelete:
		return d.mutate(ctx, owner, req)
	default:
		return Result{Error: fmt.Sprintf("unknown action %q", req.Action)}, nil
	}
}

func (d *Dispatcher) add(ctx context.Context, owner string, req contract.TodoRequest) (Result, error) {
	if req.Task == "" {
		return Result{Error: "a task description is required to add a task"}, nil
	}

	task, err := d.store.Create(ctx, owner, req.Task)
	if err != nil {
		return Result{}, err
	}

	d.notify(events.Event{
		Event:  "todo",
		Action: "added",
		TaskID: task.ID,
		Task:   task.Text,
	})
	return Result{Status: "added", Task: task.Text, TaskID: task.ID}, nil
}

func (d *Dispatcher) list(ctx context.Context, owner string) (Result, error) {
	tasks, err := d.store.List(ctx, owner)
	if err != nil {
		return Result{}, err
	}
	return Result{Tasks: tasks}, nil
}

func (d *Dispatcher) mutate(ctx context.Context, owner string, req contract.TodoRequest) (Result, error) {
	// An explicit identifier always wins over the description so the
	// user can override fuzzy matching.
	id := req.TaskID
	text := ""
	if id == 0 {
		if req.Task == "" {
			return Result{Error: fmt.Sprintf("a task or task_id is required to %s a task", req.Action)}, nil
		}
		resolved, err := d.resolver.Resolve(ctx, owner, req.Task)
		if err != nil {
			var matchErr *contract.MatchError
			if errors.As(err, &matchErr) {
				return Result{Error: matchErr.Reason, Candidates: matchErr.Candidates}, nil
			}
			return Result{}, err
		}
		id = resolved.TaskID
		text = resolved.Task
	} else {
		task, err := d.store.Get(ctx, owner, id)
		if err != nil {
			if errors.Is(err, contract.ErrNotFound) {
				return Result{Error: fmt.Sprintf("task %d not found", id)}, nil
			}
			return Result{}, err
		}
		text = task.Text
	}

	var (
		mutation func(context.Context, string, int64) error
		status   string
		action   string
	)
	if req.Action == contract.ActionComplete {
		mutation, status, action = d.store.Complete, "completed", "completed"
	} else {
		mutation, status, action = d.store.Delete, "deleted", "deleted"
	}

	if err := mutation(ctx, owner, id); err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			return Result{Error: fmt.Sprintf("task %d not found", id)}, nil
		}
		return Result{}, err
	}

	d.notify(events.Event{
		Event:  "todo",
		Action: action,
		TaskID: id,
		Task:   text,
	})
	return Result{Status: status, TaskID: id, Task: text}, nil
}

// notify publishes the event after the store commit. The broadcaster's
// queues decouple delivery from this call, so a slow listener cannot
// fail or delay the mutation that triggered it.
func (d *Dispatcher) notify(event events.Event) {
	payload := event.Encode()
	log.Debug().Str("action", event.Action).Int64("task_id", event.TaskID).Msg("broadcasting task event")
	d.notifier.Broadcast(payload)
}

type noopNotifier struct{}

func (noopNotifier) Broadcast(string) {}
