// Package todo persists the user's task list. Every operation is scoped
// to an owner identity; a mutation addressed to another owner's task is
// reported as not found and leaves the row untouched.
package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"genia/assistant/contract"
)

// Store runs task operations against a bun database handle.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{
		db:  db,
		now: time.Now,
	}
}

// Init creates the todos table if it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*Task)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}
	return nil
}

// Create inserts a new task for owner and returns it with its assigned
// identifier. Storage faults propagate to the caller.
func (s *Store) Create(ctx context.Context, owner string, text string) (Task, error) {
	task := Task{
		UserID:    owner,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(&task).Exec(ctx); err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// List returns every task belonging to owner, completed or not, in
// creation order.
func (s *Store) List(ctx context.Context, owner string) ([]Task, error) {
	tasks := make([]Task, 0)
	if err := s.db.NewSelect().
		Model(&tasks).
		Where("user_id = ?", owner).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListActive returns owner's uncompleted tasks in creation order. This
// is the candidate set for fuzzy matching.
func (s *Store) ListActive(ctx context.Context, owner string) ([]Task, error) {
	tasks := make([]Task, 0)
	if err := s.db.NewSelect().
		Model(&tasks).
		Where("user_id = ?", owner).
		Where("completed = ?", false).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	return tasks, nil
}

// Get loads one task by id, owner-scoped.
func (s *Store) Get(ctx context.Context, owner string, id int64) (Task, error) {
	var task Task
	err := s.db.NewSelect().
		Model(&task).
		Where("id = ?", id).
		Where("user_id = ?", owner).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, fmt.Errorf("%w: id=%d", contract.ErrNotFound, id)
		}
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// requireRow maps a zero-row mutation onto contract.ErrNotFound.
func requireRow(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%d", contract.ErrNotFound, id)
	}
	return nil
}

// Complete marks owner's task id as done. Returns contract.ErrNotFound
// when no such row belongs to owner.
func (s *Store) Complete(ctx context.Context, owner string, id int64) error {
	res, err := s.db.NewUpdate().
		Model((*Task)(nil)).
		Set("completed = ?", true).
		Where("id = ?", id).
		Where("user_id = ?", owner).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return requireRow(res, id)
}

// Delete removes owner's task id. Returns contract.ErrNotFound when no
// such row belongs to owner.
func (s *Store) Delete(ctx context.Context, owner string, id int64) error {
	res, err := s.db.NewDelete().
		Model((*Task)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", owner).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRow(res, id)
}
