package todo

import (
	"time"

	"github.com/uptrace/bun"
)

// Task is one row of the todos table. Identifiers are assigned by the
// database on insert and never reused.
type Task struct {
	bun.BaseModel `bun:"table:todos,alias:t" json:"-"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	Text      string    `bun:"text,notnull" json:"text"`
	Completed bool      `bun:"completed,notnull,default:false" json:"completed"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}
