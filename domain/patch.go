package domain

// UserPatch carries partial updates for a user. PasswordHash is already hashed.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// BoardPatch carries partial updates for a board.
type BoardPatch struct {
	Title *string
}

// NewColumn describes a column to create. A nil Position appends.
type NewColumn struct {
	BoardID  string
	Title    string
	Position *int
}

// ColumnPatch carries partial updates for a column.
type ColumnPatch struct {
	Title    *string
	Position *int
}

// NewTask describes a task to create. A nil Position appends.
type NewTask struct {
	ColumnID    string
	Title       string
	Description string
	Priority    Priority
	Position    *int
}

// TaskPatch carries partial updates for a task. A ColumnID different from the
// current one moves the task; Position then applies in the new column.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *Priority
	ColumnID    *string
	Position    *int
}

// Moves reports whether the patch changes the task's placement.
func (p TaskPatch) Moves() bool {
	return p.ColumnID != nil || p.Position != nil
}
