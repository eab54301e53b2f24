package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kanban-board/domain"
)

// CreateTask inserts a task into its column at the requested position.
func (s *Store) CreateTask(ctx context.Context, in domain.NewTask) (domain.Task, error) {
	var out domain.Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		t := domain.Task{
			ID:          uuid.NewString(),
			ColumnID:    in.ColumnID,
			Title:       in.Title,
			Description: in.Description,
			Priority:    in.Priority,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if t.Priority == "" {
			t.Priority = domain.PriorityMedium
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, column_id, title, description, position, priority, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.ColumnID, t.Title, t.Description, 0, string(t.Priority), t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if t.Position, err = taskSiblings.place(ctx, tx, t.ColumnID, t.ID, in.Position); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// GetTask returns a single task.
func (s *Store) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id))
}

// ListTasks returns every task on boards owned by ownerID.
func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	tasks, err := s.queryTasks(ctx, s.db,
		`SELECT `+taskColumns+` FROM tasks t
		 JOIN board_columns c ON c.id = t.column_id
		 JOIN boards b ON b.id = c.board_id
		 WHERE b.owner_id = ? ORDER BY b.created_at, c.position, t.position, t.id`, ownerID)
	if tasks == nil && err == nil {
		tasks = []domain.Task{}
	}
	return tasks, err
}

// UpdateTask applies p. Moving the task renumbers both the column it left
// and the column it entered.
func (s *Store) UpdateTask(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	var out domain.Task
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id))
		if err != nil {
			return err
		}
		if p.Title != nil {
			t.Title = *p.Title
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Priority != nil {
			t.Priority = *p.Priority
		}
		t.UpdatedAt = s.now()
		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET title = ?, description = ?, priority = ?, updated_at = ? WHERE id = ?`,
			t.Title, t.Description, string(t.Priority), t.UpdatedAt, t.ID,
		)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if p.Moves() {
			from := t.ColumnID
			if p.ColumnID != nil {
				t.ColumnID = *p.ColumnID
			}
			position := p.Position
			if position == nil && t.ColumnID == from {
				current := t.Position
				position = &current
			}
			if t.Position, err = taskSiblings.place(ctx, tx, t.ColumnID, t.ID, position); err != nil {
				return err
			}
			if t.ColumnID != from {
				if err := taskSiblings.compact(ctx, tx, from); err != nil {
					return err
				}
			}
		}
		out = t
		return nil
	})
	return out, err
}

// DeleteTask removes a task and closes the gap it leaves in its column.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var columnID string
		if err := tx.QueryRowContext(ctx, `SELECT column_id FROM tasks WHERE id = ?`, id).Scan(&columnID); err != nil {
			return notFound(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return taskSiblings.compact(ctx, tx, columnID)
	})
}

// TaskOwner returns the owner and board of a task.
func (s *Store) TaskOwner(ctx context.Context, id string) (ownerID, boardID string, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT b.owner_id, b.id FROM tasks t
		 JOIN board_columns c ON c.id = t.column_id
		 JOIN boards b ON b.id = c.board_id
		 WHERE t.id = ?`, id,
	).Scan(&ownerID, &boardID)
	return ownerID, boardID, notFound(err)
}

func (s *Store) queryTasks(ctx context.Context, q querier, query string, args ...any) ([]domain.Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row scanner) (domain.Task, error) {
	var t domain.Task
	var priority string
	if err := row.Scan(&t.ID, &t.ColumnID, &t.Title, &t.Description, &t.Position, &priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Task{}, notFound(err)
	}
	t.Priority = domain.Priority(priority)
	return t, nil
}
