package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"kanban-board/domain"
)

// CreateColumn inserts a column into its board at the requested position.
func (s *Store) CreateColumn(ctx context.Context, in domain.NewColumn) (domain.Column, error) {
	var out domain.Column
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		c := domain.Column{ID: uuid.NewString(), BoardID: in.BoardID, Title: in.Title, Tasks: []domain.Task{}, CreatedAt: now, UpdatedAt: now}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO board_columns (id, board_id, title, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.BoardID, c.Title, 0, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert column: %w", err)
		}
		if c.Position, err = columnSiblings.place(ctx, tx, c.BoardID, c.ID, in.Position); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// GetColumn returns a column with its tasks.
func (s *Store) GetColumn(ctx context.Context, id string) (domain.Column, error) {
	return s.getColumn(ctx, s.db, id)
}

// ListColumns returns every column on boards owned by ownerID.
func (s *Store) ListColumns(ctx context.Context, ownerID string) ([]domain.Column, error) {
	boards, err := s.ListBoards(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	cols := []domain.Column{}
	for _, b := range boards {
		cols = append(cols, b.Columns...)
	}
	return cols, nil
}

// UpdateColumn applies p. A position change reorders the board's columns.
func (s *Store) UpdateColumn(ctx context.Context, id string, p domain.ColumnPatch) (domain.Column, error) {
	var out domain.Column
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		c, err := s.getColumn(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Title != nil {
			c.Title = *p.Title
		}
		c.UpdatedAt = s.now()
		if _, err := tx.ExecContext(ctx, `UPDATE board_columns SET title = ?, updated_at = ? WHERE id = ?`, c.Title, c.UpdatedAt, c.ID); err != nil {
			return fmt.Errorf("update column: %w", err)
		}
		if p.Position != nil {
			if c.Position, err = columnSiblings.place(ctx, tx, c.BoardID, c.ID, p.Position); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	return out, err
}

// DeleteColumn removes a column with its tasks and closes the gap it leaves.
func (s *Store) DeleteColumn(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var boardID string
		if err := tx.QueryRowContext(ctx, `SELECT board_id FROM board_columns WHERE id = ?`, id).Scan(&boardID); err != nil {
			return notFound(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM board_columns WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete column: %w", err)
		}
		return columnSiblings.compact(ctx, tx, boardID)
	})
}

// ColumnOwner returns the board and owner of a column.
func (s *Store) ColumnOwner(ctx context.Context, id string) (ownerID, boardID string, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT b.owner_id, b.id FROM board_columns c JOIN boards b ON b.id = c.board_id WHERE c.id = ?`, id,
	).Scan(&ownerID, &boardID)
	return ownerID, boardID, notFound(err)
}

func (s *Store) getColumn(ctx context.Context, q querier, id string) (domain.Column, error) {
	c, err := scanColumn(q.QueryRowContext(ctx, `SELECT `+columnColumns+` FROM board_columns c WHERE c.id = ?`, id))
	if err != nil {
		return domain.Column{}, err
	}
	tasks, err := s.queryTasks(ctx, q,
		`SELECT `+taskColumns+` FROM tasks t WHERE t.column_id = ? ORDER BY t.position, t.created_at, t.id`, id)
	if err != nil {
		return domain.Column{}, err
	}
	c.Tasks = tasks
	if c.Tasks == nil {
		c.Tasks = []domain.Task{}
	}
	return c, nil
}

func (s *Store) queryColumns(ctx context.Context, q querier, query string, args ...any) ([]domain.Column, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var cols []domain.Column
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func scanColumn(row scanner) (domain.Column, error) {
	var c domain.Column
	if err := row.Scan(&c.ID, &c.BoardID, &c.Title, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Column{}, notFound(err)
	}
	return c, nil
}
