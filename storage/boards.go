package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"kanban-board/domain"
)

const (
	boardColumns  = `b.id, b.owner_id, b.title, b.created_at, b.updated_at`
	columnColumns = `c.id, c.board_id, c.title, c.position, c.created_at, c.updated_at`
	taskColumns   = `t.id, t.column_id, t.title, t.description, t.position, t.priority, t.created_at, t.updated_at`
)

// CreateBoard inserts an empty board owned by ownerID.
func (s *Store) CreateBoard(ctx context.Context, ownerID, title string) (domain.Board, error) {
	now := s.now()
	b := domain.Board{ID: uuid.NewString(), OwnerID: ownerID, Title: title, Columns: []domain.Column{}, CreatedAt: now, UpdatedAt: now}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO boards (id, owner_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Title, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return domain.Board{}, fmt.Errorf("insert board: %w", err)
	}
	return b, nil
}

// FetchBoard returns the full board tree ordered by position.
func (s *Store) FetchBoard(ctx context.Context, id string) (domain.Board, error) {
	b, err := scanBoard(s.db.QueryRowContext(ctx, `SELECT `+boardColumns+` FROM boards b WHERE b.id = ?`, id))
	if err != nil {
		return domain.Board{}, err
	}
	cols, err := s.queryColumns(ctx, s.db,
		`SELECT `+columnColumns+` FROM board_columns c WHERE c.board_id = ? ORDER BY c.position, c.created_at, c.id`, id)
	if err != nil {
		return domain.Board{}, err
	}
	tasks, err := s.queryTasks(ctx, s.db,
		`SELECT `+taskColumns+` FROM tasks t JOIN board_columns c ON c.id = t.column_id
		 WHERE c.board_id = ? ORDER BY t.position, t.created_at, t.id`, id)
	if err != nil {
		return domain.Board{}, err
	}
	return assemble([]domain.Board{b}, cols, tasks)[0], nil
}

// ListBoards returns every board owned by ownerID with its columns and tasks.
func (s *Store) ListBoards(ctx context.Context, ownerID string) ([]domain.Board, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+boardColumns+` FROM boards b WHERE b.owner_id = ? ORDER BY b.created_at, b.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query boards: %w", err)
	}
	boards := []domain.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		boards = append(boards, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cols, err := s.queryColumns(ctx, s.db,
		`SELECT `+columnColumns+` FROM board_columns c JOIN boards b ON b.id = c.board_id
		 WHERE b.owner_id = ? ORDER BY c.position, c.created_at, c.id`, ownerID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.queryTasks(ctx, s.db,
		`SELECT `+taskColumns+` FROM tasks t
		 JOIN board_columns c ON c.id = t.column_id
		 JOIN boards b ON b.id = c.board_id
		 WHERE b.owner_id = ? ORDER BY t.position, t.created_at, t.id`, ownerID)
	if err != nil {
		return nil, err
	}
	return assemble(boards, cols, tasks), nil
}

// UpdateBoard applies p and returns the updated board tree.
func (s *Store) UpdateBoard(ctx context.Context, id string, p domain.BoardPatch) (domain.Board, error) {
	if p.Title != nil {
		res, err := s.db.ExecContext(ctx, `UPDATE boards SET title = ?, updated_at = ? WHERE id = ?`, *p.Title, s.now(), id)
		if err != nil {
			return domain.Board{}, fmt.Errorf("update board: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return domain.Board{}, err
		}
	}
	return s.FetchBoard(ctx, id)
}

// DeleteBoard removes a board with its columns and tasks.
func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return requireAffected(res)
}

// BoardOwner returns the owner of a board.
func (s *Store) BoardOwner(ctx context.Context, id string) (string, error) {
	var owner string
	if err := s.db.QueryRowContext(ctx, `SELECT owner_id FROM boards WHERE id = ?`, id).Scan(&owner); err != nil {
		return "", notFound(err)
	}
	return owner, nil
}

// assemble nests columns and tasks, both already ordered, under their boards.
func assemble(boards []domain.Board, cols []domain.Column, tasks []domain.Task) []domain.Board {
	byColumn := make(map[string][]domain.Task, len(cols))
	for _, t := range tasks {
		byColumn[t.ColumnID] = append(byColumn[t.ColumnID], t)
	}
	byBoard := make(map[string][]domain.Column, len(boards))
	for _, c := range cols {
		c.Tasks = byColumn[c.ID]
		if c.Tasks == nil {
			c.Tasks = []domain.Task{}
		}
		byBoard[c.BoardID] = append(byBoard[c.BoardID], c)
	}
	for i := range boards {
		boards[i].Columns = byBoard[boards[i].ID]
		if boards[i].Columns == nil {
			boards[i].Columns = []domain.Column{}
		}
	}
	return boards
}

func scanBoard(row scanner) (domain.Board, error) {
	var b domain.Board
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Title, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return domain.Board{}, notFound(err)
	}
	return b, nil
}
