package storage

import (
	"context"
	"fmt"
)

// siblings describes an ordered child table and the column linking it to
// its container.
type siblings struct {
	table  string
	parent string
}

var (
	columnSiblings = siblings{table: "board_columns", parent: "board_id"}
	taskSiblings   = siblings{table: "tasks", parent: "column_id"}
)

func (sb siblings) ids(ctx context.Context, q querier, parentID, exclude string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE %s = ? AND id <> ? ORDER BY position, created_at, id`, sb.table, sb.parent),
		parentID, exclude,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sb.table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// place moves id into parentID at the requested position and rewrites every
// sibling as its 0-based index. A nil or out-of-range position appends. It
// returns the position actually assigned.
func (sb siblings) place(ctx context.Context, q querier, parentID, id string, position *int) (int, error) {
	ids, err := sb.ids(ctx, q, parentID, id)
	if err != nil {
		return 0, err
	}
	at := len(ids)
	if position != nil && *position < at {
		at = *position
	}
	if at < 0 {
		at = 0
	}
	ordered := make([]string, 0, len(ids)+1)
	ordered = append(ordered, ids[:at]...)
	ordered = append(ordered, id)
	ordered = append(ordered, ids[at:]...)

	if err := sb.write(ctx, q, parentID, ordered); err != nil {
		return 0, err
	}
	return at, nil
}

// compact closes the gap left in parentID once an entity has gone.
func (sb siblings) compact(ctx context.Context, q querier, parentID string) error {
	ids, err := sb.ids(ctx, q, parentID, "")
	if err != nil {
		return err
	}
	return sb.write(ctx, q, parentID, ids)
}

func (sb siblings) write(ctx context.Context, q querier, parentID string, ordered []string) error {
	stmt := fmt.Sprintf(`UPDATE %s SET %s = ?, position = ? WHERE id = ?`, sb.table, sb.parent)
	for i, id := range ordered {
		if _, err := q.ExecContext(ctx, stmt, parentID, i, id); err != nil {
			return fmt.Errorf("renumber %s: %w", sb.table, err)
		}
	}
	return nil
}
