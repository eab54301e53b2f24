package api

import (
	"context"

	"kanban-board/domain"
)

// Ownership checks resolve the chain task -> column -> board -> owner. A
// missing link yields domain.ErrNotFound, a foreign owner domain.ErrForbidden.

func ownBoard(ctx context.Context, store Storage, userID, boardID string) error {
	owner, err := store.BoardOwner(ctx, boardID)
	if err != nil {
		return err
	}
	if owner != userID {
		return domain.ErrForbidden
	}
	return nil
}

func ownColumn(ctx context.Context, store Storage, userID, columnID string) (string, error) {
	owner, boardID, err := store.ColumnOwner(ctx, columnID)
	if err != nil {
		return "", err
	}
	if owner != userID {
		return "", domain.ErrForbidden
	}
	return boardID, nil
}

func ownTask(ctx context.Context, store Storage, userID, taskID string) (string, error) {
	owner, boardID, err := store.TaskOwner(ctx, taskID)
	if err != nil {
		return "", err
	}
	if owner != userID {
		return "", domain.ErrForbidden
	}
	return boardID, nil
}

func ownUser(userID, targetID string) error {
	if userID != targetID {
		return domain.ErrForbidden
	}
	return nil
}
