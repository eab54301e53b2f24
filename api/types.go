package api

import (
	"context"

	log "github.com/sirupsen/logrus"

	"kanban-board/domain"
	"kanban-board/notify"
)

// Storage abstracts persistence for handlers. Positions passed to the
// create and update calls are normalized by the implementation.
type Storage interface {
	Ping(ctx context.Context) error
	InvalidateBoard(ctx context.Context, boardID string)

	CreateUser(ctx context.Context, name, email, passwordHash string) (domain.User, error)
	UserByID(ctx context.Context, id string) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateUser(ctx context.Context, id string, p domain.UserPatch) (domain.User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateBoard(ctx context.Context, ownerID, title string) (domain.Board, error)
	FetchBoard(ctx context.Context, id string) (domain.Board, error)
	ListBoards(ctx context.Context, ownerID string) ([]domain.Board, error)
	UpdateBoard(ctx context.Context, id string, p domain.BoardPatch) (domain.Board, error)
	DeleteBoard(ctx context.Context, id string) error
	BoardOwner(ctx context.Context, id string) (string, error)

	CreateColumn(ctx context.Context, in domain.NewColumn) (domain.Column, error)
	GetColumn(ctx context.Context, id string) (domain.Column, error)
	ListColumns(ctx context.Context, ownerID string) ([]domain.Column, error)
	UpdateColumn(ctx context.Context, id string, p domain.ColumnPatch) (domain.Column, error)
	DeleteColumn(ctx context.Context, id string) error
	ColumnOwner(ctx context.Context, id string) (ownerID, boardID string, err error)

	CreateTask(ctx context.Context, in domain.NewTask) (domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	TaskOwner(ctx context.Context, id string) (ownerID, boardID string, err error)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// TokenIssuer mints access tokens for local accounts.
type TokenIssuer interface {
	CanIssue() bool
	IssueToken(u domain.User) (string, error)
}

// Deduper prevents processing of duplicate create requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when the create fails.
	Remove(ctx context.Context, userID, key string) error
}

// ActivityReader lists projected board events, newest first.
type ActivityReader interface {
	List(ctx context.Context, boardID string, limit int) ([]domain.BoardEvent, error)
}

// Deps bundles everything the handlers need. Deduper, Events, Broker and
// Activity are optional.
type Deps struct {
	Store    Storage
	Auth     Authenticator
	Issuer   TokenIssuer
	Deduper  Deduper
	Events   notify.Publisher
	Broker   *notify.Broker
	Activity ActivityReader
	Log      *log.Logger

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}
