package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"kanban-board/domain"
)

const edmInt64 = "Edm.Int64"

// tableAPI is the subset of *aztables.Client used by ActivityLog.
type tableAPI interface {
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	NewListEntitiesPager(listOptions *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

// ActivityLog keeps a newest-first history of board events in an Azure
// table, partitioned by board. It also stores the per-entity cursors the
// projector uses to drop stale events.
type ActivityLog struct {
	table tableAPI
}

// Cursor records the newest event timestamp projected for an entity.
type Cursor struct {
	BoardID   string
	EntityID  string
	Timestamp int64
	ETag      string
}

type activityEntity struct {
	aztables.Entity
	EventID            string `json:"EventID"`
	UserID             string `json:"UserID"`
	EntityKind         string `json:"EntityKind"`
	EntityID           string `json:"EntityID"`
	Type               string `json:"Type"`
	EventTimestamp     int64  `json:"EventTimestamp,string"`
	EventTimestampType string `json:"EventTimestamp@odata.type"`
	Data               string `json:"Data,omitempty"`
}

type cursorEntity struct {
	aztables.Entity
	EventTimestamp     int64  `json:"EventTimestamp,string"`
	EventTimestampType string `json:"EventTimestamp@odata.type"`
}

// NewActivityLog connects to the named table using the account connection string.
func NewActivityLog(connStr, table string) (*ActivityLog, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &ActivityLog{table: svc.NewClient(table)}, nil
}

// Append stores ev under its board. Re-appending the same event is a no-op.
func (a *ActivityLog) Append(ctx context.Context, ev domain.BoardEvent) error {
	ent := activityEntity{
		Entity:             aztables.Entity{PartitionKey: ev.BoardID, RowKey: activityRowKey(ev)},
		EventID:            ev.ID,
		UserID:             ev.UserID,
		EntityKind:         ev.EntityKind,
		EntityID:           ev.EntityID,
		Type:               ev.Type,
		EventTimestamp:     ev.Timestamp,
		EventTimestampType: edmInt64,
		Data:               string(ev.Data),
	}
	payload, err := sonic.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = a.table.AddEntity(ctx, payload, nil)
	if hasStatus(err, http.StatusConflict) {
		return nil
	}
	return err
}

// List returns up to limit events for boardID, newest first.
func (a *ActivityLog) List(ctx context.Context, boardID string, limit int) ([]domain.BoardEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := fmt.Sprintf("PartitionKey eq '%s'", escapeODataString(boardID))
	top := int32(limit)
	pager := a.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Top: &top})

	events := []domain.BoardEvent{}
	for pager.More() && len(events) < limit {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent activityEntity
			if err := sonic.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			ev := domain.BoardEvent{
				ID:         ent.EventID,
				BoardID:    ent.PartitionKey,
				UserID:     ent.UserID,
				EntityKind: ent.EntityKind,
				EntityID:   ent.EntityID,
				Type:       ent.Type,
				Timestamp:  ent.EventTimestamp,
			}
			if ent.Data != "" {
				ev.Data = sonic.NoCopyRawMessage(ent.Data)
			}
			events = append(events, ev)
			if len(events) == limit {
				break
			}
		}
	}
	return events, nil
}

// Cursor returns the projection cursor of an entity, or nil when none exists.
func (a *ActivityLog) Cursor(ctx context.Context, boardID, entityID string) (*Cursor, error) {
	resp, err := a.table.GetEntity(ctx, cursorPartition(boardID), entityID, nil)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ent cursorEntity
	if err := sonic.Unmarshal(resp.Value, &ent); err != nil {
		return nil, err
	}
	return &Cursor{BoardID: boardID, EntityID: entityID, Timestamp: ent.EventTimestamp, ETag: string(resp.ETag)}, nil
}

// SaveCursor writes c. An empty ETag inserts; otherwise the write only
// succeeds if the stored cursor is unchanged. Lost races return
// domain.ErrConcurrencyConflict.
func (a *ActivityLog) SaveCursor(ctx context.Context, c Cursor) error {
	payload, err := sonic.Marshal(cursorEntity{
		Entity:             aztables.Entity{PartitionKey: cursorPartition(c.BoardID), RowKey: c.EntityID},
		EventTimestamp:     c.Timestamp,
		EventTimestampType: edmInt64,
	})
	if err != nil {
		return err
	}
	if c.ETag == "" {
		_, err = a.table.AddEntity(ctx, payload, nil)
		if hasStatus(err, http.StatusConflict) {
			return domain.ErrConcurrencyConflict
		}
		return err
	}
	et := azcore.ETag(c.ETag)
	_, err = a.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace})
	if hasStatus(err, http.StatusPreconditionFailed) {
		return domain.ErrConcurrencyConflict
	}
	return err
}

// activityRowKey sorts newest first within a partition.
func activityRowKey(ev domain.BoardEvent) string {
	return fmt.Sprintf("%019d_%s", math.MaxInt64-ev.Timestamp, ev.ID)
}

func cursorPartition(boardID string) string {
	return "cursor_" + boardID
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

func escapeODataString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(out)
}
