package storage

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"kanban-board/domain"
)

type storedEntity struct {
	value []byte
	etag  int
}

// fakeTable is an in-memory stand-in for an Azure table.
type fakeTable struct {
	rows map[string]storedEntity
}

func newFakeTable() *fakeTable {
	return &fakeTable{rows: map[string]storedEntity{}}
}

func keysOf(entity []byte) (string, string) {
	var keys struct {
		PartitionKey string `json:"PartitionKey"`
		RowKey       string `json:"RowKey"`
	}
	_ = sonic.Unmarshal(entity, &keys)
	return keys.PartitionKey, keys.RowKey
}

func etagOf(n int) azcore.ETag {
	return azcore.ETag(strings.Repeat("x", n))
}

func (f *fakeTable) AddEntity(_ context.Context, entity []byte, _ *aztables.AddEntityOptions) (aztables.AddEntityResponse, error) {
	pk, rk := keysOf(entity)
	if _, ok := f.rows[pk+"/"+rk]; ok {
		return aztables.AddEntityResponse{}, &azcore.ResponseError{StatusCode: http.StatusConflict}
	}
	f.rows[pk+"/"+rk] = storedEntity{value: entity, etag: 1}
	return aztables.AddEntityResponse{}, nil
}

func (f *fakeTable) GetEntity(_ context.Context, pk, rk string, _ *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	e, ok := f.rows[pk+"/"+rk]
	if !ok {
		return aztables.GetEntityResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	return aztables.GetEntityResponse{Value: e.value, ETag: etagOf(e.etag)}, nil
}

func (f *fakeTable) UpdateEntity(_ context.Context, entity []byte, opts *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error) {
	pk, rk := keysOf(entity)
	e, ok := f.rows[pk+"/"+rk]
	if !ok {
		return aztables.UpdateEntityResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	if opts != nil && opts.IfMatch != nil && *opts.IfMatch != etagOf(e.etag) {
		return aztables.UpdateEntityResponse{}, &azcore.ResponseError{StatusCode: http.StatusPreconditionFailed}
	}
	f.rows[pk+"/"+rk] = storedEntity{value: entity, etag: e.etag + 1}
	return aztables.UpdateEntityResponse{}, nil
}

func (f *fakeTable) NewListEntitiesPager(opts *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse] {
	prefix := ""
	if opts != nil && opts.Filter != nil {
		prefix = strings.TrimSuffix(strings.TrimPrefix(*opts.Filter, "PartitionKey eq '"), "'") + "/"
	}
	var keys []string
	for k := range f.rows {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	entities := make([][]byte, 0, len(keys))
	for _, k := range keys {
		entities = append(entities, f.rows[k].value)
	}
	done := false
	return runtime.NewPager(runtime.PagingHandler[aztables.ListEntitiesResponse]{
		More: func(aztables.ListEntitiesResponse) bool { return false },
		Fetcher: func(context.Context, *aztables.ListEntitiesResponse) (aztables.ListEntitiesResponse, error) {
			if done {
				return aztables.ListEntitiesResponse{}, errors.New("pager exhausted")
			}
			done = true
			return aztables.ListEntitiesResponse{Entities: entities}, nil
		},
	})
}

func TestActivityLogAppendAndListNewestFirst(t *testing.T) {
	log := &ActivityLog{table: newFakeTable()}
	ctx := context.Background()

	for i, typ := range []string{domain.TaskCreated, domain.TaskMoved, domain.TaskDeleted} {
		ev := domain.BoardEvent{
			ID: typ, BoardID: "b1", UserID: "u1", EntityKind: domain.KindTask, EntityID: "t1",
			Type: typ, Timestamp: int64(100 + i), Data: sonic.NoCopyRawMessage(`{"position":1}`),
		}
		if err := log.Append(ctx, ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := log.Append(ctx, domain.BoardEvent{ID: "other", BoardID: "b2", Timestamp: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := log.List(ctx, "b1", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != domain.TaskDeleted || events[1].Type != domain.TaskMoved {
		t.Fatalf("unexpected order: %s, %s", events[0].Type, events[1].Type)
	}
	if string(events[1].Data) != `{"position":1}` || events[1].Timestamp != 101 {
		t.Fatalf("unexpected event %+v", events[1])
	}
}

func TestActivityLogAppendIsIdempotent(t *testing.T) {
	log := &ActivityLog{table: newFakeTable()}
	ev := domain.BoardEvent{ID: "e1", BoardID: "b1", Timestamp: 5}
	if err := log.Append(context.Background(), ev); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append(context.Background(), ev); err != nil {
		t.Fatalf("second Append: %v", err)
	}
}

func TestActivityLogCursorLifecycle(t *testing.T) {
	log := &ActivityLog{table: newFakeTable()}
	ctx := context.Background()

	c, err := log.Cursor(ctx, "b1", "t1")
	if err != nil || c != nil {
		t.Fatalf("Cursor on empty table = %+v, %v", c, err)
	}
	if err := log.SaveCursor(ctx, Cursor{BoardID: "b1", EntityID: "t1", Timestamp: 10}); err != nil {
		t.Fatalf("SaveCursor insert: %v", err)
	}
	if err := log.SaveCursor(ctx, Cursor{BoardID: "b1", EntityID: "t1", Timestamp: 11}); !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected conflict on duplicate insert, got %v", err)
	}

	c, err = log.Cursor(ctx, "b1", "t1")
	if err != nil || c == nil || c.Timestamp != 10 || c.ETag == "" {
		t.Fatalf("Cursor = %+v, %v", c, err)
	}
	stale := *c
	c.Timestamp = 12
	if err := log.SaveCursor(ctx, *c); err != nil {
		t.Fatalf("SaveCursor update: %v", err)
	}
	stale.Timestamp = 13
	if err := log.SaveCursor(ctx, stale); !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected conflict on stale etag, got %v", err)
	}
}

func TestEscapeODataString(t *testing.T) {
	if got := escapeODataString("o'brien"); got != "o''brien" {
		t.Fatalf("escape = %q", got)
	}
}
