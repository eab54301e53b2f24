package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"kanban-board/domain"
)

type backend interface {
	FetchBoard(ctx context.Context, id string) (domain.Board, error)
}

// Cache wraps a Store with Redis-backed caching for board reads. Writers
// must call InvalidateBoard once a change touching the board commits.
type Cache struct {
	*Store
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Store); ok {
		c.Store = s
	}
	return c
}

// FetchBoard serves the board tree from Redis when present.
func (c *Cache) FetchBoard(ctx context.Context, id string) (domain.Board, error) {
	if b, ok := c.loadBoard(ctx, id); ok {
		return b, nil
	}

	b, err := c.base.FetchBoard(ctx, id)
	if err != nil {
		return domain.Board{}, err
	}

	c.storeBoard(ctx, b)
	return b, nil
}

// InvalidateBoard drops the cached tree for boardID.
func (c *Cache) InvalidateBoard(ctx context.Context, boardID string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, boardCacheKey(boardID)).Err()
}

func (c *Cache) loadBoard(ctx context.Context, id string) (domain.Board, bool) {
	if c.redis == nil {
		return domain.Board{}, false
	}
	data, err := c.redis.Get(ctx, boardCacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, boardCacheKey(id)).Err()
		}
		return domain.Board{}, false
	}
	var b domain.Board
	if err := sonic.Unmarshal(data, &b); err != nil {
		_ = c.redis.Del(ctx, boardCacheKey(id)).Err()
		return domain.Board{}, false
	}
	return b, true
}

func (c *Cache) storeBoard(ctx context.Context, b domain.Board) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(b)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, boardCacheKey(b.ID), data, c.ttl).Err()
}

func boardCacheKey(boardID string) string {
	return "board:" + boardID
}
