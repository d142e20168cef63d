// Package queue wraps the Redis lists the workers consume.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned when a pop finds nothing to take.
var ErrEmpty = errors.New("queue: empty")

// RedisQueue is a FIFO over Redis lists: RPUSH to enqueue, (B)LPOP to dequeue.
type RedisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue creates a new RedisQueue.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

// Push JSON-encodes v and appends it to the named queue.
func (q *RedisQueue) Push(ctx context.Context, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", name, err)
	}
	return q.PushRaw(ctx, name, raw)
}

// PushRaw appends an already encoded payload, used for requeues.
func (q *RedisQueue) PushRaw(ctx context.Context, name string, raw []byte) error {
	return q.rdb.RPush(ctx, name, raw).Err()
}

// Pop blocks up to timeout for the next payload.
func (q *RedisQueue) Pop(ctx context.Context, name string, timeout time.Duration) ([]byte, error) {
	item, err := q.rdb.BLPop(ctx, timeout, name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	if len(item) < 2 {
		return nil, ErrEmpty
	}
	return []byte(item[1]), nil
}

// TryPop takes the next payload without blocking. Drains use it on shutdown.
func (q *RedisQueue) TryPop(ctx context.Context, name string) ([]byte, error) {
	item, err := q.rdb.LPop(ctx, name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	return []byte(item), nil
}

// Len reports the depth of each named queue.
func (q *RedisQueue) Len(ctx context.Context, names ...string) (map[string]int64, error) {
	pipe := q.rdb.Pipeline()
	cmds := make(map[string]*redis.IntCmd, len(names))
	for _, name := range names {
		cmds[name] = pipe.LLen(ctx, name)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	depths := make(map[string]int64, len(names))
	for name, cmd := range cmds {
		depths[name] = cmd.Val()
	}
	return depths, nil
}
