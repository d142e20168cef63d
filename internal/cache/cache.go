// Package cache holds the Redis-backed definition cache and autosave buffers.
package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-scoring/internal/config"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache: miss")

// Redis stores test definitions and per-submission answer buffers.
type Redis struct {
	rdb *redis.Client
}

// NewRedis creates a new Redis cache.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Definition returns the cached definition of a test and its variant.
func (c *Redis) Definition(ctx context.Context, testID string) ([]byte, string, error) {
	pipe := c.rdb.Pipeline()
	def := pipe.Get(ctx, config.CacheKey.TestDefinitionKey(testID))
	variant := pipe.Get(ctx, config.CacheKey.TestVariantKey(testID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, "", err
	}

	raw, err := def.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, "", ErrMiss
	}
	if err != nil {
		return nil, "", err
	}
	return raw, variant.Val(), nil
}

// SetDefinition caches a definition and its variant atomically.
func (c *Redis) SetDefinition(ctx context.Context, testID string, definition []byte, variant string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.TestDefinitionKey(testID), definition, 0)
	pipe.Set(ctx, config.CacheKey.TestVariantKey(testID), variant, 0)
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteDefinition evicts a cached definition.
func (c *Redis) DeleteDefinition(ctx context.Context, testID string) error {
	return c.rdb.Del(ctx,
		config.CacheKey.TestDefinitionKey(testID),
		config.CacheKey.TestVariantKey(testID),
	).Err()
}

// BufferAnswer writes one JSON-encoded answer into the submission's buffer
// and remembers which test it belongs to.
func (c *Redis) BufferAnswer(ctx context.Context, submissionID, testID, key string, value []byte) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, config.CacheKey.SubmissionAnswersKey(submissionID), key, value)
	pipe.Set(ctx, config.CacheKey.SubmissionTestKey(submissionID), testID, 0)
	_, err := pipe.Exec(ctx)
	return err
}

// BufferedAnswers returns every buffered answer, still JSON-encoded.
func (c *Redis) BufferedAnswers(ctx context.Context, submissionID string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, config.CacheKey.SubmissionAnswersKey(submissionID)).Result()
}

// ClearBuffers deletes the autosave buffers of the given submissions.
func (c *Redis) ClearBuffers(ctx context.Context, submissionIDs ...string) error {
	if len(submissionIDs) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, id := range submissionIDs {
		pipe.Del(ctx, config.CacheKey.SubmissionAnswersKey(id), config.CacheKey.SubmissionTestKey(id))
	}
	_, err := pipe.Exec(ctx)
	return err
}
