// Package broker wraps the Redis client used as the pipeline's durable
// log: XADD/XREAD for cursor-mode consumers, XGROUP/XREADGROUP/XACK for
// consumer-group-mode consumers, and ZADD/ZREMRANGEBYSCORE/ZCARD plus
// scalar GET/SET for the stream correlator's sliding windows.
package broker

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/config"
)

// DefaultStreamCap is the approximate cap applied to XADD calls.
// Eviction is best-effort (MAXLEN ~), not a hard trim.
const DefaultStreamCap = 1_000_000

// Client wraps a Redis connection used as the pipeline broker.
type Client struct {
	rdb *redis.Client
	log *zap.Logger
}

// NewClient connects to Redis using cfg and returns a ready Client.
func NewClient(cfg config.Broker, logger *zap.Logger) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Client{rdb: rdb, log: logger}
}

// NewFromRedisClient wraps an already-constructed redis client. Exported
// for other packages' tests to build a Client against an in-memory
// miniredis instance without going through config.Broker.
func NewFromRedisClient(rdb *redis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, log: logger}
}

// newTestClient is an alias kept for this package's own tests.
func newTestClient(rdb *redis.Client, logger *zap.Logger) *Client {
	return NewFromRedisClient(rdb, logger)
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks broker connectivity, used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// isBusyGroup reports whether err is Redis's BUSYGROUP response, which
// means the consumer group already exists.
func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}

// EnsureGroup creates the named consumer group on stream, starting at
// "0-0" with MKSTREAM. BUSYGROUP (group already exists) is treated as
// success.
func (c *Client) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.rdb.XGroupCreateMkStream(ctx, stream, group, "0-0").Err()
	if err == nil {
		return nil
	}
	if isBusyGroup(err) {
		return nil
	}
	return fmt.Errorf("broker: ensure group %s on %s: %w", group, stream, err)
}

// Publish appends fields to stream with an approximate cap, stringifying
// every value (nil/empty is written as "").
func (c *Client) Publish(ctx context.Context, stream string, fields map[string]string) (string, error) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	id, err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: DefaultStreamCap,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("broker: publish to %s: %w", stream, err)
	}
	return id, nil
}
