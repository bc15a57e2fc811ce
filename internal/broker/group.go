package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReadGroup performs an XREADGROUP for group/consumer, fetching up to
// count new (">") entries and blocking up to block. A timeout returns a
// nil, nil slice.
func (c *Client) ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	res, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("broker: xreadgroup %s/%s on %s: %w", group, consumer, stream, err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	return toMessages(res[0].Messages), nil
}

// Ack acknowledges the given message ids for group on stream.
func (c *Client) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.rdb.XAck(ctx, stream, group, ids...).Err(); err != nil {
		return fmt.Errorf("broker: xack %s/%s: %w", stream, group, err)
	}
	return nil
}
