package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is a single stream entry: its id and flat field map.
type Message struct {
	ID     string
	Fields map[string]string
}

// ReadAfter performs an XREAD for entries strictly after lastID, blocking
// up to block for up to count entries. A timeout (no entries) returns a
// nil, nil slice rather than an error — cursor-mode workers treat that as
// "nothing to do this tick".
func (c *Client) ReadAfter(ctx context.Context, stream, lastID string, count int64, block time.Duration) ([]Message, error) {
	res, err := c.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   count,
		Block:   block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("broker: xread %s after %s: %w", stream, lastID, err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	return toMessages(res[0].Messages), nil
}

// GetCursor reads a persisted cursor value from key, defaulting to the
// sentinel "0-0" when the key does not exist yet.
func (c *Client) GetCursor(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "0-0", nil
	}
	if err != nil {
		return "", fmt.Errorf("broker: get cursor %s: %w", key, err)
	}
	return v, nil
}

// SetCursor persists id as the cursor value under key.
func (c *Client) SetCursor(ctx context.Context, key, id string) error {
	if err := c.rdb.Set(ctx, key, id, 0).Err(); err != nil {
		return fmt.Errorf("broker: set cursor %s: %w", key, err)
	}
	return nil
}

func toMessages(src []redis.XMessage) []Message {
	out := make([]Message, 0, len(src))
	for _, m := range src {
		fields := make(map[string]string, len(m.Values))
		for k, v := range m.Values {
			if s, ok := v.(string); ok {
				fields[k] = s
			} else {
				fields[k] = fmt.Sprint(v)
			}
		}
		out = append(out, Message{ID: m.ID, Fields: fields})
	}
	return out
}
