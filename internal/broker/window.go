package broker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowKey returns the ordered-set key for a rule/entity sliding window.
func WindowKey(ruleID, entity string) string {
	return fmt.Sprintf("stream_corr:rule:%s:ent:%s", ruleID, entity)
}

// LastAlertKey returns the scalar key tracking the last alert emitted for
// a rule/entity pair.
func LastAlertKey(ruleID, entity string) string {
	return fmt.Sprintf("stream_corr:last_alert:%s:%s", ruleID, entity)
}

// WindowState is the result of touching a sliding window: its size after
// eviction, and the last-alert timestamp if one has ever been recorded.
type WindowState struct {
	Size         int64
	LastAlertTS  float64
	HasLastAlert bool
}

// TouchWindow inserts the event into the sliding-window ZSET, evicts
// entries older than the window, then reads back the current
// cardinality and the last-alert marker — batched into one pipeline
// round-trip. A pipeline is not a transaction: the commands still
// execute as independent per-command atomic operations, which is
// sufficient given a single writer per (rule, entity).
func (c *Client) TouchWindow(ctx context.Context, ruleID, entity, messageID string, now time.Time, windowSec uint32) (WindowState, error) {
	zkey := WindowKey(ruleID, entity)
	lakey := LastAlertKey(ruleID, entity)
	nowScore := float64(now.Unix())
	cutoff := nowScore - float64(windowSec)

	pipe := c.rdb.Pipeline()
	pipe.ZAdd(ctx, zkey, redis.Z{Score: nowScore, Member: messageID})
	pipe.ZRemRangeByScore(ctx, zkey, "-inf", strconv.FormatFloat(cutoff, 'f', -1, 64))
	cardCmd := pipe.ZCard(ctx, zkey)
	lastCmd := pipe.Get(ctx, lakey)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return WindowState{}, fmt.Errorf("broker: touch window %s: %w", zkey, err)
	}

	size, err := cardCmd.Result()
	if err != nil {
		return WindowState{}, fmt.Errorf("broker: zcard %s: %w", zkey, err)
	}

	state := WindowState{Size: size}
	lastRaw, err := lastCmd.Result()
	if err == nil {
		if v, perr := strconv.ParseFloat(lastRaw, 64); perr == nil {
			state.LastAlertTS = v
			state.HasLastAlert = true
		}
	} else if err != redis.Nil {
		return WindowState{}, fmt.Errorf("broker: get %s: %w", lakey, err)
	}

	return state, nil
}

// SetLastAlert records now as the last-alert timestamp for (ruleID, entity).
func (c *Client) SetLastAlert(ctx context.Context, ruleID, entity string, now time.Time) error {
	lakey := LastAlertKey(ruleID, entity)
	v := strconv.FormatFloat(float64(now.Unix()), 'f', -1, 64)
	if err := c.rdb.Set(ctx, lakey, v, 0).Err(); err != nil {
		return fmt.Errorf("broker: set last alert %s: %w", lakey, err)
	}
	return nil
}
