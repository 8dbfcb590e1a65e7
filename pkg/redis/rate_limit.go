package redis

import (
	"context"
	"fmt"
	"time"
)

// FixedWindowAllow counts one hit against scope and reports whether the
// count is still within limit for the current window. The window starts at
// the first hit; its key expires with it.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	key := c.RateLimitKey(scope)
	count, err := c.Incr(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if count == 1 && window > 0 {
		if err := c.store.Expire(ctx, key, window).Err(); err != nil {
			// A counter without a TTL would lock the scope out for good.
			_ = c.store.Del(ctx, key).Err()
			return false, count, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return count <= limit, count, nil
}
