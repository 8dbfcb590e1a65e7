package redis

import (
	"context"
	"fmt"
	"strconv"
)

// Generation returns the write counter of tab, 0 when it was never written.
// Cached snapshots embed the counter in their key, so a bump invalidates all
// of them at once without scanning.
func (c *Client) Generation(ctx context.Context, tab string) (int64, error) {
	raw, err := c.Get(ctx, c.GenerationKey(tab))
	switch {
	case IsMiss(err):
		return 0, nil
	case err != nil:
		return 0, err
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing generation of %q: %w", tab, err)
	}
	return gen, nil
}

// BumpGeneration advances the write counter of tab.
func (c *Client) BumpGeneration(ctx context.Context, tab string) (int64, error) {
	return c.Incr(ctx, c.GenerationKey(tab))
}
