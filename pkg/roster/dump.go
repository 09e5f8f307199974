package roster

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Dump returns every stored entry hash exactly as persisted, in index order.
//
// Unlike ListAll it neither decodes nor checks the hashes, so it can read a
// registry that ListAll rejects. An index member whose hash is missing is
// returned as an empty map.
func (c *Client) Dump(ctx context.Context) ([]map[string]string, error) {
	members, err := c.rdb.ZRangeWithScores(ctx, PositionsKey(c.instanceName), 0, -1).Result()
	if err != nil {
		return nil, Unavailable("dump", err)
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(members))
	for i, z := range members {
		cmds[i] = pipe.HGetAll(ctx, EntryKey(c.instanceName, PositionFromScore(z.Score)))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, Unavailable("dump", err)
		}
	}

	hashes := make([]map[string]string, len(cmds))
	for i, cmd := range cmds {
		hashes[i] = cmd.Val()
		if hashes[i] == nil {
			hashes[i] = map[string]string{}
		}
	}
	return hashes, nil
}
