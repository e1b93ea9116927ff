package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go-pharma-exchange/internal/model"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const reputationTTL = 5 * time.Minute

// ReputationCache stores per-pharmacy reputation between marketplace loads.
type ReputationCache interface {
	// Get returns the cached entries and the ids that were not cached.
	Get(ctx context.Context, ids []int64) (map[int64]model.Reputation, []int64, error)
	Set(ctx context.Context, values map[int64]model.Reputation) error
	Invalidate(ctx context.Context, ids ...int64) error
}

func reputationKey(id int64) string {
	return "reputation:" + strconv.FormatInt(id, 10)
}

type redisReputation struct {
	rdb *redis.Client
}

func NewRedisReputation(rdb *redis.Client) ReputationCache {
	return &redisReputation{rdb: rdb}
}

func (c *redisReputation) Get(ctx context.Context, ids []int64) (map[int64]model.Reputation, []int64, error) {
	found := make(map[int64]model.Reputation, len(ids))
	if len(ids) == 0 {
		return found, nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = reputationKey(id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return found, ids, errors.Wrap(err, "redis mget reputation")
	}

	var missing []int64
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var rep model.Reputation
		if err := json.Unmarshal([]byte(s), &rep); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = rep
	}
	return found, missing, nil
}

func (c *redisReputation) Set(ctx context.Context, values map[int64]model.Reputation) error {
	if len(values) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for id, rep := range values {
		data, err := json.Marshal(rep)
		if err != nil {
			return err
		}
		pipe.Set(ctx, reputationKey(id), data, reputationTTL)
	}
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "redis set reputation")
}

func (c *redisReputation) Invalidate(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = reputationKey(id)
	}
	return errors.Wrap(c.rdb.Del(ctx, keys...).Err(), "redis del reputation")
}

type localReputation struct {
	c *gocache.Cache
}

// NewLocalReputation keeps reputation in process memory.
func NewLocalReputation() ReputationCache {
	return &localReputation{c: gocache.New(reputationTTL, 10*time.Minute)}
}

func (l *localReputation) Get(_ context.Context, ids []int64) (map[int64]model.Reputation, []int64, error) {
	found := make(map[int64]model.Reputation, len(ids))
	var missing []int64
	for _, id := range ids {
		if v, ok := l.c.Get(reputationKey(id)); ok {
			found[id] = v.(model.Reputation)
			continue
		}
		missing = append(missing, id)
	}
	return found, missing, nil
}

func (l *localReputation) Set(_ context.Context, values map[int64]model.Reputation) error {
	for id, rep := range values {
		l.c.Set(reputationKey(id), rep, gocache.DefaultExpiration)
	}
	return nil
}

func (l *localReputation) Invalidate(_ context.Context, ids ...int64) error {
	for _, id := range ids {
		l.c.Delete(reputationKey(id))
	}
	return nil
}
