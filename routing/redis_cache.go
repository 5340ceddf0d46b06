package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/meridiandb/meridian-go/core"
)

// RedisSnapshotCache persists a resolved endpoint topology in Redis so a
// fleet of client instances shares one discovery result instead of each
// hammering the control plane on its own TTL.
type RedisSnapshotCache struct {
	client    *redis.Client
	namespace string
}

var _ SnapshotCache = (*RedisSnapshotCache)(nil)

// NewRedisSnapshotCache connects to redisURL, validating the connection
// with a bounded ping the way the discovery client does.
func NewRedisSnapshotCache(redisURL, namespace string) (*RedisSnapshotCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, core.WrapError("routing.NewRedisSnapshotCache", core.KindIllegalArgument, err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, core.WrapError("routing.NewRedisSnapshotCache", core.KindTransport, err)
	}

	if namespace == "" {
		namespace = "meridian"
	}
	return &RedisSnapshotCache{client: client, namespace: namespace}, nil
}

func (c *RedisSnapshotCache) key(accountName string) string {
	return fmt.Sprintf("%s:endpoints:%s", c.namespace, accountName)
}

// Load returns the cached endpoint list for accountName, or ok=false if
// nothing is cached or the entry expired.
func (c *RedisSnapshotCache) Load(ctx context.Context, accountName string) ([]url.URL, bool, error) {
	data, err := c.client.Get(ctx, c.key(accountName)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, core.WrapError("routing.RedisSnapshotCache.Load", core.KindTransport, err)
	}

	var raw []string
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, false, core.WrapError("routing.RedisSnapshotCache.Load", core.KindDataConversion, err)
	}

	endpoints := make([]url.URL, 0, len(raw))
	for _, s := range raw {
		u, err := url.Parse(s)
		if err != nil {
			return nil, false, core.WrapError("routing.RedisSnapshotCache.Load", core.KindDataConversion, err)
		}
		endpoints = append(endpoints, *u)
	}
	return endpoints, true, nil
}

// Store writes endpoints for accountName with the given TTL.
func (c *RedisSnapshotCache) Store(ctx context.Context, accountName string, endpoints []url.URL, ttl time.Duration) error {
	raw := make([]string, len(endpoints))
	for i, u := range endpoints {
		raw[i] = u.String()
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return core.WrapError("routing.RedisSnapshotCache.Store", core.KindDataConversion, err)
	}
	if err := c.client.Set(ctx, c.key(accountName), data, ttl).Err(); err != nil {
		return core.WrapError("routing.RedisSnapshotCache.Store", core.KindTransport, err)
	}
	return nil
}
