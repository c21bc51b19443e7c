// Package cache 使用 Redis 缓存已提交的课表快照
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/paiban/kebiao/internal/config"
	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/timetable"
)

// DefaultSnapshotKey 当前课表快照的键
const DefaultSnapshotKey = "kebiao:timetable:current"

// Client SnapshotCache 需要的 Redis 命令，*redis.Client 满足该接口
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedis 创建并检测 Redis 连接
func NewRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// SnapshotCache 实现 timetable.Persister 与 timetable.Loader
type SnapshotCache struct {
	client Client
	key    string
	ttl    time.Duration
}

// NewSnapshotCache 创建快照缓存，ttl 为 0 表示不过期
func NewSnapshotCache(client Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, key: DefaultSnapshotKey, ttl: ttl}
}

// WithKey 使用自定义键
func (c *SnapshotCache) WithKey(key string) *SnapshotCache {
	c.key = key
	return c
}

// SaveSnapshot 覆盖缓存中的快照
func (c *SnapshotCache) SaveSnapshot(ctx context.Context, s *timetable.Snapshot) error {
	if c.client == nil {
		return nil
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", s.ID, err)
	}
	if err := c.client.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "redis set "+c.key)
	}
	return nil
}

// LoadSnapshot 读取缓存的快照，未命中时返回 nil, nil
func (c *SnapshotCache) LoadSnapshot(ctx context.Context) (*timetable.Snapshot, error) {
	if c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "redis get "+c.key)
	}
	var s timetable.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal cached snapshot: %w", err)
	}
	return &s, nil
}

// Invalidate 删除缓存的快照
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCacheError, "redis delete "+c.key)
	}
	return nil
}
