package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/timetable"
)

var (
	_ Client              = (*redis.Client)(nil)
	_ timetable.Persister = (*SnapshotCache)(nil)
	_ timetable.Loader    = (*SnapshotCache)(nil)
)

// memoryClient 内存实现，只覆盖快照缓存用到的命令
type memoryClient struct {
	data    map[string][]byte
	ttl     map[string]time.Duration
	failing error
}

func newMemoryClient() *memoryClient {
	return &memoryClient{data: make(map[string][]byte), ttl: make(map[string]time.Duration)}
}

func (m *memoryClient) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.failing != nil {
		return redis.NewStringResult("", m.failing)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (m *memoryClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if m.failing != nil {
		return redis.NewStatusResult("", m.failing)
	}
	m.data[key] = value.([]byte)
	m.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestSnapshotCache_RoundTrip(t *testing.T) {
	client := newMemoryClient()
	c := NewSnapshotCache(client, time.Hour)
	ctx := context.Background()

	got, err := c.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "未命中返回 nil")

	snap := &timetable.Snapshot{
		ID:      uuid.New(),
		Version: 2,
		Score:   930,
		Entries: []*model.Entry{{
			ID: uuid.New(), Year: "firstYear", Branch: "IT", Course: "EC", Teacher: "Dr. B", Room: "012",
			Day: "Tuesday", Slot: model.TimeSlot{Start: model.MustClock("10:30"), End: model.MustClock("11:30")},
			Type: model.SessionLecture,
		}},
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.SaveSnapshot(ctx, snap))
	assert.Equal(t, time.Hour, client.ttl[DefaultSnapshotKey])

	got, err = c.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, snap.Version, got.Version)
	assert.True(t, snap.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, *snap.Entries[0], *got.Entries[0])

	require.NoError(t, c.Invalidate(ctx))
	got, err = c.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotCache_Errors(t *testing.T) {
	client := newMemoryClient()
	client.failing = errors.New("connection refused")
	c := NewSnapshotCache(client, 0).WithKey("test:snapshot")

	_, err := c.LoadSnapshot(context.Background())
	assert.ErrorContains(t, err, "test:snapshot")
	assert.True(t, apperrors.Is(err, apperrors.CodeCacheError))

	err = c.SaveSnapshot(context.Background(), &timetable.Snapshot{ID: uuid.New()})
	assert.ErrorContains(t, err, "connection refused")
}

func TestSnapshotCache_NilClient(t *testing.T) {
	c := NewSnapshotCache(nil, 0)
	got, err := c.LoadSnapshot(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.SaveSnapshot(context.Background(), &timetable.Snapshot{}))
}
