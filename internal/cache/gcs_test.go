package cache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBucket is an in-memory objectStore.
type memoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	created map[string]time.Time
	now     func() time.Time
	listErr error
	closed  bool
}

func newMemoryBucket(now func() time.Time) *memoryBucket {
	return &memoryBucket{
		objects: make(map[string][]byte),
		created: make(map[string]time.Time),
		now:     now,
	}
}

func (b *memoryBucket) Read(ctx context.Context, name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[name]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return append([]byte(nil), data...), nil
}

func (b *memoryBucket) Write(ctx context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = append([]byte(nil), data...)
	b.created[name] = b.now()
	return nil
}

func (b *memoryBucket) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[name]; !ok {
		return storage.ErrObjectNotExist
	}
	delete(b.objects, name)
	delete(b.created, name)
	return nil
}

func (b *memoryBucket) Stat(ctx context.Context, name string) (objectInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[name]
	if !ok {
		return objectInfo{}, storage.ErrObjectNotExist
	}
	return objectInfo{Name: name, Size: int64(len(data)), Created: b.created[name]}, nil
}

func (b *memoryBucket) List(ctx context.Context, prefix string) ([]objectInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []objectInfo
	for name, data := range b.objects {
		if strings.HasPrefix(name, prefix) {
			out = append(out, objectInfo{Name: name, Size: int64(len(data)), Created: b.created[name]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *memoryBucket) Close() error {
	b.closed = true
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCloudStorageTestCache(duration time.Duration) (*CloudStorageCache, *memoryBucket, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	bucket := newMemoryBucket(clock.Now)
	cache := newCloudStorageCache(bucket, duration)
	cache.now = clock.Now
	return cache, bucket, clock
}

func TestCloudStorageObjectName(t *testing.T) {
	c := newCloudStorageCache(newMemoryBucket(time.Now), time.Hour)
	assert.Equal(t, "cache/rates:EUR.json", c.objectName(RatesKey("EUR")))
}

func TestCloudStorageCache_SetGet(t *testing.T) {
	cache, bucket, clock := newCloudStorageTestCache(time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "rates:EUR", newEntry("table")))

	_, err := bucket.Read(ctx, "cache/rates:EUR.json")
	require.NoError(t, err)

	entry, err := cache.Get(ctx, "rates:EUR")
	require.NoError(t, err)
	assert.Equal(t, `"table"`, string(entry.Value))
	assert.Equal(t, "rates:EUR", entry.Key)
	assert.True(t, clock.Now().Add(time.Hour).Equal(entry.ExpiresAt))
	assert.Equal(t, 1, entry.AccessCount)

	exists, err := cache.Exists(ctx, "rates:EUR")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCloudStorageCache_Miss(t *testing.T) {
	cache, _, _ := newCloudStorageTestCache(time.Hour)
	ctx := context.Background()

	_, err := cache.Get(ctx, "missing")
	assert.True(t, IsMiss(err))

	exists, err := cache.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, cache.Delete(ctx, "missing"))
}

func TestCloudStorageCache_Expiry(t *testing.T) {
	cache, bucket, clock := newCloudStorageTestCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "country:abc", newEntry("france")))
	clock.Advance(2 * time.Minute)

	_, err := cache.Get(ctx, "country:abc")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// The expired object is removed on read.
	_, err = bucket.Read(ctx, "cache/country:abc.json")
	assert.ErrorIs(t, err, storage.ErrObjectNotExist)
}

func TestCloudStorageCache_CorruptEntry(t *testing.T) {
	cache, bucket, _ := newCloudStorageTestCache(time.Hour)
	ctx := context.Background()

	require.NoError(t, bucket.Write(ctx, "cache/broken.json", []byte("{not json")))

	_, err := cache.Get(ctx, "broken")
	require.Error(t, err)
	assert.False(t, IsMiss(err))
}

func TestCloudStorageCache_StatsAndClear(t *testing.T) {
	cache, bucket, clock := newCloudStorageTestCache(time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "rates:EUR", newEntry("eur")))
	clock.Advance(2 * time.Hour)
	require.NoError(t, cache.Set(ctx, "rates:USD", newEntry("usd")))
	require.NoError(t, bucket.Write(ctx, "other/keep.json", []byte("{}")))

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, TypeCloudStorage, stats.Backend)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ExpiredEntries)
	assert.Equal(t, time.Hour, stats.AverageAge)
	assert.Equal(t, clock.Now().Add(-2*time.Hour), stats.OldestEntry)
	assert.Positive(t, stats.MemoryUsage)

	require.NoError(t, cache.Clear(ctx))

	stats, err = cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)

	// Objects outside the prefix are untouched.
	_, err = bucket.Read(ctx, "other/keep.json")
	assert.NoError(t, err)
}

func TestCloudStorageCache_ListError(t *testing.T) {
	cache, bucket, _ := newCloudStorageTestCache(time.Hour)
	bucket.listErr = errors.New("permission denied")

	_, err := cache.GetStats(context.Background())
	assert.ErrorContains(t, err, "permission denied")
	assert.ErrorContains(t, cache.Clear(context.Background()), "permission denied")
}

func TestCloudStorageCache_ThroughManager(t *testing.T) {
	cache, bucket, _ := newCloudStorageTestCache(time.Hour)
	m := NewManagerWithCache(cache)
	ctx := context.Background()

	rates := map[string]float64{"USD": 1.08}
	require.NoError(t, m.SetRates(ctx, "EUR", rates))

	got, err := m.GetRates(ctx, "eur")
	require.NoError(t, err)
	assert.Equal(t, rates, got)

	require.NoError(t, m.Close())
	assert.True(t, bucket.closed)
}
