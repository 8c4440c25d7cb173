package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
)

// DefaultBucket is used when no bucket name is configured.
const DefaultBucket = "random-user-aggregator-cache"

// objectInfo is the part of an object's attributes the cache reads.
type objectInfo struct {
	Name    string
	Size    int64
	Created time.Time
}

// objectStore is the bucket surface the cache needs. Read and Stat return
// storage.ErrObjectNotExist for absent objects.
type objectStore interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	Stat(ctx context.Context, name string) (objectInfo, error)
	List(ctx context.Context, prefix string) ([]objectInfo, error)
	Close() error
}

// bucketStore backs objectStore with a Cloud Storage bucket.
type bucketStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

func (b *bucketStore) Read(ctx context.Context, name string) ([]byte, error) {
	reader, err := b.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (b *bucketStore) Write(ctx context.Context, name string, data []byte) error {
	writer := b.bucket.Object(name).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

func (b *bucketStore) Delete(ctx context.Context, name string) error {
	return b.bucket.Object(name).Delete(ctx)
}

func (b *bucketStore) Stat(ctx context.Context, name string) (objectInfo, error) {
	attrs, err := b.bucket.Object(name).Attrs(ctx)
	if err != nil {
		return objectInfo{}, err
	}
	return objectInfo{Name: attrs.Name, Size: attrs.Size, Created: attrs.Created}, nil
}

func (b *bucketStore) List(ctx context.Context, prefix string) ([]objectInfo, error) {
	var objects []objectInfo
	it := b.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return objects, nil
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, objectInfo{Name: attrs.Name, Size: attrs.Size, Created: attrs.Created})
	}
}

func (b *bucketStore) Close() error {
	return b.client.Close()
}

// CloudStorageCache keeps JSON cache entries as objects under one bucket prefix.
// Expiry is stored in the entry and enforced on read.
type CloudStorageCache struct {
	store    objectStore
	duration time.Duration
	prefix   string
	now      func() time.Time
}

// NewCloudStorageCache creates a new Cloud Storage cache
func NewCloudStorageCache(ctx context.Context, bucketName string, duration time.Duration) (*CloudStorageCache, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	if bucketName == "" {
		bucketName = DefaultBucket
	}

	return newCloudStorageCache(&bucketStore{client: client, bucket: client.Bucket(bucketName)}, duration), nil
}

func newCloudStorageCache(store objectStore, duration time.Duration) *CloudStorageCache {
	return &CloudStorageCache{
		store:    store,
		duration: duration,
		prefix:   "cache/",
		now:      time.Now,
	}
}

func (c *CloudStorageCache) objectName(key string) string {
	return c.prefix + key + ".json"
}

// Get reads an entry. Expired entries are deleted and reported as a miss.
func (c *CloudStorageCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	data, err := c.store.Read(ctx, c.objectName(key))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("reading object %s: %w", c.objectName(key), err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling cache entry: %w", err)
	}

	now := c.now()
	if now.After(entry.ExpiresAt) {
		if err := c.Delete(ctx, key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("failed to delete expired cache entry")
		}
		return nil, ErrCacheMiss
	}

	entry.AccessedAt = now
	entry.AccessCount++
	return &entry, nil
}

// Set writes an entry stamped with the cache duration.
func (c *CloudStorageCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	now := c.now()
	stored := *entry
	stored.Key = key
	stored.CreatedAt = now
	stored.ExpiresAt = now.Add(c.duration)
	stored.AccessedAt = now

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	if err := c.store.Write(ctx, c.objectName(key), data); err != nil {
		return fmt.Errorf("writing object %s: %w", c.objectName(key), err)
	}
	return nil
}

// Delete removes an entry. Deleting an absent entry is not an error.
func (c *CloudStorageCache) Delete(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, c.objectName(key)); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting object %s: %w", c.objectName(key), err)
	}
	return nil
}

// Exists reports whether the object is present. Expiry is only checked on Get.
func (c *CloudStorageCache) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := c.store.Stat(ctx, c.objectName(key)); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", c.objectName(key), err)
	}
	return true, nil
}

// Clear deletes every object under the cache prefix.
func (c *CloudStorageCache) Clear(ctx context.Context) error {
	objects, err := c.store.List(ctx, c.prefix)
	if err != nil {
		return fmt.Errorf("listing objects: %w", err)
	}

	for _, obj := range objects {
		if err := c.store.Delete(ctx, obj.Name); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("deleting object %s: %w", obj.Name, err)
		}
	}
	return nil
}

// GetStats summarizes the objects under the cache prefix by creation time.
func (c *CloudStorageCache) GetStats(ctx context.Context) (*Stats, error) {
	objects, err := c.store.List(ctx, c.prefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	stats := &Stats{Backend: TypeCloudStorage, TotalEntries: len(objects)}
	if len(objects) == 0 {
		return stats, nil
	}

	now := c.now()
	var totalAge time.Duration
	for _, obj := range objects {
		stats.MemoryUsage += obj.Size
		if stats.OldestEntry.IsZero() || obj.Created.Before(stats.OldestEntry) {
			stats.OldestEntry = obj.Created
		}
		age := now.Sub(obj.Created)
		totalAge += age
		if age > c.duration {
			stats.ExpiredEntries++
		}
	}
	stats.AverageAge = totalAge / time.Duration(len(objects))

	return stats, nil
}

// Close closes the storage client
func (c *CloudStorageCache) Close() error {
	return c.store.Close()
}
