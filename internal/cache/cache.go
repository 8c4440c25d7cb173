package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pep299/random-user-aggregator/internal/model"
)

// Cache interface defines cache operations
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// CacheEntry represents a cached item
type CacheEntry struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	AccessedAt  time.Time       `json:"accessed_at"`
	AccessCount int             `json:"access_count"`
}

// Stats represents cache statistics
type Stats struct {
	Backend        string        `json:"backend"`
	TotalEntries   int           `json:"total_entries"`
	HitCount       int64         `json:"hit_count"`
	MissCount      int64         `json:"miss_count"`
	HitRate        float64       `json:"hit_rate"`
	MemoryUsage    int64         `json:"memory_usage_bytes"`
	OldestEntry    time.Time     `json:"oldest_entry"`
	AverageAge     time.Duration `json:"average_age"`
	ExpiredEntries int           `json:"expired_entries"`
}

// Supported cache backends.
const (
	TypeMemory       = "memory"
	TypeRedis        = "redis"
	TypeCloudStorage = "cloud-storage"
)

// Options selects and configures a backend.
type Options struct {
	Type          string
	Duration      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Bucket        string
}

// Manager handles cache operations with typed helpers for country metadata and
// conversion-rate tables.
type Manager struct {
	cache Cache
}

// NewManager creates a new cache manager
func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	var cache Cache

	switch opts.Type {
	case TypeMemory, "":
		cache = NewMemoryCache(opts.Duration)
	case TypeRedis:
		redisCache, err := NewRedisCache(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.Duration)
		if err != nil {
			return nil, fmt.Errorf("creating redis cache: %w", err)
		}
		cache = redisCache
	case TypeCloudStorage:
		gcsCache, err := NewCloudStorageCache(ctx, opts.Bucket, opts.Duration)
		if err != nil {
			return nil, fmt.Errorf("creating cloud storage cache: %w", err)
		}
		cache = gcsCache
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", opts.Type)
	}

	return &Manager{cache: cache}, nil
}

// NewManagerWithCache wraps an existing backend.
func NewManagerWithCache(cache Cache) *Manager {
	return &Manager{cache: cache}
}

// GetCountry retrieves cached metadata for a country name
func (m *Manager) GetCountry(ctx context.Context, name string) (*model.CountryInfo, error) {
	var country model.CountryInfo
	if err := m.getJSON(ctx, CountryKey(name), &country); err != nil {
		return nil, err
	}
	return &country, nil
}

// SetCountry caches metadata for a country name
func (m *Manager) SetCountry(ctx context.Context, name string, country model.CountryInfo) error {
	return m.setJSON(ctx, CountryKey(name), country)
}

// GetRates retrieves a cached conversion table for a base currency
func (m *Manager) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	var rates map[string]float64
	if err := m.getJSON(ctx, RatesKey(base), &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// SetRates caches a conversion table for a base currency
func (m *Manager) SetRates(ctx context.Context, base string, rates map[string]float64) error {
	return m.setJSON(ctx, RatesKey(base), rates)
}

// GetStats returns cache statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	return m.cache.GetStats(ctx)
}

// Clear clears all cached entries
func (m *Manager) Clear(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.cache.Close()
}

func (m *Manager) getJSON(ctx context.Context, key string, v interface{}) error {
	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(entry.Value, v); err != nil {
		return fmt.Errorf("unmarshaling cached value %s: %w", key, err)
	}
	return nil
}

func (m *Manager) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache value %s: %w", key, err)
	}
	return m.cache.Set(ctx, key, &CacheEntry{Value: data})
}

// CountryKey generates a cache key for a country name. Lookups are case-insensitive.
func CountryKey(name string) string {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(name))))
	return fmt.Sprintf("country:%x", hash)
}

// RatesKey generates a cache key for a base currency code.
func RatesKey(base string) string {
	return "rates:" + strings.ToUpper(strings.TrimSpace(base))
}

// IsMiss reports whether err means the key was absent or expired.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrCacheExpired)
}

// Common cache errors
var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrCacheExpired = errors.New("cache entry expired")
)
