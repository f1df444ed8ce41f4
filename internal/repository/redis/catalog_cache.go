package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"rental-site/internal/client"
	"rental-site/internal/models"
	"rental-site/internal/util"
)

const catalogPrefix = "catalog:"

// CatalogCache keeps rendered catalog listings keyed by filter.
type CatalogCache struct {
	client *client.RedisClient
	ttl    time.Duration
}

func NewCatalogCache(client *client.RedisClient, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *CatalogCache) Get(ctx context.Context, filter models.VehicleFilter) ([]*models.Vehicle, bool, error) {
	key := CatalogKey(filter)
	raw, err := c.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return nil, false, nil
		}
		util.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false, fmt.Errorf("failed to read catalog cache: %w", err)
	}

	var vehicles []*models.Vehicle
	if err := json.Unmarshal(raw, &vehicles); err != nil {
		// corrupt entry, treat as miss and let the next Set overwrite it
		util.Warn("Discarding undecodable catalog entry", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	return vehicles, true, nil
}

func (c *CatalogCache) Set(ctx context.Context, filter models.VehicleFilter, vehicles []*models.Vehicle) error {
	key := CatalogKey(filter)
	payload, err := json.Marshal(vehicles)
	if err != nil {
		return fmt.Errorf("failed to encode catalog entry: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl); err != nil {
		util.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write catalog cache: %w", err)
	}
	util.Debug("Catalog cached", zap.String("key", key), zap.Int("vehicles", len(vehicles)), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate drops every cached listing.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	keys, err := c.client.ScanKeys(ctx, catalogPrefix+"*", 100)
	if err != nil {
		return fmt.Errorf("failed to scan catalog cache: %w", err)
	}
	if err := c.client.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	util.Debug("Catalog cache invalidated", zap.Int("keys", len(keys)))
	return nil
}

// CatalogKey maps a filter to its cache key. Search text is case-folded so
// "SUV" and "suv" share an entry.
func CatalogKey(filter models.VehicleFilter) string {
	var b strings.Builder
	b.WriteString(catalogPrefix)
	b.WriteString(strings.ToLower(strings.TrimSpace(filter.Category)))
	b.WriteByte(':')
	b.WriteString(strings.ToLower(strings.TrimSpace(filter.Search)))
	fmt.Fprintf(&b, ":%t:%t:%d", filter.OnlyAvailable, filter.OnlyFeatured, filter.Limit)
	return b.String()
}
