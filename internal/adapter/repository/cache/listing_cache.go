package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	listingKeyPrefix    = "listing:"
	generationKeyPrefix = "listing:gen:"
)

// setIfGeneration writes the entry only while the generation key still holds ARGV[1].
// A missing generation key counts as 0.
var setIfGeneration = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func NewListingCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ListingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ListingCache{client: client, ttl: ttl, logger: log.Named("ListingCache")}
}

// GetListing returns nil, nil on a miss.
func (c *ListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, listingKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		c.logger.Warn("dropping undecodable cache entry", zap.String("listing_id", id), zap.Error(err))
		_ = c.client.Del(ctx, listingKeyPrefix+id).Err()
		return nil, nil
	}
	return &listing, nil
}

// Generation returns the invalidation counter a fill must present to SetListing.
func (c *ListingCache) Generation(ctx context.Context, id string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKeyPrefix+id).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetListing caches listing unless it was invalidated after generation was read.
func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing, generation int64) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{generationKeyPrefix + listing.ID, listingKeyPrefix + listing.ID},
		strconv.FormatInt(generation, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if stored == 0 {
		c.logger.Debug("skipped stale cache fill", zap.String("listing_id", listing.ID), zap.Int64("generation", generation))
	}
	return nil
}

// DeleteListing drops the entry and advances the generation so in-flight fills are discarded.
// The generation outlives the entry it guards.
func (c *ListingCache) DeleteListing(ctx context.Context, id string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKeyPrefix+id)
		pipe.Expire(ctx, generationKeyPrefix+id, 2*c.ttl)
		pipe.Del(ctx, listingKeyPrefix+id)
		return nil
	})
	return err
}
