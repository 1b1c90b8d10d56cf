package redis

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/repository"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/metrics"

	goredis "github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	listingKeyPrefix  = "listing:"
	defaultListingTTL = 5 * time.Minute
)

// ListingCache кеширует объявления в Redis в виде JSON
type ListingCache struct {
	client  *goredis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewListingCache создает кеш объявлений; m может быть nil
func NewListingCache(client *goredis.Client, ttl time.Duration, m *metrics.Metrics) repository.ListingCache {
	if ttl <= 0 {
		ttl = defaultListingTTL
	}

	tracer := otel.Tracer("listing-cache")
	if m != nil && m.Tracer != nil {
		tracer = m.Tracer
	}

	return &ListingCache{client: client, ttl: ttl, metrics: m, tracer: tracer}
}

func listingKey(id string) string {
	return listingKeyPrefix + id
}

// Get возвращает объявление из кеша. Промах не считается ошибкой.
func (c *ListingCache) Get(ctx context.Context, id string) (*domain.Listing, bool, error) {
	ctx, span := c.tracer.Start(ctx, "cache.listing.get")
	defer span.End()
	span.SetAttributes(attribute.String("listing.id", id))

	data, err := c.client.Get(ctx, listingKey(id)).Bytes()
	if stdErrors.Is(err, goredis.Nil) {
		c.observe(false)
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, false, errors.Wrap(err, errors.ErrUnavailable, "failed to read listing cache")
	}

	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		// Поврежденная запись удаляется и считается промахом
		c.client.Del(ctx, listingKey(id))
		c.observe(false)
		return nil, false, nil
	}

	c.observe(true)
	return &listing, true, nil
}

// Set сохраняет объявление с TTL
func (c *ListingCache) Set(ctx context.Context, listing *domain.Listing) error {
	ctx, span := c.tracer.Start(ctx, "cache.listing.set")
	defer span.End()

	data, err := json.Marshal(listing)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode listing")
	}

	if err := c.client.Set(ctx, listingKey(listing.ID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.ErrUnavailable, "failed to write listing cache")
	}
	return nil
}

// Delete удаляет объявление из кеша
func (c *ListingCache) Delete(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "cache.listing.delete")
	defer span.End()

	if err := c.client.Del(ctx, listingKey(id)).Err(); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.ErrUnavailable, "failed to invalidate listing cache")
	}
	return nil
}

func (c *ListingCache) observe(hit bool) {
	if c.metrics != nil {
		c.metrics.ObserveCache(hit)
	}
}
