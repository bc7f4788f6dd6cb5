package utils

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// Cache key prefixes written by middlewares.ResponseCache.
const (
	EventsListPrefix    = "cache:events:list:"
	EventsItemPrefix    = "cache:events:item:"
	EventsSimilarPrefix = "cache:events:similar:"
)

type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

func (ci *CacheInvalidator) purgePrefix(ctx context.Context, prefix string) {
	iter := ci.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		_ = ci.rdb.Del(ctx, iter.Val()).Err()
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache purge %s*: %v", prefix, err)
	}
}

// PurgeEventsList 刪除所有 events 列表 key
func (ci *CacheInvalidator) PurgeEventsList(ctx context.Context) {
	ci.purgePrefix(ctx, EventsListPrefix)
}

// PurgeEventItem drops the cached detail page of slug and every cached
// similar-events list, since any of them may embed the event.
func (ci *CacheInvalidator) PurgeEventItem(ctx context.Context, slug string) {
	if slug != "" {
		_ = ci.rdb.Del(ctx, EventsItemPrefix+slug).Err()
	}
	ci.purgePrefix(ctx, EventsSimilarPrefix)
}

// PurgeEvent is what writers call after an event changed.
func (ci *CacheInvalidator) PurgeEvent(ctx context.Context, slugs ...string) {
	for _, s := range slugs {
		ci.PurgeEventItem(ctx, s)
	}
	if len(slugs) == 0 {
		ci.purgePrefix(ctx, EventsSimilarPrefix)
	}
	ci.PurgeEventsList(ctx)
}
