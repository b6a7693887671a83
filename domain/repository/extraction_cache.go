package repository

import (
	"context"
	"fmt"
	"time"
)

// FetchFunc produces the raw payload for a cache key when no fresh entry exists.
type FetchFunc func(ctx context.Context) ([]byte, error)

// IExtractionCache memoizes external API calls keyed by call signature. A
// lookup whose entry is younger than its TTL must never invoke the fetch
// function, and concurrent misses for the same key collapse into a single
// underlying call.
type IExtractionCache interface {
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error)
}

// CacheKey builds the call signature for a (channel, cursor) invocation.
func CacheKey(channelID, pageToken string) string {
	if pageToken == "" {
		return channelID
	}
	return fmt.Sprintf("%s|%s", channelID, pageToken)
}
