package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"subtube/domain/apperror"
	"subtube/domain/dto"
	"subtube/domain/model"
	"subtube/domain/repository"
	"subtube/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

// IExtractionUseCase drives one extraction run: subscriptions in, video
// records persisted.
type IExtractionUseCase interface {
	Run(ctx context.Context) (*dto.ExtractionSummary, error)
}

// ExtractionUseCase fans channels out over a bounded worker pool. Every page
// fetch goes through the extraction cache, so a re-run inside the freshness
// window costs no external calls. A failing channel is recorded and skipped;
// an auth failure aborts the whole run.
type ExtractionUseCase struct {
	source      repository.ISource
	cache       repository.IExtractionCache
	storage     repository.IStorage
	ttl         time.Duration
	workers     int
	maxAttempts int
	backoff     time.Duration
}

func NewExtractionUseCase(source repository.ISource, cache repository.IExtractionCache, storage repository.IStorage, ttl time.Duration, workers, maxAttempts int) *ExtractionUseCase {
	if workers < 1 {
		workers = 4
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &ExtractionUseCase{
		source:      source,
		cache:       cache,
		storage:     storage,
		ttl:         ttl,
		workers:     workers,
		maxAttempts: maxAttempts,
		backoff:     time.Second,
	}
}

// WithBackoff overrides the base retry delay (fluent).
func (u *ExtractionUseCase) WithBackoff(d time.Duration) *ExtractionUseCase {
	u.backoff = d
	return u
}

func (u *ExtractionUseCase) Run(ctx context.Context) (*dto.ExtractionSummary, error) {
	started := time.Now()
	channels, err := u.source.ListSubscribedChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	var mu sync.Mutex
	summary := &dto.ExtractionSummary{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for _, ch := range channels {
		ch := ch
		g.Go(func() error {
			count, err := u.extractChannel(gctx, ch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				var auth *apperror.AuthError
				if errors.As(err, &auth) {
					// Credential is dead; remaining channels would fail the same way.
					return err
				}
				logger.GetLogger().WithField("error", err).WithField("channel", ch.Title).Warn("Channel extraction failed, continuing with remaining channels")
				summary.Failures = append(summary.Failures, dto.ChannelFailure{
					ChannelID:    ch.ID,
					ChannelTitle: ch.Title,
					Error:        err.Error(),
				})
				return nil
			}
			summary.ChannelsProcessed++
			summary.VideosPersisted += count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	logger.GetLogger().
		WithField("channels", summary.ChannelsProcessed).
		WithField("videos", summary.VideosPersisted).
		WithField("failures", len(summary.Failures)).
		WithField("elapsed", time.Since(started).String()).
		Info("Extraction run complete")
	return summary, nil
}

// extractChannel walks the channel's pages until the cursor runs out, then
// persists the accumulated batch in one upsert.
func (u *ExtractionUseCase) extractChannel(ctx context.Context, ch model.ChannelRef) (int, error) {
	var batch []model.VideoRecord
	pageToken := ""
	for {
		key := repository.CacheKey(ch.ID, pageToken)
		payload, err := u.cache.GetOrFetch(ctx, key, u.ttl, func(ctx context.Context) ([]byte, error) {
			page, err := u.fetchPage(ctx, ch.ID, pageToken)
			if err != nil {
				return nil, err
			}
			return json.Marshal(page)
		})
		if err != nil {
			return 0, err
		}

		var page model.VideoPage
		if err := json.Unmarshal(payload, &page); err != nil {
			return 0, fmt.Errorf("corrupt cache payload for %s: %w", key, err)
		}
		batch = append(batch, page.Videos...)

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	count, err := u.storage.Upsert(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("persist channel %s: %w", ch.ID, err)
	}
	return count, nil
}

// fetchPage retries transient and rate-limit failures with bounded attempts
// and growing delays. Auth failures are returned immediately.
func (u *ExtractionUseCase) fetchPage(ctx context.Context, channelID, pageToken string) (*model.VideoPage, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		page, err := u.source.ListVideos(ctx, channelID, pageToken)
		if err == nil {
			return page, nil
		}
		lastErr = err

		delay := u.backoff << (attempt - 1)
		var limited *apperror.RateLimitError
		var transient *apperror.TransientNetworkError
		switch {
		case errors.As(err, &limited):
			if limited.RetryAfter > delay {
				delay = limited.RetryAfter
			}
		case errors.As(err, &transient):
		default:
			return nil, err
		}

		if attempt >= u.maxAttempts {
			return nil, lastErr
		}
		logger.GetLogger().WithField("error", err).WithField("channel", channelID).WithField("attempt", attempt).Debug("Retrying video listing")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
