package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subtube/domain/repository"
	"subtube/infrastructure/cache"
	youtubeclient "subtube/infrastructure/clients/youtube"
	"subtube/infrastructure/configuration"
	"subtube/infrastructure/logger"
	"subtube/infrastructure/persistence"
	httpHandler "subtube/interfaces/http"
	"subtube/server"
	"subtube/usecase"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	cfg := configuration.C

	ledgerRepository := persistence.NewLedgerRepository(cfg.Ledger.Path)

	var indexRepository repository.IStorage
	if cfg.Solr.URL != "" {
		indexRepository = persistence.NewSolrRepository(cfg.Solr.URL)
		logger.GetLogger().WithField("url", cfg.Solr.URL).Info("Solr index backend enabled")
	} else {
		logger.GetLogger().Info("SOLR_URL not set; \"solr\" source will be rejected as unavailable")
	}

	extractionCache := cache.NewExtractionCache()
	if addr, ok := cfg.RedisAddr(); ok {
		redisClient, err := cache.NewRedisClient(ctx, addr, cfg.RedisClient.Username, cfg.RedisClient.Password)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Redis not available; extraction cache is in-memory only")
		} else {
			extractionCache = extractionCache.WithRedis(redisClient)
			logger.GetLogger().Info("Redis cache tier attached to extraction cache")
		}
	} else {
		logger.GetLogger().Info("REDIS_HOST not set; extraction cache is in-memory only")
	}

	searchUseCase := usecase.NewSearchUseCase(ledgerRepository, indexRepository, cfg.Search.PageSize)
	searchHandler := httpHandler.NewSearchHandler(searchUseCase)

	// Without source credentials the server still serves search over existing
	// records; extraction endpoints report the missing configuration.
	var extractHandler httpHandler.IExtractHandler
	var extractionUseCase usecase.IExtractionUseCase
	youtubeConfig, err := configuration.GetYouTubeConfig()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("YouTube credentials not configured; running in search-only mode")
	} else {
		limiter := rate.NewLimiter(rate.Limit(cfg.Extraction.RatePerSecond), cfg.Extraction.Burst)
		sourceClient, err := youtubeclient.NewClient(ctx, youtubeConfig, limiter)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("YouTube client initialization failed; running in search-only mode")
		} else {
			var target repository.IStorage = ledgerRepository
			if cfg.Extraction.Target == usecase.SourceSolr && indexRepository != nil {
				target = indexRepository
			}
			extractionUseCase = usecase.NewExtractionUseCase(
				sourceClient,
				extractionCache,
				target,
				cfg.CacheTTL(),
				cfg.Extraction.Workers,
				cfg.Extraction.MaxAttempts,
			)
			extractHandler = httpHandler.NewExtractHandler(extractionUseCase)
			logger.GetLogger().WithFields(map[string]interface{}{
				"target":  cfg.Extraction.Target,
				"workers": cfg.Extraction.Workers,
			}).Info("Extraction pipeline initialized")
		}
	}

	router := server.InitiateRouter(searchHandler, extractHandler)

	// Optional periodic extraction. Overlapping runs are skipped; the
	// in-process cache makes a rerun inside the TTL cheap anyway.
	if cfg.Extraction.Schedule != "" && extractionUseCase != nil {
		scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
		_, err := scheduler.AddFunc(cfg.Extraction.Schedule, func() {
			summary, err := extractionUseCase.Run(ctx)
			if err != nil {
				logger.GetLogger().WithField("error", err).Error("Scheduled extraction run failed")
				return
			}
			logger.GetLogger().WithFields(map[string]interface{}{
				"channelsProcessed": summary.ChannelsProcessed,
				"videosPersisted":   summary.VideosPersisted,
				"failures":          len(summary.Failures),
			}).Info("Scheduled extraction run finished")
		})
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Invalid extraction schedule")
		} else {
			scheduler.Start()
			defer scheduler.Stop()
			logger.GetLogger().WithField("schedule", cfg.Extraction.Schedule).Info("Extraction scheduler started")
		}
	}

	port := cfg.App.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}
