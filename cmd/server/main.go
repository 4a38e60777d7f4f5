package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/anyjiujitsu/openmat-service/internal/adapter/http"
	kafkaadapter "github.com/anyjiujitsu/openmat-service/internal/adapter/kafka"
	"github.com/anyjiujitsu/openmat-service/internal/adapter/mapbox"
	"github.com/anyjiujitsu/openmat-service/internal/adapter/nominatim"
	"github.com/anyjiujitsu/openmat-service/internal/adapter/source"
	"github.com/anyjiujitsu/openmat-service/internal/adapter/zippopotam"
	"github.com/anyjiujitsu/openmat-service/internal/adapter/zipstore"
	"github.com/anyjiujitsu/openmat-service/internal/catalog"
	"github.com/anyjiujitsu/openmat-service/internal/config"
	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/anyjiujitsu/openmat-service/internal/locator"
	"github.com/anyjiujitsu/openmat-service/internal/observability"
)

// sourceTimeout bounds a single CSV download.
const sourceTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer

	store, err := openZipStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open zip cache", "backend", cfg.ZipCacheBackend, "error", err)
		os.Exit(1)
	}
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c)
	}
	logger.Info("zip cache ready", "backend", cfg.ZipCacheBackend)

	resolver := zippopotam.NewClient(cfg.ZippopotamBaseURL, locator.DefaultTimeout, logger)
	zips := locator.New(resolver, store, locator.DefaultTimeout, logger, metrics)

	geocoder := newGeocoder(cfg, metrics, logger)

	srcOpts := source.Options{HTTPTimeout: sourceTimeout, AWSRegion: cfg.AWSRegion}
	directory, err := source.Open(ctx, cfg.DirectorySource, srcOpts)
	if err != nil {
		logger.Error("invalid directory source", "source", cfg.DirectorySource, "error", err)
		os.Exit(1)
	}
	var events catalog.Fetcher
	if cfg.EventsSource != "" {
		events, err = source.Open(ctx, cfg.EventsSource, srcOpts)
		if err != nil {
			logger.Error("invalid events source", "source", cfg.EventsSource, "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("no events source configured, serving zero events")
	}

	cat := catalog.New(catalog.Options{
		Directory: directory,
		Events:    events,
		Geocoder:  geocoder,
		Locator:   zips,
		Location:  cfg.Location,
		Logger:    logger,
		Metrics:   metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, cat, cfg.CORSAllowedOrigins, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Keep the catalog fresh.
	go func() {
		if err := cat.Run(ctx, cfg.ReloadInterval); err != nil {
			logger.Error("catalog reloader error", "error", err)
		}
	}()

	// Apply admin submissions as they arrive.
	if cfg.KafkaEnabled {
		reader := kafkaadapter.NewReader(cfg, logger)
		closers = append(closers, reader)
		go func() {
			if err := cat.ConsumeSubmissions(ctx, reader); err != nil {
				logger.Error("submission consumer error", "error", err)
			}
		}()
	} else {
		logger.Info("submission stream disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// openZipStore opens the persisted ZIP coordinate cache for the configured
// backend.
func openZipStore(ctx context.Context, cfg *config.Config) (domain.CoordinateStore, error) {
	switch cfg.ZipCacheBackend {
	case config.ZipCacheBolt:
		return zipstore.OpenBolt(cfg.ZipCachePath)
	case config.ZipCacheRedis:
		return zipstore.DialRedis(ctx, cfg.RedisAddr)
	case config.ZipCacheMemory:
		return zipstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown zip cache backend %q", cfg.ZipCacheBackend)
	}
}

// newGeocoder returns the place geocoder used to fill in directory rows
// without coordinates, or nil when geocoding is disabled. Mapbox wins when
// both providers are enabled.
func newGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	var inner domain.Geocoder
	switch {
	case cfg.MapboxEnabled:
		inner = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, metrics, logger)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.GeocodeTimeout)
	case cfg.NominatimEnabled:
		inner = nominatim.NewClient(nominatim.DefaultBaseURL, cfg.GeocodeTimeout, metrics, logger)
		logger.Info("nominatim geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.GeocodeTimeout)
	default:
		metrics.GeocodeEnabled.Set(0)
		logger.Info("place geocoding disabled")
		return nil
	}
	metrics.GeocodeEnabled.Set(1)
	return mapbox.NewCachedGeocoder(inner, cfg.MapboxCacheSize, metrics)
}
