// Command openmat queries, exports, validates and submits to the gym
// directory and events datasets without running the service.
//
// Usage:
//
//	openmat directory --directory data/index.csv --state MA --opens sunday
//	openmat events --events data/events.csv --q "new events"
//	openmat validate --directory data/index.csv --events data/events.csv
//	openmat submit --brokers localhost:9092 --dataset events TITLE="Open Mat" DATE=2026-03-07
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anyjiujitsu/openmat-service/internal/adapter/source"
	"github.com/anyjiujitsu/openmat-service/internal/adapter/zippopotam"
	"github.com/anyjiujitsu/openmat-service/internal/adapter/zipstore"
	"github.com/anyjiujitsu/openmat-service/internal/catalog"
	"github.com/anyjiujitsu/openmat-service/internal/locator"
	"github.com/anyjiujitsu/openmat-service/internal/observability"
	"github.com/spf13/cobra"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	directory string
	events    string
	timezone  string
	awsRegion string
	jsonOut   bool
	logLevel  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:          "openmat",
		Short:        "Browse and maintain the open mat directory and events calendar",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.directory, "directory", "data/index.csv", "directory CSV (path, http(s) URL or s3://bucket/key)")
	pf.StringVar(&opts.events, "events", "data/events.csv", "events CSV (path, http(s) URL or s3://bucket/key); empty for none")
	pf.StringVar(&opts.timezone, "timezone", "Local", "IANA zone that defines today")
	pf.StringVar(&opts.awsRegion, "aws-region", "us-east-1", "region for s3:// sources")
	pf.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of text")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newDirectoryCmd(opts),
		newEventsCmd(opts),
		newFacetsCmd(opts),
		newExportCmd(opts),
		newValidateCmd(opts),
		newSubmitCmd(opts),
	)
	return root
}

func (o *globalOptions) logger() *slog.Logger {
	return observability.NewLoggerTo(os.Stderr, o.logLevel, "text")
}

func (o *globalOptions) location() (*time.Location, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --timezone %q: %w", o.timezone, err)
	}
	return loc, nil
}

func (o *globalOptions) sourceOptions() source.Options {
	return source.Options{HTTPTimeout: 30 * time.Second, AWSRegion: o.awsRegion}
}

// loadCatalog builds a catalog over the configured files and loads it once.
// withZips attaches a ZIP locator backed by Zippopotam and an in-memory cache.
func (o *globalOptions) loadCatalog(ctx context.Context, withZips bool) (*catalog.Catalog, error) {
	loc, err := o.location()
	if err != nil {
		return nil, err
	}
	logger := o.logger()
	// Unregistered: the CLI serves no /metrics.
	metrics := observability.NewMetricsForTesting()

	dir, err := source.Open(ctx, o.directory, o.sourceOptions())
	if err != nil {
		return nil, fmt.Errorf("open directory: %w", err)
	}
	var events catalog.Fetcher
	if o.events != "" {
		if events, err = source.Open(ctx, o.events, o.sourceOptions()); err != nil {
			return nil, fmt.Errorf("open events: %w", err)
		}
	}

	opts := catalog.Options{
		Directory: dir,
		Events:    events,
		Location:  loc,
		Logger:    logger,
		Metrics:   metrics,
	}
	if withZips {
		resolver := zippopotam.NewClient(zippopotam.DefaultBaseURL, locator.DefaultTimeout, logger)
		opts.Locator = locator.New(resolver, zipstore.NewMemoryStore(), locator.DefaultTimeout, logger, metrics)
	}

	cat := catalog.New(opts)
	if err := cat.Load(ctx); err != nil {
		return nil, err
	}
	return cat, nil
}
