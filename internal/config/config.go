package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// ZIP cache backends.
const (
	ZipCacheBolt   = "bolt"
	ZipCacheRedis  = "redis"
	ZipCacheMemory = "memory"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// CSV dataset locations: a path, an http(s) URL or s3://bucket/key.
	DirectorySource string
	EventsSource    string
	ReloadInterval  time.Duration
	Location        *time.Location
	AWSRegion       string

	// ZIP lookup for the distance filter.
	ZipCacheBackend   string
	ZipCachePath      string
	RedisAddr         string
	ZippopotamBaseURL string

	// Place geocoding for directory rows without coordinates.
	GeocodeTimeout   time.Duration
	MapboxToken      string
	MapboxEnabled    bool
	MapboxCacheSize  int
	NominatimEnabled bool

	// Admin submissions stream.
	KafkaEnabled          bool
	KafkaBrokers          []string
	KafkaSubmissionsTopic string
	KafkaGroupID          string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	reloadInterval, err := parsePositiveDuration("RELOAD_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	tz := sharedcfg.EnvOrDefault("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	nominatimEnabled, err := parseBool("NOMINATIM_ENABLED", false)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DirectorySource: sharedcfg.EnvOrDefault("DIRECTORY_SOURCE", "data/index.csv"),
		EventsSource:    os.Getenv("EVENTS_SOURCE"),
		ReloadInterval:  reloadInterval,
		Location:        loc,
		AWSRegion:       sharedcfg.EnvOrDefault("AWS_REGION", "us-east-1"),

		ZipCacheBackend:   strings.ToLower(sharedcfg.EnvOrDefault("ZIP_CACHE_BACKEND", ZipCacheBolt)),
		ZipCachePath:      sharedcfg.EnvOrDefault("ZIP_CACHE_PATH", "data/zipcache.db"),
		RedisAddr:         sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		ZippopotamBaseURL: sharedcfg.EnvOrDefault("ZIPPOPOTAM_BASE_URL", "https://api.zippopotam.us/us"),

		GeocodeTimeout:   geocodeTimeout,
		MapboxToken:      mapboxToken,
		MapboxEnabled:    mapboxEnabled,
		MapboxCacheSize:  parseMapboxCacheSize(),
		NominatimEnabled: nominatimEnabled,

		KafkaEnabled:          kafkaEnabled,
		KafkaBrokers:          sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSubmissionsTopic: sharedcfg.EnvOrDefault("KAFKA_SUBMISSIONS_TOPIC", "openmat-submissions"),
		KafkaGroupID:          sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "openmat-service"),

		CORSAllowedOrigins: parseList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}

	if _, set := os.LookupEnv("EVENTS_SOURCE"); !set {
		cfg.EventsSource = "data/events.csv"
	}

	if strings.TrimSpace(cfg.DirectorySource) == "" {
		return nil, errors.New("DIRECTORY_SOURCE is required")
	}
	switch cfg.ZipCacheBackend {
	case ZipCacheBolt, ZipCacheRedis, ZipCacheMemory:
	default:
		return nil, fmt.Errorf("invalid ZIP_CACHE_BACKEND %q: want bolt, redis or memory", cfg.ZipCacheBackend)
	}
	if cfg.ZipCacheBackend == ZipCacheRedis && cfg.RedisAddr == "" {
		return nil, errors.New("ZIP_CACHE_BACKEND is redis but REDIS_ADDR is not set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSubmissionsTopic == "" {
			return nil, errors.New("KAFKA_SUBMISSIONS_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// GeocodingEnabled reports whether any place geocoder is configured.
func (c *Config) GeocodingEnabled() bool {
	return c.MapboxEnabled || c.NominatimEnabled
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, s)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be true or false", key, s)
	}
	return b, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
