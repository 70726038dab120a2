package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Analyzer backends.
const (
	AnalyzerBackend = "backend"
	AnalyzerGemini  = "gemini"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ZonesFile       string

	// Imagery export configuration.
	ImageryBaseURL   string
	ImageryTimeout   time.Duration
	ImageryCacheSize int
	ImageryDelta     float64
	ImagerySize      int

	// Analysis backend configuration.
	BackendURL     string
	BackendTimeout time.Duration
	Analyzer       string
	GeminiAPIKey   string
	GeminiModel    string

	// Zone notifications.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaNotifyTopic string

	// Snapshot archive.
	ArchiveEnabled bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	imageryTimeout, err := parsePositiveDuration("IMAGERY_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	backendTimeout, err := parsePositiveDuration("BACKEND_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	delta, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("IMAGERY_DELTA", "0.002"), 64)
	if err != nil || delta <= 0 || delta > 1 {
		return nil, errors.New("invalid IMAGERY_DELTA")
	}

	size, err := strconv.Atoi(sharedcfg.EnvOrDefault("IMAGERY_SIZE", "640"))
	if err != nil || size <= 0 || size > 4096 {
		return nil, errors.New("invalid IMAGERY_SIZE")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		ZonesFile:       os.Getenv("ZONES_FILE"),

		ImageryBaseURL:   sharedcfg.EnvOrDefault("IMAGERY_BASE_URL", "https://services.arcgisonline.com/arcgis/rest/services/World_Imagery/MapServer/export"),
		ImageryTimeout:   imageryTimeout,
		ImageryCacheSize: parsePositiveInt("IMAGERY_CACHE_SIZE", 256),
		ImageryDelta:     delta,
		ImagerySize:      size,

		BackendURL:     sharedcfg.EnvOrDefault("BACKEND_URL", "http://localhost:8000"),
		BackendTimeout: backendTimeout,
		Analyzer:       sharedcfg.EnvOrDefault("ANALYZER", AnalyzerBackend),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaNotifyTopic: sharedcfg.EnvOrDefault("KAFKA_NOTIFY_TOPIC", "zone-risk-notifications"),

		ArchiveEnabled: os.Getenv("ARCHIVE_ENABLED") == "true",
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    sharedcfg.EnvOrDefault("MINIO_BUCKET", "zone-snapshots"),
		MinioSecure:    os.Getenv("MINIO_SECURE") == "true",
	}

	if cfg.Analyzer != AnalyzerBackend && cfg.Analyzer != AnalyzerGemini {
		return nil, fmt.Errorf("invalid ANALYZER %q: want %q or %q", cfg.Analyzer, AnalyzerBackend, AnalyzerGemini)
	}
	if cfg.BackendURL == "" {
		return nil, errors.New("BACKEND_URL is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaNotifyTopic == "" {
			return nil, errors.New("KAFKA_NOTIFY_TOPIC is required")
		}
	}
	if cfg.ArchiveEnabled && cfg.MinioEndpoint == "" {
		return nil, errors.New("ARCHIVE_ENABLED is true but MINIO_ENDPOINT is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
