package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Storage        StorageConfig        `yaml:"storage"`
	Database       DatabaseConfig       `yaml:"database"`
	Import         ImportConfig         `yaml:"import"`
	Scrape         ScrapeConfig         `yaml:"scrape"`
	Classification ClassificationConfig `yaml:"classification"`
	Watch          WatchConfig          `yaml:"watch"`
	Log            LogConfig            `yaml:"log"`
}

// ServerConfig holds daemon-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// StorageConfig holds content store configuration
type StorageConfig struct {
	DataDir     string       `yaml:"data_dir"`
	MaxFileSize int64        `yaml:"max_file_size"`
	S3          MirrorConfig `yaml:"s3"`
}

// MirrorConfig configures the optional S3-compatible copy of committed blobs.
type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// ImportConfig holds import pipeline switches
type ImportConfig struct {
	ExtractText        bool          `yaml:"extract_text"`
	GenerateThumbnails bool          `yaml:"generate_thumbnails"`
	Workers            int           `yaml:"workers"`
	FileTimeout        time.Duration `yaml:"file_timeout"`
	Pdftotext          string        `yaml:"pdftotext"`
}

// ScrapeConfig holds web fetcher configuration
type ScrapeConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	UserAgent     string        `yaml:"user_agent"`
}

// ClassificationConfig holds rule and AI settings
type ClassificationConfig struct {
	AutoClassify    bool                 `yaml:"auto_classify"`
	UseAI           bool                 `yaml:"use_ai"`
	AIProvider      string               `yaml:"ai_provider"`
	AIMinConfidence float64              `yaml:"ai_min_confidence"`
	AITimeout       time.Duration        `yaml:"ai_timeout"`
	DeepSeek        ProviderConfig       `yaml:"deepseek"`
	Ollama          ProviderConfig       `yaml:"ollama"`
	Rules           []ClassificationRule `yaml:"rules"`
}

// ProviderConfig describes one AI completion endpoint.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// ClassificationRule is one declarative category signal set.
type ClassificationRule struct {
	Category     string   `yaml:"category" json:"category"`
	Keywords     []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	FileTypes    []string `yaml:"file_types,omitempty" json:"file_types,omitempty"`
	PathPatterns []string `yaml:"path_patterns,omitempty" json:"path_patterns,omitempty"`
}

// WatchConfig holds daemon watch-mode settings
type WatchConfig struct {
	Roots       []string      `yaml:"roots"`
	Debounce    time.Duration `yaml:"debounce"`
	InitialScan bool          `yaml:"initial_scan"`
	QueueSize   int           `yaml:"queue_size"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AI provider names.
const (
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
)

// DefaultConfig returns the configuration used when nothing is supplied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{GRPCAddr: "127.0.0.1:8000"},
		Storage: StorageConfig{
			DataDir:     "./data",
			MaxFileSize: 100 * 1024 * 1024,
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Import: ImportConfig{
			ExtractText:        true,
			GenerateThumbnails: true,
			Workers:            4,
			FileTimeout:        60 * time.Second,
			Pdftotext:          "pdftotext",
		},
		Scrape: ScrapeConfig{
			Timeout:       30 * time.Second,
			RatePerSecond: 2,
			Burst:         1,
			MaxBodyBytes:  10 << 20,
		},
		Classification: ClassificationConfig{
			AutoClassify:    true,
			AIProvider:      ProviderDeepSeek,
			AIMinConfidence: 0.3,
			AITimeout:       30 * time.Second,
			DeepSeek: ProviderConfig{
				BaseURL: "https://api.deepseek.com/v1",
				Model:   "deepseek-chat",
			},
			Ollama: ProviderConfig{
				BaseURL: "http://localhost:11434",
				Model:   "qwen2.5:7b",
			},
		},
		Watch: WatchConfig{
			Debounce:  500 * time.Millisecond,
			QueueSize: 256,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig resolves defaults, then the YAML file at path (if any), then
// environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("KVAULT_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewAppError(CodeConfig, fmt.Sprintf("config file %s not found", path), ErrInvalidInput)
		}
		return NewAppError(CodeConfig, "read config", err)
	}

	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return NewAppError(CodeConfig, fmt.Sprintf("parse %s", path), errors.Join(ErrInvalidInput, err))
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.GRPCAddr = getEnv("KVAULT_GRPC_ADDR", c.Server.GRPCAddr)
	c.Storage.DataDir = getEnv("KVAULT_DATA_DIR", c.Storage.DataDir)
	c.Storage.MaxFileSize = getEnvAsInt64("KVAULT_MAX_FILE_SIZE", c.Storage.MaxFileSize)
	c.Database.DSN = getEnv("KVAULT_DB_URL", c.Database.DSN)
	c.Import.Workers = getEnvAsInt("KVAULT_IMPORT_WORKERS", c.Import.Workers)
	c.Scrape.Timeout = getEnvAsDuration("KVAULT_SCRAPE_TIMEOUT", c.Scrape.Timeout)
	c.Log.Level = getEnv("KVAULT_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("KVAULT_LOG_FORMAT", c.Log.Format)

	cl := &c.Classification
	cl.UseAI = getEnvAsBool("KVAULT_USE_AI", cl.UseAI)
	cl.AIProvider = strings.ToLower(getEnv("AI_PROVIDER", cl.AIProvider))
	cl.DeepSeek.APIKey = getEnv("KNOWLEDGEVAULT_DEEPSEEK_API_KEY", getEnv("DEEPSEEK_API_KEY", cl.DeepSeek.APIKey))
	cl.DeepSeek.Model = getEnv("DEEPSEEK_MODEL", cl.DeepSeek.Model)
	cl.Ollama.BaseURL = getEnv("OLLAMA_URL", cl.Ollama.BaseURL)
	cl.Ollama.Model = getEnv("OLLAMA_MODEL", cl.Ollama.Model)

	s3 := &c.Storage.S3
	s3.Endpoint = getEnv("KVAULT_S3_ENDPOINT", s3.Endpoint)
	s3.AccessKey = getEnv("KVAULT_S3_ACCESS_KEY", s3.AccessKey)
	s3.SecretKey = getEnv("KVAULT_S3_SECRET_KEY", s3.SecretKey)
	s3.Bucket = getEnv("KVAULT_S3_BUCKET", s3.Bucket)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return NewAppError(CodeConfig, "storage.data_dir is required", ErrInvalidInput)
	}
	if c.Storage.MaxFileSize <= 0 {
		return NewAppError(CodeConfig, "storage.max_file_size must be positive", ErrInvalidInput)
	}
	if c.Import.Workers <= 0 {
		return NewAppError(CodeConfig, "import.workers must be positive", ErrInvalidInput)
	}
	cl := c.Classification
	switch cl.AIProvider {
	case ProviderDeepSeek, ProviderOllama:
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown ai_provider %q", cl.AIProvider), ErrInvalidInput)
	}
	if cl.UseAI && cl.AIProvider == ProviderDeepSeek && cl.DeepSeek.APIKey == "" {
		return NewAppError(CodeConfig, "an API key is required when use_ai is enabled for "+cl.AIProvider, ErrInvalidInput)
	}
	if cl.AIMinConfidence < 0 || cl.AIMinConfidence > 1 {
		return NewAppError(CodeConfig, "classification.ai_min_confidence must be within [0,1]", ErrInvalidInput)
	}
	if err := ValidateRules(cl.Rules); err != nil {
		return NewAppError(CodeConfig, "classification.rules", err)
	}
	if c.Storage.S3.Enabled && (c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "") {
		return NewAppError(CodeConfig, "storage.s3 requires endpoint and bucket", ErrInvalidInput)
	}
	return nil
}

// FilesDir is the sharded blob area.
func (s StorageConfig) FilesDir() string { return filepath.Join(s.DataDir, "files") }

// ThumbnailsDir is the flat thumbnail area.
func (s StorageConfig) ThumbnailsDir() string { return filepath.Join(s.DataDir, "thumbnails") }

// DatabaseDSN returns the configured DSN or a sqlite file under the data dir.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return filepath.Join(c.Storage.DataDir, "knowledge_vault.db")
}

// EnsureDirectories creates the data directory and both store subtrees.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Storage.DataDir, c.Storage.FilesDir(), c.Storage.ThumbnailsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return StorageError("create "+dir, err)
		}
	}
	return nil
}
