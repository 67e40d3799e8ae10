package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the main configuration for eventmeet.
type Config struct {
	DeviceID string `toml:"device_id"`
	BaseDir  string `toml:"base_dir"`
	LogDir   string `toml:"log_dir"`
	LogLevel string `toml:"log_level" env:"EVENTMEET_LOG_LEVEL" env-default:"info"`

	// APIKey authenticates against the events API. It is never written by
	// NewConfig; `config init` prompts for it.
	APIKey string `toml:"api_key" env:"EVENTMEET_API_KEY"`

	Remote   RemoteConfig   `toml:"remote"`
	Cache    CacheConfig    `toml:"cache"`
	Database DatabaseConfig `toml:"database"`
	Backup   BackupConfig   `toml:"backup"`
}

// RemoteConfig holds settings for the events API client.
type RemoteConfig struct {
	BaseURL string        `toml:"base_url" env:"EVENTMEET_BASE_URL" env-default:"https://connpass.com/api/v2/"`
	Timeout time.Duration `toml:"timeout" env:"EVENTMEET_REMOTE_TIMEOUT" env-default:"30s"`

	// MinInterval spaces consecutive API requests. Zero, or leaving it out of
	// the file, disables pacing; NewConfig writes one second.
	MinInterval time.Duration `toml:"min_interval" env:"EVENTMEET_REMOTE_MIN_INTERVAL"`
}

// CacheConfig holds event cache settings.
type CacheConfig struct {
	StaleAfter time.Duration `toml:"stale_after" env:"EVENTMEET_CACHE_STALE_AFTER" env-default:"1h"`
}

// DatabaseConfig represents configuration for the local database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type" env:"EVENTMEET_DB_TYPE" env-default:"sqlite"` // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"`                               // only used for type=sqlite
}

// BackupConfig represents configuration for the snapshot vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BackupConfig struct {
	Type string `toml:"type,omitempty"` // "filesystem", "s3" or "memory"; empty disables backups

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(deviceID, baseDir string) *Config {
	return &Config{
		DeviceID: deviceID,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Remote: RemoteConfig{
			Timeout:     30 * time.Second,
			MinInterval: time.Second,
		},
		Cache: CacheConfig{StaleAfter: time.Hour},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Backup: BackupConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "backups"),
		},
	}
}

// Validate checks the settings the application cannot start without.
func (c *Config) Validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	if c.LogDir == "" {
		return fmt.Errorf("log_dir is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be positive")
	}
	if c.Remote.MinInterval < 0 {
		return fmt.Errorf("remote.min_interval must not be negative")
	}
	if c.Cache.StaleAfter <= 0 {
		return fmt.Errorf("cache.stale_after must be positive")
	}
	switch c.Backup.Type {
	case "", "memory":
	case "filesystem":
		if c.Backup.FSRoot == "" {
			return fmt.Errorf("backup.fs_root is required for filesystem backups")
		}
	case "s3":
		if c.Backup.S3Bucket == "" {
			return fmt.Errorf("backup.s3_bucket is required for s3 backups")
		}
	default:
		return fmt.Errorf("unknown backup type %q", c.Backup.Type)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader, then applies environment
// overrides and defaults for settings the file leaves empty.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path. The file holds the
// API key, so it is only readable by its owner.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
