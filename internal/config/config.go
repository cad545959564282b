package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "America/Toronto"
	defaultRefreshCron = "0 */6 * * *"
	defaultHorizonDays = 90
	defaultCacheDir    = "./var/ics-cache"
	defaultScrapeURL   = "https://mlh.io/seasons/2026/events"
	defaultIssueRepo   = "https://github.com/tjklint/CanConf"
)

// ICSConfig describes a single ICS feed whose events are imported as meetups.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Province is assigned to imported events whose location names none.
	Province string `yaml:"province,omitempty" json:"province,omitempty"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type ScrapeConfig struct {
	URL            string `yaml:"url" json:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Timeout returns the scrape timeout as a duration.
func (s ScrapeConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone in which "today" is decided.
	Timezone string `yaml:"timezone" json:"timezone"`

	// CatalogPath points at an events JSON file. Empty means the dataset
	// compiled into the binary.
	CatalogPath string `yaml:"catalog_path" json:"catalog_path"`

	// RefreshCron is a cron-style schedule for re-importing ICS feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays bounds recurring ICS events to this many days ahead.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// CacheDir holds conditional-GET caches for ICS feeds.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// ICS is the list of imported ICS feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// IssueRepoURL is the GitHub repository that receives data corrections.
	IssueRepoURL string `yaml:"issue_repo_url" json:"issue_repo_url"`

	Log    LogConfig    `yaml:"log" json:"log"`
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Timezone:     defaultTimezone,
		RefreshCron:  defaultRefreshCron,
		HorizonDays:  defaultHorizonDays,
		CacheDir:     defaultCacheDir,
		ICS:          []ICSConfig{},
		IssueRepoURL: defaultIssueRepo,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Scrape: ScrapeConfig{
			URL:            defaultScrapeURL,
			TimeoutSeconds: 60,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.IssueRepoURL == "" {
		c.IssueRepoURL = defaultIssueRepo
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		c.Log.Format = "json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Scrape.URL == "" {
		c.Scrape.URL = defaultScrapeURL
	}
	if c.Scrape.TimeoutSeconds <= 0 {
		c.Scrape.TimeoutSeconds = 60
	}
}

// ApplyEnv overrides selected fields from CANCONF_* environment variables.
func (c *Config) ApplyEnv() {
	c.Listen = getEnv("CANCONF_LISTEN", c.Listen)
	c.Timezone = getEnv("CANCONF_TIMEZONE", c.Timezone)
	c.CatalogPath = getEnv("CANCONF_CATALOG", c.CatalogPath)
	c.Log.Level = getEnv("CANCONF_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("CANCONF_LOG_FORMAT", c.Log.Format)
	c.HorizonDays = getEnvInt("CANCONF_HORIZON_DAYS", c.HorizonDays)
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

// ErrEmptyPath is returned by Load and Save when no path is given.
var ErrEmptyPath = errors.New("config: path is empty")

// Load reads the YAML config at path and fills in defaults. A missing file
// is created with the defaults on first run; if that write fails the
// defaults are still returned alongside the error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, fmt.Errorf("config: write defaults: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save normalizes cfg and writes it to path through a temp file in the same
// directory, so readers never see a partial file. The result is mode 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}
	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".canconf-config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeAndClose(tmp, data); err != nil {
		return fmt.Errorf("config: write %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("config: chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: replace %s: %w", path, err)
	}
	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Save is a convenience method on Config that delegates to Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
