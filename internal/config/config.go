package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port           int      `yaml:"port" toml:"port"`
		DataPath       string   `yaml:"data_path" toml:"data_path"`
		Debug          bool     `yaml:"debug" toml:"debug"`
		AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
	} `yaml:"app" toml:"app"`

	Metadata struct {
		// Timeout bounds every upstream call; no retries are attempted.
		Timeout string `yaml:"timeout" toml:"timeout"`
		TMDB    struct {
			APIKey        string `yaml:"api_key" toml:"api_key"`
			BaseURL       string `yaml:"base_url" toml:"base_url"`
			ImageBaseURL  string `yaml:"image_base_url" toml:"image_base_url"`
			PosterSize    string `yaml:"poster_size" toml:"poster_size"`
			ThumbnailSize string `yaml:"thumbnail_size" toml:"thumbnail_size"`
			Language      string `yaml:"language" toml:"language"`
		} `yaml:"tmdb" toml:"tmdb"`
		GoogleBooks struct {
			APIKey       string `yaml:"api_key" toml:"api_key"`
			BaseURL      string `yaml:"base_url" toml:"base_url"`
			LangRestrict string `yaml:"lang_restrict" toml:"lang_restrict"`
			PrintType    string `yaml:"print_type" toml:"print_type"`
		} `yaml:"google_books" toml:"google_books"`
	} `yaml:"metadata" toml:"metadata"`

	Database struct {
		Path string `yaml:"path" toml:"path"`
	} `yaml:"database" toml:"database"`

	Library struct {
		TagPruneInterval string `yaml:"tag_prune_interval" toml:"tag_prune_interval"`
	} `yaml:"library" toml:"library"`
}

// Load builds the configuration from defaults, the optional file at path
// (YAML, or TOML when the extension is .toml) and environment overrides.
// The returned Config is validated and must not be mutated afterwards.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading config: %w", err)
			}
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.App.Port = 8000
	cfg.App.DataPath = "./data"
	cfg.App.Debug = false
	cfg.App.AllowedOrigins = []string{"http://localhost:5173", "https://localhost:5173"}

	cfg.Metadata.Timeout = "10s"
	cfg.Metadata.TMDB.BaseURL = "https://api.themoviedb.org/3"
	cfg.Metadata.TMDB.ImageBaseURL = "https://image.tmdb.org/t/p"
	cfg.Metadata.TMDB.PosterSize = "w500"
	cfg.Metadata.TMDB.ThumbnailSize = "w185"
	cfg.Metadata.TMDB.Language = "pt-BR"

	cfg.Metadata.GoogleBooks.BaseURL = "https://www.googleapis.com/books/v1"
	cfg.Metadata.GoogleBooks.LangRestrict = "pt"
	cfg.Metadata.GoogleBooks.PrintType = "books"

	cfg.Database.Path = "./data/media_library.db"

	cfg.Library.TagPruneInterval = "1h"
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		cfg.Metadata.TMDB.APIKey = v
	}
	if v := os.Getenv("GOOGLE_BOOKS_API_KEY"); v != "" {
		cfg.Metadata.GoogleBooks.APIKey = v
	}
	if v := os.Getenv("MEDIASHELF_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = port
		}
	}
	if v := os.Getenv("MEDIASHELF_DATA_PATH"); v != "" {
		cfg.App.DataPath = v
	}
	if v := os.Getenv("MEDIASHELF_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("MEDIASHELF_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.App.Debug = debug
		}
	}
}

// Validate checks the values that would otherwise fail later at runtime.
// A missing TMDB key is not an error here: it only disables the film/TV
// provider, which reports it when the client is constructed.
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port %d out of range", c.App.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if _, err := c.UpstreamTimeout(); err != nil {
		return err
	}
	if _, err := c.TagPruneInterval(); err != nil {
		return err
	}
	for name, raw := range map[string]string{
		"metadata.tmdb.base_url":         c.Metadata.TMDB.BaseURL,
		"metadata.tmdb.image_base_url":   c.Metadata.TMDB.ImageBaseURL,
		"metadata.google_books.base_url": c.Metadata.GoogleBooks.BaseURL,
	} {
		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
		}
	}
	return nil
}

// UpstreamTimeout returns the per-call timeout for metadata providers.
func (c *Config) UpstreamTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Metadata.Timeout)
	if err != nil {
		return 0, fmt.Errorf("metadata.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("metadata.timeout must be positive, got %s", d)
	}
	return d, nil
}

// TagPruneInterval returns how often orphaned tags are removed. Zero disables pruning.
func (c *Config) TagPruneInterval() (time.Duration, error) {
	if c.Library.TagPruneInterval == "" || c.Library.TagPruneInterval == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Library.TagPruneInterval)
	if err != nil {
		return 0, fmt.Errorf("library.tag_prune_interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("library.tag_prune_interval must not be negative")
	}
	return d, nil
}
