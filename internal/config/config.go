package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// MarketTemplate describes the weekly farmers-market source.
type MarketTemplate struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Location    string `yaml:"location" json:"location"`
	SourceURL   string `yaml:"source_url" json:"source_url"`
	ImageURL    string `yaml:"image_url" json:"image_url"`
	// Weekday uses Go numbering: 0 = Sunday .. 6 = Saturday.
	Weekday     int    `yaml:"weekday" json:"weekday"`
	Hour        int    `yaml:"hour" json:"hour"`
	Occurrences int    `yaml:"occurrences" json:"occurrences"`
	Category    string `yaml:"category" json:"category"`
	Free        bool   `yaml:"free" json:"free"`
}

// InstitutionTemplate describes one institution with a weekly service.
type InstitutionTemplate struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Location    string `yaml:"location" json:"location"`
	SourceURL   string `yaml:"source_url" json:"source_url"`
	ImageURL    string `yaml:"image_url" json:"image_url"`
	Weekday     int    `yaml:"weekday" json:"weekday"`
	Hour        int    `yaml:"hour" json:"hour"`
	Category    string `yaml:"category" json:"category"`
	Free        bool   `yaml:"free" json:"free"`
}

// OneOffTemplate describes a single community happening at a fixed
// day-offset from the moment the pipeline runs.
type OneOffTemplate struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Location    string `yaml:"location" json:"location"`
	SourceURL   string `yaml:"source_url" json:"source_url"`
	ImageURL    string `yaml:"image_url" json:"image_url"`
	OffsetDays  int    `yaml:"offset_days" json:"offset_days"`
	Hour        int    `yaml:"hour" json:"hour"`
	Category    string `yaml:"category" json:"category"`
	Free        bool   `yaml:"free" json:"free"`
}

// DatabaseConfig holds the optional persistence collaborator settings.
// An empty DSN disables storage entirely.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" json:"dsn"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone in which occurrences are projected
	// and served (e.g. "America/Chicago").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule string (e.g. "*/30 * * * *")
	// controlling how often the feed is regenerated.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Database, if it carries a DSN, enables the Postgres feed writer.
	Database DatabaseConfig `yaml:"database" json:"database"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// Source templates. These are the static tables the generators
	// project into concrete occurrences.
	Market       MarketTemplate        `yaml:"market" json:"market"`
	Institutions []InstitutionTemplate `yaml:"institutions" json:"institutions"`
	Community    []OneOffTemplate      `yaml:"community" json:"community"`
}

// DefaultConfig returns an in-memory default configuration with the
// built-in template tables.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "America/Chicago",
		LogLevel:    "info",
		RefreshCron: "*/30 * * * *",
		Market: MarketTemplate{
			Title:       "Riverside Farmers Market",
			Description: "Local produce, baked goods and crafts every Saturday morning.",
			Location:    "Riverside Park Pavilion",
			SourceURL:   "https://riversidemarket.example.org",
			ImageURL:    "https://riversidemarket.example.org/banner.jpg",
			Weekday:     int(time.Saturday),
			Hour:        8,
			Occurrences: 4,
			Category:    "food",
			Free:        true,
		},
		Institutions: []InstitutionTemplate{
			{
				Name:        "First Baptist Church Sunday Service",
				Description: "Weekly worship service, all welcome.",
				Location:    "First Baptist Church, 200 Oak St",
				SourceURL:   "https://firstbaptist.example.org",
				Weekday:     int(time.Sunday),
				Hour:        10,
				Category:    "community",
				Free:        true,
			},
			{
				Name:        "St. Mary's Morning Mass",
				Description: "Sunday morning mass.",
				Location:    "St. Mary's Parish, 14 Church Rd",
				SourceURL:   "https://stmarys.example.org",
				Weekday:     int(time.Sunday),
				Hour:        9,
				Category:    "community",
				Free:        true,
			},
			{
				Name:        "Grace Methodist Evening Gathering",
				Description: "Midweek community gathering with shared supper.",
				Location:    "Grace Methodist Hall, 7 Elm Ave",
				SourceURL:   "https://gracemethodist.example.org",
				Weekday:     int(time.Wednesday),
				Hour:        18,
				Category:    "community",
				Free:        true,
			},
		},
		Community: []OneOffTemplate{
			{
				Title:       "Neighborhood Potluck",
				Description: "Bring a dish to share at the community center.",
				Location:    "Maplewood Community Center",
				SourceURL:   "https://maplewood.example.org/potluck",
				OffsetDays:  4,
				Hour:        18,
				Category:    "food",
				Free:        true,
			},
			{
				Title:       "Riverbank Cleanup Day",
				Description: "Gloves and bags provided; meet at the boat ramp.",
				Location:    "Riverside Boat Ramp",
				SourceURL:   "https://maplewood.example.org/cleanup",
				OffsetDays:  9,
				Hour:        9,
				Category:    "community",
				Free:        true,
			},
			{
				Title:       "Concert in the Park",
				Description: "Open-air evening concert by the municipal band.",
				Location:    "Riverside Park Bandshell",
				SourceURL:   "https://maplewood.example.org/concert",
				OffsetDays:  12,
				Hour:        19,
				Category:    "community",
				Free:        true,
			},
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}

	if c.Market.Title == "" {
		c.Market = def.Market
	}
	if c.Market.Occurrences <= 0 {
		c.Market.Occurrences = def.Market.Occurrences
	}
	if c.Institutions == nil {
		c.Institutions = def.Institutions
	}
	if c.Community == nil {
		c.Community = def.Community
	}
}

// Location resolves the configured IANA timezone, falling back to UTC
// when the zone name is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600,
// parent directory created) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename)
// with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".townfeed-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
