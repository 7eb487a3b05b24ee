package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"bookhook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SheetModeAppsScript = "apps_script"
	SheetModeSheetsAPI  = "sheets_api"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Sheet      SheetConfig      `yaml:"sheet"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port      int             `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// TrustProxyHeaders keys rate limits on X-Forwarded-For. Enable only behind a proxy that sets it.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SheetConfig describes where records are forwarded.
type SheetConfig struct {
	Mode    string        `yaml:"mode"`
	URL     string        `yaml:"url"`
	Secret  string        `yaml:"secret"`
	Timeout time.Duration `yaml:"timeout"`
	Google  GoogleConfig  `yaml:"google"`
}

type GoogleConfig struct {
	CredentialsFile   string `yaml:"credentials_file"`
	SpreadsheetID     string `yaml:"spreadsheet_id"`
	BookingsSheet     string `yaml:"bookings_sheet"`
	CancellationSheet string `yaml:"cancellations_sheet"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads .env (if any), the YAML file at configPath (if any), then applies
// environment overrides and defaults. An empty configPath means env only.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var config Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		expandedData := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expandedData, &config); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyEnv lets the hosting platform's variables win over the file.
func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("APPS_SCRIPT_URL")); v != "" {
		c.Sheet.URL = v
	}
	if v := os.Getenv("APPS_SCRIPT_SECRET"); v != "" {
		c.Sheet.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.HTTP.Port = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "bookhook"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = models.DefaultPort
	}
	if c.Sheet.Mode == "" {
		c.Sheet.Mode = SheetModeAppsScript
	}
	if c.Sheet.Timeout == 0 {
		c.Sheet.Timeout = models.DefaultForwardTimeout * time.Second
	}
	if c.Sheet.Google.BookingsSheet == "" {
		c.Sheet.Google.BookingsSheet = "Bookings"
	}
	if c.Sheet.Google.CancellationSheet == "" {
		c.Sheet.Google.CancellationSheet = "Cancellations"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

// Validate rejects settings the process cannot start with. An empty sheet URL is
// allowed: forwarding then fails per request with a configuration error.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.RateLimit.RPS < 0 {
		return errors.New("http.rate_limit.rps must not be negative")
	}
	if c.Sheet.Timeout < 0 {
		return errors.New("sheet.timeout must not be negative")
	}

	switch c.Sheet.Mode {
	case SheetModeAppsScript:
		if c.Sheet.URL != "" {
			u, err := url.Parse(c.Sheet.URL)
			if err != nil {
				return fmt.Errorf("invalid sheet url: %w", err)
			}
			if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("sheet url must be an absolute http(s) url, got %q", c.Sheet.URL)
			}
		}
	case SheetModeSheetsAPI:
		if c.Sheet.Google.CredentialsFile == "" {
			return errors.New("sheet.google.credentials_file is required in sheets_api mode")
		}
		if c.Sheet.Google.SpreadsheetID == "" {
			return errors.New("sheet.google.spreadsheet_id is required in sheets_api mode")
		}
	default:
		return fmt.Errorf("unknown sheet mode %q", c.Sheet.Mode)
	}

	return nil
}
