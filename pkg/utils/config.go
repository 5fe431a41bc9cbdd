package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeAPI    = "api"
	ModeScrape = "scrape"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Source     SourceConfig     `yaml:"source"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Report     ReportConfig     `yaml:"report"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Auth       AuthConfig       `yaml:"auth"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

type HTTPConfig struct {
	Addr     string `yaml:"addr"`
	GRPCAddr string `yaml:"grpc_addr"`
}

// Bounds is the default and upper clamp for the per-keyword app count.
type Bounds struct {
	Default int `yaml:"default"`
	Max     int `yaml:"max"`
}

type SourceConfig struct {
	// Mode selects the upstream mechanism: "api" (JSON catalog API) or
	// "scrape" (store pages).
	Mode        string   `yaml:"mode"`
	APIBaseURL  string   `yaml:"api_base_url"`
	PageBaseURL string   `yaml:"page_base_url"`
	FeedURL     string   `yaml:"feed_url"`
	Strategies  []string `yaml:"strategies"`
	Collection  string   `yaml:"collection"`
	Category    string   `yaml:"category"`
	Country     string   `yaml:"country"`
	Lang        string   `yaml:"lang"`
	Seed        []string `yaml:"seed"`
	APILimits   Bounds   `yaml:"api_limits"`
	PageLimits  Bounds   `yaml:"scrape_limits"`
}

type UpstreamConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	Retries        int           `yaml:"retries"`
	BackoffInitial time.Duration `yaml:"backoff_initial"`
	BackoffMax     time.Duration `yaml:"backoff_max"`
	RatePerSecond  float64       `yaml:"rate_per_second"`
	UserAgent      string        `yaml:"user_agent"`
}

type ReportConfig struct {
	Filter        string `yaml:"filter"`         // inactive | all
	EmptyFallback string `yaml:"empty_fallback"` // diagnostic | placeholder | plain
	Filename      string `yaml:"filename"`       // overrides the policy-derived name
}

type ClassifierConfig struct {
	MaxApps    int `yaml:"max_apps"`
	WindowDays int `yaml:"window_days"`
}

type AuthConfig struct {
	Enabled           bool          `yaml:"enabled"`
	JWTSecret         string        `yaml:"jwt_secret"`
	JWTIssuer         string        `yaml:"jwt_issuer"`
	JWTDuration       time.Duration `yaml:"jwt_ttl"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`
}

type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:     ":3000",
			GRPCAddr: ":9090",
		},
		Source: SourceConfig{
			Mode:        ModeAPI,
			APIBaseURL:  "http://localhost:9000",
			PageBaseURL: "https://play.google.com",
			Strategies:  []string{"list", "search"},
			Collection:  "topselling_free",
			Category:    "APPLICATION",
			Country:     "in",
			Lang:        "en",
			APILimits:   Bounds{Default: 20, Max: 100},
			PageLimits:  Bounds{Default: 10, Max: 50},
		},
		Upstream: UpstreamConfig{
			Timeout:        15 * time.Second,
			Retries:        2,
			BackoffInitial: 500 * time.Millisecond,
			BackoffMax:     4 * time.Second,
			RatePerSecond:  2,
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) playscout/0.1",
		},
		Report: ReportConfig{
			Filter:        "inactive",
			EmptyFallback: "plain",
		},
		Classifier: ClassifierConfig{
			MaxApps:    3,
			WindowDays: 2 * 365,
		},
		Auth: AuthConfig{
			// dev default (change for production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "playscout",
			JWTDuration: 24 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order. An empty path falls back to
// PLAYSCOUT_CONFIG; no file at all is fine.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PLAYSCOUT_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if p := os.Getenv("PORT"); p != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(p, ":")
	}
	if v := os.Getenv("PLAYSCOUT_GRPC_ADDR"); v != "" {
		cfg.HTTP.GRPCAddr = v
	}
	if v := os.Getenv("PLAYSCOUT_MODE"); v != "" {
		cfg.Source.Mode = v
	}
	if v := os.Getenv("PLAYSCOUT_API_BASE_URL"); v != "" {
		cfg.Source.APIBaseURL = v
	}
	if v := os.Getenv("PLAYSCOUT_FEED_URL"); v != "" {
		cfg.Source.FeedURL = v
	}
	if v := os.Getenv("PLAYSCOUT_FILTER"); v != "" {
		cfg.Report.Filter = v
	}
	if v := os.Getenv("PLAYSCOUT_EMPTY_FALLBACK"); v != "" {
		cfg.Report.EmptyFallback = v
	}
	if v := os.Getenv("PLAYSCOUT_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("PLAYSCOUT_JWT_ISSUER"); v != "" {
		cfg.Auth.JWTIssuer = v
	}
	if v := os.Getenv("PLAYSCOUT_JWT_TTL_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			cfg.Auth.JWTDuration = time.Duration(h) * time.Hour
		}
	}
	if v := os.Getenv("PLAYSCOUT_ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Auth.AdminPasswordHash = v
		cfg.Auth.Enabled = true
	}
	if v := os.Getenv("PLAYSCOUT_DB_PATH"); v != "" {
		cfg.Archive.Path = v
		cfg.Archive.Enabled = true
	}
}

func (c *Config) Validate() error {
	c.Source.Mode = strings.ToLower(strings.TrimSpace(c.Source.Mode))
	if c.Source.Mode != ModeAPI && c.Source.Mode != ModeScrape {
		return fmt.Errorf("unsupported source mode: %q (must be one of: api, scrape)", c.Source.Mode)
	}

	for i, s := range c.Source.Strategies {
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case "list", "search", "feed":
		default:
			return fmt.Errorf("unsupported strategy: %q (must be one of: list, search, feed)", s)
		}
		if s == "feed" && c.Source.FeedURL == "" {
			return errors.New("strategy feed requires source.feed_url")
		}
		c.Source.Strategies[i] = s
	}

	for _, b := range []Bounds{c.Source.APILimits, c.Source.PageLimits} {
		if b.Max < 1 {
			return fmt.Errorf("per-keyword max must be >= 1, got %d", b.Max)
		}
		if b.Default < 1 || b.Default > b.Max {
			return fmt.Errorf("per-keyword default %d outside [1, %d]", b.Default, b.Max)
		}
	}

	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream.timeout must be > 0")
	}
	if c.Upstream.Retries < 0 {
		return errors.New("upstream.retries must be >= 0")
	}

	if c.Classifier.MaxApps < 1 {
		return errors.New("classifier.max_apps must be >= 1")
	}
	if c.Classifier.WindowDays < 1 {
		return errors.New("classifier.window_days must be >= 1")
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret required when auth is enabled")
	}
	return nil
}

// PerBounds returns the per-keyword bounds of the configured source mode.
func (c Config) PerBounds() Bounds {
	if c.Source.Mode == ModeScrape {
		return c.Source.PageLimits
	}
	return c.Source.APILimits
}

// Clamp parses a raw per-keyword value; blanks and non-numbers fall back to
// the default.
func (b Bounds) Clamp(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return b.Default
	}
	if n < 1 {
		return 1
	}
	if n > b.Max {
		return b.Max
	}
	return n
}

// ClassifierWindow returns the inactivity window as a duration.
func (c Config) ClassifierWindow() time.Duration {
	return time.Duration(c.Classifier.WindowDays) * 24 * time.Hour
}
