package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Harvest   HarvestConfig   `yaml:"harvest"`
	Export    ExportConfig    `yaml:"export"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Log       LogConfig       `yaml:"log"`
}

// BrowserConfig controls how the rendered-page handle is constructed.
type BrowserConfig struct {
	// Engine selects the handle implementation: "rod" or "static".
	Engine string `yaml:"engine"` // default: "rod"

	// Headless controls whether the browser window is hidden.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"`

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// Proxy is the proxy URL for all requests.
	Proxy string `yaml:"proxy"`

	// Stealth injects anti-detection JS before every navigation.
	Stealth bool `yaml:"stealth"` // default: true

	UserAgent      string `yaml:"user_agent"`
	AcceptLanguage string `yaml:"accept_language"` // default: "en-US,en;q=0.9"
	ViewportWidth  int    `yaml:"viewport_width"`  // default: 1920
	ViewportHeight int    `yaml:"viewport_height"` // default: 1080

	// BlockedResourceTypes lists resource types the browser refuses to load.
	// default: none
	BlockedResourceTypes []string `yaml:"blocked_resource_types"`
}

// HarvestConfig holds the selectors, timeouts and pacing of a run.
type HarvestConfig struct {
	FeedSelector string `yaml:"feed_selector"` // default: div[role="feed"]
	LinkSelector string `yaml:"link_selector"` // default: a[href*="/maps/place/"]

	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 30s
	ElementTimeout    time.Duration `yaml:"element_timeout"`    // default: 10s

	// WarmUp is the pause after opening the search page.
	WarmUp time.Duration `yaml:"warm_up"` // default: 5s

	// Settle is the pause after each detail page load for client rendering.
	Settle time.Duration `yaml:"settle"` // default: 3s

	// ItemDelay is the pause between detail pages.
	ItemDelay time.Duration `yaml:"item_delay"` // default: 2s

	ScrollPause         time.Duration `yaml:"scroll_pause"`          // default: 2s
	ScrollMaxIterations int           `yaml:"scroll_max_iterations"` // default: 8

	// ScrollIdleRounds stops scrolling after this many scrolls without new
	// items. 0 always performs ScrollMaxIterations scrolls.
	ScrollIdleRounds int `yaml:"scroll_idle_rounds"` // default: 2
}

// ExportConfig controls where results are written.
type ExportConfig struct {
	Dir        string `yaml:"dir"`         // default: "."
	BaseName   string `yaml:"base_name"`   // default: "google_places"
	SQLitePath string `yaml:"sqlite_path"` // default: "" (disabled)
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"` // default: true
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 1
	Burst             int     `yaml:"burst"`               // default: 5
}

// JobsConfig controls the run queue of the HTTP server.
type JobsConfig struct {
	QueueSize int           `yaml:"queue_size"` // default: 16
	TTL       time.Duration `yaml:"ttl"`        // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Engine:               envOr("PLACEHARVEST_ENGINE", "rod"),
			Headless:             envBoolOr("PLACEHARVEST_HEADLESS", true),
			NoSandbox:            envBoolOr("PLACEHARVEST_NO_SANDBOX", false),
			BrowserBin:           os.Getenv("PLACEHARVEST_BROWSER_BIN"),
			Proxy:                os.Getenv("PLACEHARVEST_PROXY"),
			Stealth:              envBoolOr("PLACEHARVEST_STEALTH", true),
			UserAgent:            envOr("PLACEHARVEST_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
			AcceptLanguage:       envOr("PLACEHARVEST_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			ViewportWidth:        envIntOr("PLACEHARVEST_VIEWPORT_WIDTH", 1920),
			ViewportHeight:       envIntOr("PLACEHARVEST_VIEWPORT_HEIGHT", 1080),
			BlockedResourceTypes: envSliceOr("PLACEHARVEST_BLOCKED_RESOURCES", nil),
		},
		Harvest: HarvestConfig{
			FeedSelector:        envOr("PLACEHARVEST_FEED_SELECTOR", `div[role="feed"]`),
			LinkSelector:        envOr("PLACEHARVEST_LINK_SELECTOR", `a[href*="/maps/place/"]`),
			NavigationTimeout:   envDurationOr("PLACEHARVEST_NAV_TIMEOUT", 30*time.Second),
			ElementTimeout:      envDurationOr("PLACEHARVEST_ELEMENT_TIMEOUT", 10*time.Second),
			WarmUp:              envDurationOr("PLACEHARVEST_WARM_UP", 5*time.Second),
			Settle:              envDurationOr("PLACEHARVEST_SETTLE", 3*time.Second),
			ItemDelay:           envDurationOr("PLACEHARVEST_ITEM_DELAY", 2*time.Second),
			ScrollPause:         envDurationOr("PLACEHARVEST_SCROLL_PAUSE", 2*time.Second),
			ScrollMaxIterations: envIntOr("PLACEHARVEST_SCROLL_MAX", 8),
			ScrollIdleRounds:    envIntOr("PLACEHARVEST_SCROLL_IDLE_ROUNDS", 2),
		},
		Export: ExportConfig{
			Dir:        envOr("PLACEHARVEST_OUT_DIR", "."),
			BaseName:   envOr("PLACEHARVEST_BASE_NAME", "google_places"),
			SQLitePath: os.Getenv("PLACEHARVEST_SQLITE"),
		},
		Server: ServerConfig{
			Host: envOr("PLACEHARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("PLACEHARVEST_PORT", 8080),
			Mode: envOr("PLACEHARVEST_MODE", "release"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PLACEHARVEST_AUTH_ENABLED", true),
			APIKeys: envSliceOr("PLACEHARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PLACEHARVEST_RATE_RPS", 1.0),
			Burst:             envIntOr("PLACEHARVEST_RATE_BURST", 5),
		},
		Jobs: JobsConfig{
			QueueSize: envIntOr("PLACEHARVEST_QUEUE_SIZE", 16),
			TTL:       envDurationOr("PLACEHARVEST_JOB_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("PLACEHARVEST_LOG_LEVEL", "info"),
			Format: envOr("PLACEHARVEST_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
