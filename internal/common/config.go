package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Target      TargetConfig    `toml:"target"`
	Auth        AuthConfig      `toml:"auth"`
	API         APIConfig       `toml:"api"`
	Browser     BrowserConfig   `toml:"browser"`
	Reconcile   ReconcileConfig `toml:"reconcile"`
	Schedule    ScheduleConfig  `toml:"schedule"`
	Logging     LoggingConfig   `toml:"logging"`
}

// TargetConfig identifies the application under check
type TargetConfig struct {
	BaseURL string `toml:"base_url" validate:"required,url"` // UI base URL (browser navigates here)
	APIURL  string `toml:"api_url" validate:"required,url"`  // Backend REST base URL
}

// AuthConfig controls how the access token is obtained
type AuthConfig struct {
	Mode         string `toml:"mode" validate:"oneof=browser api"` // "browser": token from localStorage after UI login; "api": direct token exchange
	Email        string `toml:"email"`                             // Prompted on the CLI when empty
	Password     string `toml:"password"`
	ClientID     string `toml:"client_id"`     // Required for mode = "api"
	ClientSecret string `toml:"client_secret"` // Required for mode = "api"
	AppToken     string `toml:"app_token"`     // Device token sent with the api login payload
}

// APIConfig contains backend fetcher settings
type APIConfig struct {
	Timeout   string `toml:"timeout"`    // HTTP timeout, e.g. "30s"
	RateLimit int    `toml:"rate_limit"` // Max requests per second against the backend
}

// BrowserConfig contains chromedp session settings
type BrowserConfig struct {
	ExecPath     string `toml:"exec_path"` // Chrome binary path (VERITAS_CHROME overrides)
	Headless     bool   `toml:"headless"`
	NoSandbox    bool   `toml:"no_sandbox"`
	DisableGPU   bool   `toml:"disable_gpu"`
	UserAgent    string `toml:"user_agent"`
	WindowWidth  int    `toml:"window_width"`
	WindowHeight int    `toml:"window_height"`
	WaitTimeout  string `toml:"wait_timeout"`  // Per-wait timeout, e.g. "30s"
	PollInterval string `toml:"poll_interval"` // Stabilization poll interval, e.g. "500ms"
}

// ReconcileConfig controls which passes run and how interactions retry
type ReconcileConfig struct {
	Checks        []string `toml:"checks"`         // Subset of: locations, profile, settings, notify, rooms
	RetryAttempts int      `toml:"retry_attempts"` // Total interaction attempts before the JS fallback
}

// ScheduleConfig enables recurring runs
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // Cron expression with seconds field
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for stability; only user-facing
// settings should be exposed in veritas.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Auth: AuthConfig{
			Mode: "browser",
		},
		API: APIConfig{
			Timeout:   "30s",
			RateLimit: 5,
		},
		Browser: BrowserConfig{
			Headless:     true,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:  1920,
			WindowHeight: 1080,
			WaitTimeout:  "30s",
			PollInterval: "500ms",
		},
		Reconcile: ReconcileConfig{
			Checks:        []string{"locations", "profile", "settings", "notify", "rooms"},
			RetryAttempts: 3,
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 0 */6 * * *",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VERITAS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if baseURL := os.Getenv("VERITAS_BASE_URL"); baseURL != "" {
		config.Target.BaseURL = baseURL
	}
	if apiURL := os.Getenv("VERITAS_API_URL"); apiURL != "" {
		config.Target.APIURL = apiURL
	}

	// Browser binary selection from the environment
	if execPath := os.Getenv("VERITAS_CHROME"); execPath != "" {
		config.Browser.ExecPath = execPath
	}
	if headless := os.Getenv("VERITAS_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}

	if email := os.Getenv("VERITAS_EMAIL"); email != "" {
		config.Auth.Email = email
	}
	if password := os.Getenv("VERITAS_PASSWORD"); password != "" {
		config.Auth.Password = password
	}

	if level := os.Getenv("VERITAS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// Validate checks that the configuration is usable before a run starts
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Browser.WaitTimeout); err != nil {
		return fmt.Errorf("invalid browser.wait_timeout %q: %w", c.Browser.WaitTimeout, err)
	}
	if _, err := time.ParseDuration(c.Browser.PollInterval); err != nil {
		return fmt.Errorf("invalid browser.poll_interval %q: %w", c.Browser.PollInterval, err)
	}

	if c.Auth.Mode == "api" && (c.Auth.ClientID == "" || c.Auth.ClientSecret == "") {
		return fmt.Errorf("auth.mode \"api\" requires auth.client_id and auth.client_secret")
	}

	return nil
}

// APITimeout returns the parsed backend HTTP timeout
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// WaitTimeout returns the parsed per-wait timeout for browser operations
func (c *Config) WaitTimeout() time.Duration {
	d, err := time.ParseDuration(c.Browser.WaitTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// PollInterval returns the parsed stabilization poll interval
func (c *Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.Browser.PollInterval)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// CheckEnabled reports whether a named reconciliation pass is configured to run
func (c *Config) CheckEnabled(name string) bool {
	for _, check := range c.Reconcile.Checks {
		if check == name {
			return true
		}
	}
	return false
}
