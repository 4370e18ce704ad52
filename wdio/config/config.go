// Package config builds the runtime configuration once at startup.
// Stages receive it explicitly; nothing reads the environment ad hoc.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the effective configuration for one run.
type Config struct {
	// ServerURL is the test-execution server submissions go to.
	ServerURL string `mapstructure:"server_url"`

	// IsApp marks the bundle as an application build: the build-output
	// directory is included in the archive and used as the entry point.
	IsApp bool `mapstructure:"is_app"`

	InitialDelaySecs int `mapstructure:"initial_delay"`
	PollIntervalSecs int `mapstructure:"poll_interval"`
	MaxWaitSecs      int `mapstructure:"max_wait"`

	// TestsDir holds the end-to-end test assets to bundle.
	TestsDir string `mapstructure:"tests_dir"`
	// BuildDir holds the application build output, bundled when IsApp.
	BuildDir string `mapstructure:"build_dir"`

	// CI identity inputs.
	RepoSlug     string `mapstructure:"repo_slug"`
	CommitSHA    string `mapstructure:"commit_sha"`
	GithubToken  string `mapstructure:"github_token"`
	GithubAPIURL string `mapstructure:"github_api_url"`

	// IdentityConfigPath is the local credentials file.
	IdentityConfigPath string `mapstructure:"identity_config_path"`

	LogLevel string `mapstructure:"log_level"`
}

func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySecs) * time.Second
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

func (c Config) MaxWait() time.Duration {
	return time.Duration(c.MaxWaitSecs) * time.Second
}

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// FlagOverrides are highest-priority overrides from CLI flags.
	FlagOverrides map[string]any
}

// Load returns the effective configuration after applying precedence:
// defaults < environment < flags.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "http://localhost:3000")
	v.SetDefault("is_app", false)
	v.SetDefault("initial_delay", 10)
	v.SetDefault("poll_interval", 3)
	v.SetDefault("max_wait", 900)
	v.SetDefault("tests_dir", "tests-e2e")
	v.SetDefault("build_dir", "dist")
	v.SetDefault("github_api_url", "https://api.github.com")
	v.SetDefault("identity_config_path", defaultIdentityConfigPath())
	v.SetDefault("log_level", "info")
}

func bindEnv(v *viper.Viper) {
	// Explicit bindings: the CI variables carry their provider's
	// names, the rest use the WDIO_ prefix.
	v.BindEnv("tests_dir", "WDIO_TESTS_DIR")
	v.BindEnv("build_dir", "WDIO_BUILD_DIR")
	v.BindEnv("server_url", "WDIO_SERVER_URL")
	v.BindEnv("log_level", "WDIO_LOG_LEVEL")
	v.BindEnv("repo_slug", "TRAVIS_REPO_SLUG")
	v.BindEnv("commit_sha", "TRAVIS_COMMIT")
	v.BindEnv("github_token", "GITHUB_TOKEN")
}

func defaultIdentityConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".webdriverio", "config.yml")
	}
	return filepath.Join(home, ".webdriverio", "config.yml")
}

// Validate rejects configurations the pipeline cannot run with.
func Validate(cfg Config) error {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server_url %q is not a valid URL", cfg.ServerURL)
	}
	if cfg.InitialDelaySecs < 0 {
		return fmt.Errorf("initial_delay must not be negative")
	}
	if cfg.PollIntervalSecs <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if cfg.MaxWaitSecs < cfg.InitialDelaySecs+cfg.PollIntervalSecs {
		return fmt.Errorf("max_wait %ds leaves no room for a single poll", cfg.MaxWaitSecs)
	}
	return nil
}
