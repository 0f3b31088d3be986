package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/iotodash/internal/filter"
	"github.com/starford/iotodash/internal/locale"
	"github.com/starford/iotodash/internal/refresh"
	"github.com/starford/iotodash/internal/results"
	"github.com/starford/iotodash/internal/settings"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Vault     VaultConfig       `yaml:"vault"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Dashboard DashboardConfig   `yaml:"dashboard"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Dashboard.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// FoldersConfig holds the vault folders of the three sections and the task
// notes, relative to the vault root.
type FoldersConfig struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Outcome string `yaml:"outcome"`
	Task    string `yaml:"task"`
}

// Settings converts the folder configuration to the persisted form.
func (c FoldersConfig) Settings() settings.Folders {
	return settings.Folders{
		Input:   strings.Trim(c.Input, "/"),
		Output:  strings.Trim(c.Output, "/"),
		Outcome: strings.Trim(c.Outcome, "/"),
		Task:    strings.Trim(c.Task, "/"),
	}
}

// DashboardConfig holds the dashboard behaviour.
//
// PageSize is clamped into the supported range rather than rejected.
// IotoSettingsPath points at the IOTO plugin data file that overrides the
// section headings; it may be empty.
type DashboardConfig struct {
	Locale           string                `yaml:"locale"`
	PageSize         int                   `yaml:"page_size"`
	RefreshDebounce  time.Duration         `yaml:"refresh_debounce"`
	Folders          FoldersConfig         `yaml:"folders"`
	IotoSettingsPath string                `yaml:"ioto_settings_path"`
	CustomFilters    []filter.CustomFilter `yaml:"custom_filters"`
}

// Validate validates the dashboard configuration.
func (c *DashboardConfig) Validate() error {
	c.Locale = strings.ToLower(c.Locale)
	if c.Locale == "" {
		c.Locale = locale.English
	}
	if c.PageSize == 0 {
		c.PageSize = results.DefaultPageSize
	}
	c.PageSize = results.ClampPageSize(c.PageSize)
	if c.RefreshDebounce <= 0 {
		c.RefreshDebounce = refresh.DefaultDelay
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Locale, validation.In(locale.English, locale.SimplifiedChinese, locale.TraditionalChinese)),
		validation.Field(&c.CustomFilters),
	); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return validation.ValidateStruct(&c.Folders,
		validation.Field(&c.Folders.Input, validation.Required),
		validation.Field(&c.Folders.Output, validation.Required),
		validation.Field(&c.Folders.Outcome, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./iotodash.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Dashboard: DashboardConfig{
			Locale:          locale.English,
			PageSize:        results.DefaultPageSize,
			RefreshDebounce: refresh.DefaultDelay,
			Folders: FoldersConfig{
				Input:   "1-输入",
				Output:  "2-输出",
				Outcome: "4-成果",
				Task:    "3-任务",
			},
		},
	}
}
