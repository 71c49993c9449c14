package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Shell  ShellConfig       `yaml:"shell"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Shell.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
//
// The shell owns the terminal, so logs go to LogFile; "-" sends them to stderr.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	LogFile  string     `yaml:"log_file"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFile, validation.Required),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration. The server only runs
// alongside the shell when Enabled is set; "serve" always starts it.
type HTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
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

// ShellConfig holds limits and paths for the interactive shell.
type ShellConfig struct {
	HistoryLimit   int    `yaml:"history_limit"`
	MaxInputLength int    `yaml:"max_input_length"`
	OutputLimit    int    `yaml:"output_limit"`
	ExportDir      string `yaml:"export_dir"`
	// InboxDir is watched for snapshot files to import. Empty disables it.
	InboxDir string `yaml:"inbox_dir"`
	// Editor is used when no editor preference is stored.
	Editor      string `yaml:"editor"`
	HistoryFile string `yaml:"history_file"`
}

// Validate validates the shell configuration.
func (c *ShellConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HistoryLimit, validation.Required, validation.Min(1), validation.Max(10000)),
		validation.Field(&c.MaxInputLength, validation.Required, validation.Min(1), validation.Max(100000)),
		validation.Field(&c.OutputLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.ExportDir, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			LogFile:  "notesh.log",
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./notesh.db",
		},
		Shell: ShellConfig{
			HistoryLimit:   100,
			MaxInputLength: 1000,
			OutputLimit:    2000,
			ExportDir:      ".",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
