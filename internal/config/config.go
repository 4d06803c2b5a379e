// Package config provides configuration management for color-ssh.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	cerrors "github.com/mogproject/color-ssh/internal/errors"
)

// Config represents the dispatcher configuration
type Config struct {
	Label          string `mapstructure:"label"`           // Label override for every task
	SSH            string `mapstructure:"ssh"`             // Transport command line
	HostFile       string `mapstructure:"hosts"`           // Path to a file with one host per line
	HostString     string `mapstructure:"host"`            // Space-separated host tokens
	Inventory      string `mapstructure:"inventory"`       // Ansible-style inventory file
	InventoryGroup string `mapstructure:"inventory-group"` // Inventory group to read, empty for all
	Par            int    `mapstructure:"par"`             // Maximum number of parallel tasks
	Distribute     string `mapstructure:"distribute"`      // Prefix command for argument distribution
	Upload         bool   `mapstructure:"upload"`          // Upload distributed arguments first
	UploadWith     string `mapstructure:"upload-with"`     // Extra paths to upload
	Labeler        string `mapstructure:"labeler"`         // External labeler executable, empty for in-process
	LogLevel       string `mapstructure:"log-level"`       // Log level (debug, info, error)
	LogFormat      string `mapstructure:"log-format"`      // Log format (json, text)
}

// Keys lists every configuration key, in flag order.
var Keys = []string{
	"label", "ssh", "hosts", "host", "inventory", "inventory-group", "par", "distribute",
	"upload", "upload-with", "labeler", "log-level", "log-format",
}

// ViperManager layers configuration sources with Viper
type ViperManager struct {
	v     *viper.Viper
	flags *pflag.FlagSet
	paths []string
}

// NewManager creates a configuration manager. Flags that the user set
// explicitly on flags override every other source; flags may be nil.
func NewManager(flags *pflag.FlagSet) *ViperManager {
	return &ViperManager{
		v:     viper.New(),
		flags: flags,
		paths: defaultConfigPaths(),
	}
}

// SetConfigPaths replaces the directories searched for a config file.
func (m *ViperManager) SetConfigPaths(paths ...string) {
	m.paths = paths
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "color-ssh"))
	}
	return append(paths, "/etc/color-ssh/")
}

// SetDefaults establishes default configuration values
func (m *ViperManager) SetDefaults() {
	m.v.SetDefault("label", "")
	m.v.SetDefault("ssh", "ssh")
	m.v.SetDefault("hosts", "")
	m.v.SetDefault("host", "")
	m.v.SetDefault("inventory", "")
	m.v.SetDefault("inventory-group", "")
	m.v.SetDefault("par", 32)
	m.v.SetDefault("distribute", "")
	m.v.SetDefault("upload", false)
	m.v.SetDefault("upload-with", "")
	m.v.SetDefault("labeler", "")
	m.v.SetDefault("log-level", "error")
	m.v.SetDefault("log-format", "text")
}

// Load reads configuration from all sources with proper precedence
func (m *ViperManager) Load() (*Config, error) {
	m.SetDefaults()

	m.v.SetConfigName("config")
	for _, p := range m.paths {
		m.v.AddConfigPath(p)
	}

	m.v.SetEnvPrefix("COLOR_SSH")
	m.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	m.v.AutomaticEnv()

	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, cerrors.NewResourceError("error reading config file", err)
		}
	}

	if m.flags != nil {
		for _, key := range Keys {
			if f := m.flags.Lookup(key); f != nil && f.Changed {
				if err := m.v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", key, err)
				}
			}
		}
	}

	var config Config
	if err := m.v.Unmarshal(&config); err != nil {
		return nil, cerrors.NewArgumentError("error unmarshaling config", err)
	}

	if err := m.Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ConfigFile returns the path of the config file that was read, or "".
func (m *ViperManager) ConfigFile() string {
	return m.v.ConfigFileUsed()
}

// Validate ensures configuration values are valid and consistent
func (m *ViperManager) Validate(config *Config) error {
	if config.Par < 1 {
		return cerrors.NewArgumentError(fmt.Sprintf("par must be positive, got %d", config.Par), nil)
	}

	if config.InventoryGroup != "" && config.Inventory == "" {
		return cerrors.NewArgumentError("inventory-group requires an inventory file", nil)
	}

	words, err := shellquote.Split(config.SSH)
	if err != nil {
		return cerrors.NewArgumentError(fmt.Sprintf("invalid ssh command '%s'", config.SSH), err)
	}
	if len(words) == 0 {
		return cerrors.NewArgumentError("ssh command must not be empty", nil)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return cerrors.NewArgumentError(fmt.Sprintf("invalid log level '%s': must be one of 'debug', 'info' or 'error'", config.LogLevel), nil)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[config.LogFormat] {
		return cerrors.NewArgumentError(fmt.Sprintf("invalid log format '%s': must be one of 'json' or 'text'", config.LogFormat), nil)
	}

	return nil
}

// GetEnvVarNames returns a list of all supported environment variable names
func GetEnvVarNames() []string {
	names := make([]string, 0, len(Keys))
	for _, key := range Keys {
		names = append(names, "COLOR_SSH_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_")))
	}
	return names
}
