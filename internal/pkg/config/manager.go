package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
)

const (
	// ConfigLoadTimeout is the timeout for loading configuration.
	ConfigLoadTimeout = 100 * time.Millisecond
)

const (
	// DefaultConfigDir is the directory under $HOME holding lumen's files.
	DefaultConfigDir = ".lumen"
	// DefaultConfigFileExt is the default config file extension.
	DefaultConfigFileExt = "yaml"
	// EnvPrefix prefixes every environment variable read by the manager.
	EnvPrefix = "LUMEN"
	// DefaultProvider is used when no provider is configured.
	DefaultProvider = "phind"
)

// ViperManager implements the Manager interface using Viper.
type ViperManager struct {
	v          *viper.Viper
	configPath string
}

var _ Manager = (*ViperManager)(nil)

// NewManager creates a new configuration manager.
// If configPath is empty, it uses the default path (~/.lumen/config.yaml).
func NewManager(configPath string) (*ViperManager, error) {
	v := viper.New()

	// Set config file type
	v.SetConfigType(DefaultConfigFileExt)

	// Determine config path
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to get home directory")
		}
		configPath = filepath.Join(homeDir, DefaultConfigDir, "config.yaml")
	}

	// Set config file path
	v.SetConfigFile(configPath)

	// Set up environment variable binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults first (required for env binding to work with nested keys)
	setDefaults(v)

	// Explicitly bind environment variables for nested keys
	bindEnvVars(v)

	return &ViperManager{
		v:          v,
		configPath: configPath,
	}, nil
}

// bindEnvVars explicitly binds environment variables for all config keys.
// This is needed because Viper's AutomaticEnv doesn't work well with nested keys.
func bindEnvVars(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}
}

// configKeys lists every supported configuration key.
var configKeys = []string{
	"provider.name",
	"provider.api_key",
	"provider.model",
	"provider.endpoint",
	"ui.color_enabled",
	"history.enabled",
	"history.max_entries",
	"history.file_path",
	"security.warning_acknowledged",
}

// setDefaults sets the default configuration values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.name", DefaultProvider)
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.endpoint", "")

	// UI defaults
	v.SetDefault("ui.color_enabled", true)

	// History defaults
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.max_entries", 1000)
	homeDir, _ := os.UserHomeDir()
	v.SetDefault("history.file_path", filepath.Join(homeDir, DefaultConfigDir, "history.json"))

	// Security defaults
	v.SetDefault("security.warning_acknowledged", false)
}

// GetConfigPath returns the path to the configuration file.
func (m *ViperManager) GetConfigPath() string {
	return m.configPath
}

// Load loads the configuration from file, environment, and defaults.
// Priority: env > file > defaults. Flag values are applied afterwards with
// Overrides.Apply.
func (m *ViperManager) Load() (*Config, error) {
	if err := m.readConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to unmarshal config")
	}

	return &cfg, nil
}

// readConfig reads the config file, treating a missing file as empty.
func (m *ViperManager) readConfig() error {
	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to read config file").
			WithContext("path", m.configPath).
			WithSuggestion("Fix the YAML syntax or run 'lumen config init' after removing the file")
	}
	return nil
}

// LoadWithTimeout loads the configuration with a timeout.
// Returns an error if loading takes longer than ConfigLoadTimeout.
func (m *ViperManager) LoadWithTimeout(ctx context.Context) (*Config, error) {
	ctx, cancel := context.WithTimeout(ctx, ConfigLoadTimeout)
	defer cancel()

	type result struct {
		cfg *Config
		err error
	}
	ch := make(chan result, 1)

	go func() {
		cfg, err := m.Load()
		ch <- result{cfg, err}
	}()

	select {
	case <-ctx.Done():
		return nil, apperrors.New(apperrors.ErrFileSystemError, fmt.Sprintf("config loading timed out after %v", ConfigLoadTimeout))
	case r := <-ch:
		return r.cfg, r.err
	}
}

// Init creates a new configuration file with default values.
// Sets file permissions to 0600 for security.
func (m *ViperManager) Init() error {
	if m.ConfigExists() {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("config file already exists at %s", m.configPath)).
			WithSuggestion("Use 'lumen config set <key> <value>' to change individual settings")
	}

	if err := m.ensureConfigDir(); err != nil {
		return err
	}

	if err := m.v.WriteConfigAs(m.configPath); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write config file")
	}

	return m.restrictPermissions()
}

// Save saves the configuration to file.
func (m *ViperManager) Save(config *Config) error {
	m.v.Set("provider.name", config.Provider.Name)
	m.v.Set("provider.api_key", config.Provider.APIKey)
	m.v.Set("provider.model", config.Provider.Model)
	m.v.Set("provider.endpoint", config.Provider.Endpoint)
	m.v.Set("ui.color_enabled", config.UI.ColorEnabled)
	m.v.Set("history.enabled", config.History.Enabled)
	m.v.Set("history.max_entries", config.History.MaxEntries)
	m.v.Set("history.file_path", config.History.FilePath)
	m.v.Set("security.warning_acknowledged", config.Security.WarningAcknowledged)

	return m.write()
}

// Set sets a configuration value by key and writes the file, creating it
// when needed. Keys use dot notation (e.g., "provider.name").
func (m *ViperManager) Set(key string, value string) error {
	key = strings.ToLower(key)
	if !IsValidKey(key) {
		return unknownKeyError(key)
	}

	if err := m.readConfig(); err != nil {
		return err
	}

	// Convert value to appropriate type based on existing value type
	convertedValue, err := convertValue(value, m.v.Get(key))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidArguments, fmt.Sprintf("invalid value for key %s", key))
	}

	m.v.Set(key, convertedValue)

	return m.write()
}

// write persists the current settings with 0600 permissions.
func (m *ViperManager) write() error {
	if err := m.ensureConfigDir(); err != nil {
		return err
	}
	if err := m.v.WriteConfigAs(m.configPath); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to write config file")
	}
	return m.restrictPermissions()
}

func (m *ViperManager) ensureConfigDir() error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to create config directory")
	}
	return nil
}

// restrictPermissions limits the config file to its owner; it may hold API keys.
func (m *ViperManager) restrictPermissions() error {
	if err := os.Chmod(m.configPath, 0600); err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to set config file permissions")
	}
	return nil
}

// convertValue converts a string value to the appropriate type based on the existing value type.
func convertValue(value string, existingValue interface{}) (interface{}, error) {
	if existingValue == nil {
		return value, nil
	}

	switch existingValue.(type) {
	case bool:
		return strconv.ParseBool(value)
	case int, int64:
		return strconv.ParseInt(value, 10, 64)
	case float32, float64:
		return strconv.ParseFloat(value, 64)
	default:
		return value, nil
	}
}

// Get retrieves a configuration value by key.
func (m *ViperManager) Get(key string) (string, error) {
	key = strings.ToLower(key)
	if !IsValidKey(key) {
		return "", unknownKeyError(key)
	}

	if err := m.readConfig(); err != nil {
		return "", err
	}

	return fmt.Sprintf("%v", m.v.Get(key)), nil
}

// List returns all configuration values as a map.
func (m *ViperManager) List() map[string]interface{} {
	// Ignore read errors and fall back to defaults.
	_ = m.readConfig()

	return m.v.AllSettings()
}

// ConfigExists checks if the configuration file exists.
func (m *ViperManager) ConfigExists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// AcknowledgeSecurityWarning marks the security warning as acknowledged.
func (m *ViperManager) AcknowledgeSecurityWarning() error {
	return m.Set("security.warning_acknowledged", "true")
}

// IsSecurityWarningAcknowledged checks if the security warning has been acknowledged.
func (m *ViperManager) IsSecurityWarningAcknowledged() bool {
	_ = m.readConfig()
	return m.v.GetBool("security.warning_acknowledged")
}

// IsValidKey reports whether key is a supported configuration key.
func IsValidKey(key string) bool {
	for _, k := range configKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Keys returns the supported configuration keys.
func Keys() []string {
	return append([]string(nil), configKeys...)
}

func unknownKeyError(key string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrInvalidArguments, fmt.Sprintf("unknown config key: %s", key)).
		WithSuggestion("Valid keys: " + strings.Join(configKeys, ", "))
}
