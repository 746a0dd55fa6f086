// Package config provides configuration management for lumen.
package config

import (
	"os"
	"strings"
)

// Config represents the complete lumen configuration.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	UI       UIConfig       `mapstructure:"ui"`
	History  HistoryConfig  `mapstructure:"history"`
	Security SecurityConfig `mapstructure:"security"`
}

// SecurityConfig contains security-related settings.
type SecurityConfig struct {
	// WarningAcknowledged indicates if the user has acknowledged that diffs
	// are sent to a remote provider.
	WarningAcknowledged bool `mapstructure:"warning_acknowledged"`
}

// ProviderConfig contains AI provider settings.
type ProviderConfig struct {
	Name     string `mapstructure:"name"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

// UIConfig contains UI-related settings.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

// HistoryConfig contains history-related settings.
type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	MaxEntries int    `mapstructure:"max_entries"`
	FilePath   string `mapstructure:"file_path"`
}

// Overrides holds per-invocation values from command-line flags. Empty
// fields leave the loaded configuration untouched.
type Overrides struct {
	Provider string
	Model    string
	APIKey   string
}

// Apply copies the non-empty overrides onto cfg. The result is never
// written back to the config file.
func (o Overrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Provider != "" {
		cfg.Provider.Name = o.Provider
	}
	if o.Model != "" {
		cfg.Provider.Model = o.Model
	}
	if o.APIKey != "" {
		cfg.Provider.APIKey = o.APIKey
	}
}

// Manager defines the interface for configuration management.
type Manager interface {
	Load() (*Config, error)
	Save(config *Config) error
	Set(key string, value string) error
	Get(key string) (string, error)
	Init() error
	List() map[string]interface{}
	GetConfigPath() string
	ConfigExists() bool
	AcknowledgeSecurityWarning() error
	IsSecurityWarningAcknowledged() bool
}

// GenericAPIKeyEnv is consulted for every provider after its vendor variable.
const GenericAPIKeyEnv = "API_KEY"

// vendorAPIKeyEnv maps provider names to the variable their vendor documents.
var vendorAPIKeyEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"groq":   "GROQ_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
}

// VendorAPIKeyEnv returns the vendor variable for provider, or "".
func VendorAPIKeyEnv(provider string) string {
	return vendorAPIKeyEnv[strings.ToLower(provider)]
}

// ResolveAPIKey returns the first non-empty credential among explicit (flag,
// LUMEN_PROVIDER_API_KEY or config file), the vendor variable for provider
// and API_KEY. It returns "" when none is set.
func ResolveAPIKey(provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if name := VendorAPIKeyEnv(provider); name != "" {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return os.Getenv(GenericAPIKeyEnv)
}
