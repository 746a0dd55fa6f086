package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
)

// genNonEmptyAlphaString generates non-empty alphabetic strings with length between min and max.
// This avoids the high discard rate of SuchThat filters.
func genNonEmptyAlphaString(minLen, maxLen int) gopter.Gen {
	return gen.IntRange(minLen, maxLen).FlatMap(func(length interface{}) gopter.Gen {
		n := length.(int)
		return gen.SliceOfN(n, gen.AlphaLowerChar()).Map(func(runes []rune) string {
			return string(runes)
		})
	}, reflect.TypeOf(""))
}

// newInitializedManager creates a manager backed by a fresh config file.
func newInitializedManager(t *testing.T) (*ViperManager, string) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), ".lumen", "config.yaml")

	mgr, err := NewManager(configPath)
	require.NoError(t, err)
	require.NoError(t, mgr.Init())

	return mgr, configPath
}

// Priority order: flags > env > file > defaults
func TestConfigPrecedence_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	properties.Property("env vars override file values for provider.name", prop.ForAll(
		func(fileValue, envValue string) bool {
			mgr, configPath := newInitializedManager(t)

			if err := mgr.Set("provider.name", fileValue); err != nil {
				t.Logf("Failed to set file value: %v", err)
				return false
			}

			os.Setenv("LUMEN_PROVIDER_NAME", envValue)
			defer os.Unsetenv("LUMEN_PROVIDER_NAME")

			// A new manager picks up the env var
			mgr2, err := NewManager(configPath)
			if err != nil {
				return false
			}
			cfg, err := mgr2.Load()
			if err != nil {
				t.Logf("Failed to load config: %v", err)
				return false
			}

			return cfg.Provider.Name == envValue
		},
		genNonEmptyAlphaString(3, 15),
		genNonEmptyAlphaString(3, 15),
	))

	properties.Property("file values override defaults for provider.model", prop.ForAll(
		func(fileValue string) bool {
			os.Unsetenv("LUMEN_PROVIDER_MODEL")

			mgr, _ := newInitializedManager(t)
			if err := mgr.Set("provider.model", fileValue); err != nil {
				return false
			}

			cfg, err := mgr.Load()
			if err != nil {
				return false
			}
			return cfg.Provider.Model == fileValue
		},
		genNonEmptyAlphaString(3, 25),
	))

	properties.Property("flag overrides win over env and file values", prop.ForAll(
		func(fileValue, envValue, flagValue string) bool {
			mgr, configPath := newInitializedManager(t)
			if err := mgr.Set("provider.model", fileValue); err != nil {
				return false
			}

			os.Setenv("LUMEN_PROVIDER_MODEL", envValue)
			defer os.Unsetenv("LUMEN_PROVIDER_MODEL")

			mgr2, err := NewManager(configPath)
			if err != nil {
				return false
			}
			cfg, err := mgr2.Load()
			if err != nil {
				return false
			}

			Overrides{Model: flagValue}.Apply(cfg)
			return cfg.Provider.Model == flagValue
		},
		genNonEmptyAlphaString(3, 15),
		genNonEmptyAlphaString(3, 15),
		genNonEmptyAlphaString(3, 15),
	))

	properties.Property("precedence holds for numeric config values", prop.ForAll(
		func(fileValue, envValue int) bool {
			mgr, configPath := newInitializedManager(t)
			if err := mgr.Set("history.max_entries", strconv.Itoa(fileValue)); err != nil {
				t.Logf("Failed to set file value: %v", err)
				return false
			}

			os.Setenv("LUMEN_HISTORY_MAX_ENTRIES", strconv.Itoa(envValue))
			defer os.Unsetenv("LUMEN_HISTORY_MAX_ENTRIES")

			mgr2, err := NewManager(configPath)
			if err != nil {
				return false
			}
			cfg, err := mgr2.Load()
			if err != nil {
				return false
			}
			return cfg.History.MaxEntries == envValue
		},
		gen.IntRange(100, 1000),
		gen.IntRange(100, 1000),
	))

	properties.TestingRun(t)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("LUMEN_PROVIDER_NAME")
	os.Unsetenv("LUMEN_PROVIDER_MODEL")

	mgr, err := NewManager(filepath.Join(t.TempDir(), "missing", "config.yaml"))
	require.NoError(t, err)
	assert.False(t, mgr.ConfigExists())

	cfg, err := mgr.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultProvider, cfg.Provider.Name)
	assert.Equal(t, "", cfg.Provider.Model)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 1000, cfg.History.MaxEntries)
	assert.True(t, cfg.UI.ColorEnabled)
	assert.False(t, cfg.Security.WarningAcknowledged)
}

func TestLoad_MalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("provider: [unclosed\n"), 0600))

	mgr, err := NewManager(configPath)
	require.NoError(t, err)

	_, err = mgr.Load()
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidConfig))
}

func TestOverridesDoNotPersist(t *testing.T) {
	mgr, configPath := newInitializedManager(t)
	require.NoError(t, mgr.Set("provider.name", "openai"))

	cfg, err := mgr.Load()
	require.NoError(t, err)
	Overrides{Provider: "groq", APIKey: "gsk_flag"}.Apply(cfg)
	assert.Equal(t, "groq", cfg.Provider.Name)
	assert.Equal(t, "gsk_flag", cfg.Provider.APIKey)

	// A write after applying overrides must not leak them into the file.
	require.NoError(t, mgr.AcknowledgeSecurityWarning())

	mgr2, err := NewManager(configPath)
	require.NoError(t, err)
	cfg2, err := mgr2.Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg2.Provider.Name)
	assert.Equal(t, "", cfg2.Provider.APIKey)
	assert.True(t, cfg2.Security.WarningAcknowledged)
}

func TestOverrides_ApplyEmpty(t *testing.T) {
	cfg := &Config{Provider: ProviderConfig{Name: "claude", Model: "m", APIKey: "k"}}
	Overrides{}.Apply(cfg)
	assert.Equal(t, ProviderConfig{Name: "claude", Model: "m", APIKey: "k"}, cfg.Provider)

	Overrides{Provider: "x"}.Apply(nil)
}

func TestCustomConfigPath(t *testing.T) {
	defaultMgr, _ := newInitializedManager(t)
	require.NoError(t, defaultMgr.Set("provider.name", "openai"))

	customMgr, customPath := newInitializedManager(t)
	require.NoError(t, customMgr.Set("provider.name", "ollama"))

	loadMgr, err := NewManager(customPath)
	require.NoError(t, err)
	assert.Equal(t, customPath, loadMgr.GetConfigPath())

	cfg, err := loadMgr.Load()
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider.Name)
}

func TestInit(t *testing.T) {
	mgr, configPath := newInitializedManager(t)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	err = mgr.Init()
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidConfig))
}

func TestSet_CreatesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	mgr, err := NewManager(configPath)
	require.NoError(t, err)

	require.NoError(t, mgr.Set("provider.api_key", "sk-secret"))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	value, err := mgr.Get("provider.api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", value)
}

func TestSet_InvalidInput(t *testing.T) {
	mgr, _ := newInitializedManager(t)

	err := mgr.Set("provider.temperature", "0.5")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))

	err = mgr.Set("history.enabled", "maybe")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))

	_, err = mgr.Get("cache.enabled")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))
}

func TestSet_TypedValues(t *testing.T) {
	mgr, _ := newInitializedManager(t)

	require.NoError(t, mgr.Set("history.enabled", "false"))
	require.NoError(t, mgr.Set("History.Max_Entries", "25"))

	cfg, err := mgr.Load()
	require.NoError(t, err)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 25, cfg.History.MaxEntries)
}

func TestList(t *testing.T) {
	mgr, _ := newInitializedManager(t)
	require.NoError(t, mgr.Set("provider.name", "groq"))

	settings := mgr.List()
	provider, ok := settings["provider"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "groq", provider["name"])
}

func TestSecurityWarningPersistence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".lumen", "config.yaml")

	mgr, err := NewManager(configPath)
	require.NoError(t, err)
	assert.False(t, mgr.IsSecurityWarningAcknowledged())

	require.NoError(t, mgr.AcknowledgeSecurityWarning())
	assert.True(t, mgr.IsSecurityWarningAcknowledged())

	mgr2, err := NewManager(configPath)
	require.NoError(t, err)
	assert.True(t, mgr2.IsSecurityWarningAcknowledged())
}

func TestSave(t *testing.T) {
	mgr, configPath := newInitializedManager(t)

	cfg, err := mgr.Load()
	require.NoError(t, err)
	cfg.Provider.Name = "claude"
	cfg.Provider.Model = "claude-test"
	cfg.History.Enabled = false
	require.NoError(t, mgr.Save(cfg))

	mgr2, err := NewManager(configPath)
	require.NoError(t, err)
	loaded, err := mgr2.Load()
	require.NoError(t, err)

	assert.Equal(t, "claude", loaded.Provider.Name)
	assert.Equal(t, "claude-test", loaded.Provider.Model)
	assert.False(t, loaded.History.Enabled)
}

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		explicit string
		env      map[string]string
		expected string
	}{
		{"explicit wins", "openai", "sk-flag", map[string]string{"OPENAI_API_KEY": "sk-env", "API_KEY": "generic"}, "sk-flag"},
		{"vendor variable", "openai", "", map[string]string{"OPENAI_API_KEY": "sk-env", "API_KEY": "generic"}, "sk-env"},
		{"groq vendor variable", "groq", "", map[string]string{"GROQ_API_KEY": "gsk_env"}, "gsk_env"},
		{"claude uses anthropic variable", "claude", "", map[string]string{"ANTHROPIC_API_KEY": "sk-ant-env"}, "sk-ant-env"},
		{"generic fallback", "claude", "", map[string]string{"API_KEY": "generic"}, "generic"},
		{"other vendor ignored", "groq", "", map[string]string{"OPENAI_API_KEY": "sk-env"}, ""},
		{"nothing set", "openai", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{"OPENAI_API_KEY", "GROQ_API_KEY", "ANTHROPIC_API_KEY", "API_KEY"} {
				t.Setenv(name, tt.env[name])
			}
			assert.Equal(t, tt.expected, ResolveAPIKey(tt.provider, tt.explicit))
		})
	}
}
