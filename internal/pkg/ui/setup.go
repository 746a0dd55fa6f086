package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/lumen-cli/lumen/internal/pkg/ai"
	"github.com/lumen-cli/lumen/internal/pkg/config"
)

// SetupAnswers holds what the first-run wizard collected.
type SetupAnswers struct {
	Provider ai.Kind
	APIKey   string
	Model    string
	Endpoint string
}

var providerLabels = map[ai.Kind]string{
	ai.KindPhind:  "Phind (no key required)",
	ai.KindOpenAI: "OpenAI",
	ai.KindGroq:   "Groq",
	ai.KindClaude: "Claude (Anthropic)",
	ai.KindOllama: "Ollama (local)",
}

func providerOptions() []huh.Option[ai.Kind] {
	options := make([]huh.Option[ai.Kind], 0, len(ai.Kinds))
	for _, kind := range ai.Kinds {
		options = append(options, huh.NewOption(providerLabels[kind], kind))
	}
	return options
}

func validateModel(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	return nil
}

// RunInteractiveSetup asks for a provider and its settings, then writes them
// to the config file.
func RunInteractiveSetup(cfgMgr *config.ViperManager) error {
	fmt.Println("No configuration found. Let's set up lumen!")
	fmt.Println()

	answers := SetupAnswers{Provider: ai.KindPhind}

	err := huh.NewSelect[ai.Kind]().
		Title("Select AI Provider").
		Options(providerOptions()...).
		Value(&answers.Provider).
		Run()
	if err != nil {
		return err
	}

	answers.Model = answers.Provider.DefaultModel()
	if answers.Provider == ai.KindOllama {
		answers.Endpoint = ai.DefaultOllamaEndpoint
	}

	fields := []huh.Field{}

	if answers.Provider.RequiresAPIKey() {
		fields = append(fields,
			huh.NewInput().
				Title("API Key").
				Description(fmt.Sprintf("Leave blank to use $%s", config.VendorAPIKeyEnv(string(answers.Provider)))).
				Value(&answers.APIKey).
				EchoMode(huh.EchoModePassword),
		)
	}

	fields = append(fields,
		huh.NewInput().
			Title("Model Name").
			Value(&answers.Model).
			Validate(validateModel),
	)

	if answers.Provider == ai.KindOllama {
		fields = append(fields,
			huh.NewInput().
				Title("API Endpoint").
				Value(&answers.Endpoint),
		)
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	if err := ApplySetup(cfgMgr, answers); err != nil {
		return err
	}

	fmt.Printf("\nConfiguration saved to %s\n", cfgMgr.GetConfigPath())
	fmt.Println()
	return nil
}

// ApplySetup persists wizard answers. A blank API key leaves credential
// resolution to the environment.
func ApplySetup(cfgMgr *config.ViperManager, answers SetupAnswers) error {
	if err := validateModel(answers.Model); err != nil {
		return err
	}

	values := []struct{ key, value string }{
		{"provider.name", string(answers.Provider)},
		{"provider.model", answers.Model},
		{"provider.endpoint", strings.TrimSpace(answers.Endpoint)},
	}
	if key := strings.TrimSpace(answers.APIKey); key != "" {
		values = append(values, struct{ key, value string }{"provider.api_key", key})
	}

	for _, kv := range values {
		if err := cfgMgr.Set(kv.key, kv.value); err != nil {
			return err
		}
	}
	return nil
}
