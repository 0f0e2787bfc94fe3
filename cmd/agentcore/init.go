package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file by choosing an LLM provider",
	RunE:  runInit,
}

// providerEnvHint names the environment variable a built-in provider reads
// its API key from, so the wizard can tell the user which ones are already
// usable.
var providerEnvHint = map[string]string{
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"zen":        "ZEN_API_KEY",
	"xai":        "XAI_API_KEY",
}

func runInit(cmd *cobra.Command, args []string) error {
	names := config.GetBuiltInProviderNames()
	sort.Strings(names)

	options := make([]huh.Option[string], 0, len(names))
	for _, name := range names {
		label := name
		hint, hasHint := providerEnvHint[name]
		if hasHint {
			if os.Getenv(hint) != "" {
				label = fmt.Sprintf("%s ✓", name)
			} else {
				label = fmt.Sprintf("%s (set %s)", name, hint)
			}
		}
		options = append(options, huh.NewOption(label, name))
	}

	var provider, model string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which LLM provider do you want to use?").
				Options(options...).
				Value(&provider),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Model name").
				Placeholder("e.g. claude-sonnet-4-5, gpt-5.2").
				Value(&model),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if hint, ok := providerEnvHint[provider]; ok && os.Getenv(hint) == "" {
		fmt.Fprintf(os.Stderr, "warning: %s is not set; %s will fail to authenticate until it is\n", hint, provider)
	}

	cfg := &config.Config{
		DefaultProvider: provider,
		Providers: map[string]config.ProviderConfig{
			provider: {Model: model},
		},
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	path, _ := config.GetConfigPath()
	fmt.Printf("Config saved to %s\n", path)
	return nil
}
