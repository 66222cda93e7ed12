package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result
// to path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to pageforge! Let's configure your workspace.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"google", "openai", "anthropic", "ollama", "minimax", "openrouter"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   - fast and cheap, good for iterating on layouts",
			"normal - balanced",
			"max    - highest quality pages",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	// 3. Server port.
	portPrompt := promptui.Prompt{
		Label:    "Server port",
		Default:  "8080",
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// 4. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for sessions and history",
		Default: ".pageforge",
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 5. Headless snapshots.
	headlessPrompt := promptui.Prompt{
		Label:     "Capture headless Chrome snapshots after each render",
		IsConfirm: true,
	}
	_, headlessErr := headlessPrompt.Run()

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = PresetModel(provider, quality)
	cfg.Quality = quality
	cfg.Server.Port = port
	cfg.DataDir = dataDir
	cfg.Render.Headless = headlessErr == nil

	// Check for API key.
	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment or .env file before running pageforge.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(input string) error {
	n, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if n <= 0 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
