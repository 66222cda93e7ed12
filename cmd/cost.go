package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pageforge/internal/config"
	"github.com/ziadkadry99/pageforge/internal/llm"
	"github.com/ziadkadry99/pageforge/internal/prompt"
)

// defaultPageTokens is a typical size for a generated single-file page.
const defaultPageTokens = 4000

var costCmd = &cobra.Command{
	Use:   "cost [prompt]",
	Short: "Estimate the API cost of a generation",
	Long: `Builds the exact prompt that would be sent, estimates its tokens and
calculates the expected API cost without making any calls. An edit (--from)
is expected to return a page about the size of the current one.`,
	RunE: runCost,
}

func init() {
	costCmd.Flags().String("from", "", "estimate an edit of this page instead of a new page")
	costCmd.Flags().Int("output-tokens", 0, "expected output tokens (default depends on the mode)")
	rootCmd.AddCommand(costCmd)
}

func runCost(cmd *cobra.Command, args []string) error {
	instruction, err := readPrompt(args)
	if err != nil {
		return err
	}
	from, _ := cmd.Flags().GetString("from")
	outputTokens, _ := cmd.Flags().GetInt("output-tokens")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var (
		payload prompt.Payload
		mode    = "create"
	)
	if from != "" {
		current, err := os.ReadFile(from)
		if err != nil {
			return fmt.Errorf("reading %s: %w", from, err)
		}
		payload = prompt.Edit(instruction, string(current))
		mode = "edit"
		if outputTokens <= 0 {
			outputTokens = llm.EstimateTokens(string(current))
		}
	} else {
		payload = prompt.Create(instruction)
	}
	if outputTokens <= 0 {
		outputTokens = defaultPageTokens
	}
	if cfg.Generation.MaxTokens > 0 && outputTokens > cfg.Generation.MaxTokens {
		outputTokens = cfg.Generation.MaxTokens
	}
	inputTokens := llm.EstimateTokens(payload.String())

	fmt.Println("Cost Estimate")
	fmt.Println("=============")
	fmt.Printf("  Mode:              %s\n", mode)
	fmt.Printf("  Input tokens:      ~%d\n", inputTokens)
	fmt.Printf("  Output tokens:     ~%d\n", outputTokens)
	fmt.Printf("  Estimated cost:    $%.4f\n", llm.EstimateCost(cfg.Model, inputTokens, outputTokens))
	fmt.Println()

	fmt.Println("  Tier Comparison:")
	fmt.Println("  ────────────────────────────────────────")
	for _, tier := range []config.QualityTier{config.QualityLite, config.QualityNormal, config.QualityMax} {
		model := config.PresetModel(cfg.Provider, tier)
		marker := " "
		if tier == cfg.Quality {
			marker = "*"
		}
		fmt.Printf("  %s %-8s  ~$%.4f  (model: %s)\n", marker, tier, llm.EstimateCost(model, inputTokens, outputTokens), model)
	}
	fmt.Println()
	fmt.Println("  * = current configuration")
	fmt.Println()
	fmt.Printf("  Provider: %s\n", cfg.Provider)
	fmt.Printf("  Model:    %s\n", cfg.Model)
	fmt.Printf("  Quality:  %s\n", cfg.Quality)

	return nil
}
