package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pageforge/internal/progress"
	"github.com/ziadkadry99/pageforge/internal/sanitize"
)

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a web page from a description",
	Long: `Generates a complete single-file web page from a plain-language description.
The page streams to stdout as it is written, or to --out with a progress
indicator. Files written with --out are sandboxed preview host pages unless
--raw is given. With --from the description is applied as a change to an
existing page instead.`,
	Example: `  pageforge generate "a landing page for a coffee shop" --out preview.html
  pageforge generate "a landing page for a coffee shop" --raw --out index.html
  pageforge generate "make the header dark blue" --from index.html --raw --out index.html
  echo "a pricing table with three tiers" | pageforge generate`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("from", "", "existing page to edit instead of generating a new one")
	generateCmd.Flags().StringP("out", "o", "", "write the page to this file instead of stdout")
	generateCmd.Flags().String("title", "", "title of the preview host page")
	generateCmd.Flags().Bool("raw", false, "write plain markup instead of a sandboxed preview host page; on stdout, keep fence markers")
	generateCmd.Flags().String("server", "", "use a running pageforge server instead of calling the model directly")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	instruction, err := readPrompt(args)
	if err != nil {
		return err
	}

	from, _ := cmd.Flags().GetString("from")
	out, _ := cmd.Flags().GetString("out")
	title, _ := cmd.Flags().GetString("title")
	raw, _ := cmd.Flags().GetBool("raw")
	serverURL, _ := cmd.Flags().GetString("server")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	env, err := openBackend(cfg, serverURL)
	if err != nil {
		return err
	}
	defer env.Close()

	var markup string
	if from != "" {
		current, err := os.ReadFile(from)
		if err != nil {
			return fmt.Errorf("reading %s: %w", from, err)
		}
		markup, err = env.Backend.Edit(ctx, instruction, string(current))
		if err != nil {
			return fmt.Errorf("edit failed: %w", err)
		}
		if strings.TrimSpace(markup) == "" {
			return fmt.Errorf("edit failed: the model returned an empty document")
		}
	} else {
		markup, err = streamCreate(ctx, env, instruction, out == "", raw && out == "")
		if err != nil {
			return err
		}
	}

	if out == "" {
		if from != "" {
			fmt.Println(markup)
		}
		return nil
	}

	if err := newRenderer(cfg, out, title, raw).Render(ctx, markup); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d bytes) in %s\n", out, len(markup), time.Since(start).Round(time.Millisecond))
	return nil
}

// streamCreate runs a create call. When toStdout is set the page is printed
// as it arrives; otherwise progress is reported. The returned page has its
// fences stripped unless keepFences is set.
func streamCreate(ctx context.Context, env *backendEnv, instruction string, toStdout, keepFences bool) (string, error) {
	var (
		sb       strings.Builder
		filter   = sanitize.NewStreamFilter()
		reporter progress.Reporter
	)
	if !toStdout {
		reporter = progress.NewReporter()
		reporter.Start("Generating")
	}

	emit := func(s string) {
		if toStdout && s != "" {
			fmt.Print(s)
		}
	}

	err := env.Backend.Create(ctx, instruction, func(chunk string) error {
		sb.WriteString(chunk)
		if reporter != nil {
			reporter.Add(len(chunk))
		}
		if keepFences {
			emit(chunk)
		} else {
			emit(filter.Write(chunk))
		}
		return nil
	})
	if reporter != nil {
		reporter.Finish()
	}
	if !keepFences {
		emit(filter.Flush())
	}
	if toStdout {
		fmt.Println()
	}
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	if keepFences {
		return sb.String(), nil
	}
	return sanitize.Markup(sb.String()), nil
}
