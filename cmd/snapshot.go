package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <page.html>",
	Short: "Render a page in headless Chrome",
	Long: `Loads a page in headless Chrome with scripts enabled and prints its title
and visible text. With --png a full-page screenshot is saved as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		pngPath, _ := cmd.Flags().GetString("png")

		markup, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		h, err := newHeadless(cfg)
		if err != nil {
			return err
		}

		snap, err := h.Snapshot(ctx, string(markup), pngPath != "")
		if err != nil {
			return err
		}

		fmt.Printf("Title: %s\n\n%s\n", snap.Title, snap.Text)
		if pngPath != "" {
			if err := os.WriteFile(pngPath, snap.PNG, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", pngPath, err)
			}
			fmt.Fprintf(os.Stderr, "Screenshot saved to %s\n", pngPath)
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().String("png", "", "save a full-page screenshot to this file")
	rootCmd.AddCommand(snapshotCmd)
}
