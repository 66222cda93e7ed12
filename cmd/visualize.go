package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize <page.html>",
	Short: "Draw a plain-text backend diagram for a page",
	Long:  `Asks the model which backend services, APIs and data stores the page would need and prints them as a plain-text diagram.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		serverURL, _ := cmd.Flags().GetString("server")

		markup, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		env, err := openBackend(cfg, serverURL)
		if err != nil {
			return err
		}
		defer env.Close()

		diagram, err := env.Backend.Visualize(ctx, string(markup))
		if err != nil {
			return fmt.Errorf("visualization failed: %w", err)
		}
		fmt.Println(diagram)
		return nil
	},
}

func init() {
	visualizeCmd.Flags().String("server", "", "use a running pageforge server instead of calling the model directly")
	rootCmd.AddCommand(visualizeCmd)
}
