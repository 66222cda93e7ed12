package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/pageforge/internal/mcp"
)

var serveServerURL string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing tools to
generate, edit and visualize web pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		env, err := openBackend(cfg, serveServerURL)
		if err != nil {
			return err
		}
		defer env.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "pageforge MCP server started on stdio (model=%s)\n", cfg.Model)

		return mcpserver.NewServer(env.Backend).Serve()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveServerURL, "server", "", "use a running pageforge server instead of calling the model directly")
	rootCmd.AddCommand(serveCmd)
}
