package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ziadkadry99/pageforge/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pageforge configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick a provider, quality tier and server port, and writes the result to the config file (.pageforge.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
