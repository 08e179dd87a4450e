package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/runbookqa/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize runbookqa configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose providers, models, and directories, and writes the config file (default .runbookqa.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
