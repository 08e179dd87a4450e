package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/runbookqa/internal/runbooks"
)

var runbookCmd = &cobra.Command{
	Use:   "runbook [name]",
	Short: "Print a runbook, or list the catalogue",
	Long:  `Prints the full text of a runbook by catalogue id (e.g. "incident") or file name. Without a name, lists the catalogue.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, e := range runbooks.Catalogue {
				fmt.Printf("  %-16s %s\n", e.ID, e.Name)
			}
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := runbooks.NewFileStore(cfg.RunbooksDir)
		if err != nil {
			return err
		}

		content, err := store.Get(args[0])
		if errors.Is(err, runbooks.ErrAccessDenied) {
			return errors.New(runbooks.AccessDeniedMessage)
		}
		if err != nil {
			return err
		}
		fmt.Println(content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runbookCmd)
}
