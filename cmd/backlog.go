package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/runbookqa/internal/backlog"
	"github.com/ziadkadry99/runbookqa/internal/db"
)

var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "List questions the knowledge base could not answer",
	Long:  `Lists knowledge gaps: questions for which no ingested document cleared the similarity threshold, most asked first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		gaps, err := backlog.NewStore(database).List(cmd.Context(), backlog.ListFilter{
			Status: backlog.Status(status),
			Limit:  limit,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(gaps)
		}
		if len(gaps) == 0 {
			fmt.Println("No knowledge gaps recorded.")
			return nil
		}
		for _, g := range gaps {
			fmt.Printf("  [%dx] %-9s %s\n", g.TimesAsked, g.Status, g.Question)
		}
		return nil
	},
}

func init() {
	backlogCmd.Flags().String("status", string(backlog.StatusOpen), "filter by status: open, answered, retired (empty for all)")
	backlogCmd.Flags().Int("limit", 20, "maximum number of gaps")
	backlogCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(backlogCmd)
}
