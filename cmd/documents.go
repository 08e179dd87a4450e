package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/runbookqa/internal/db"
	"github.com/ziadkadry99/runbookqa/internal/ingest"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Only the catalogue is needed, so skip the embedder and vector store.
		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		docs, err := ingest.NewCatalog(database).List(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		}
		if len(docs) == 0 {
			fmt.Println("No documents ingested. Run `runbookqa ingest <dir>` first.")
			return nil
		}
		for _, d := range docs {
			fmt.Printf("  %-50s %4d chunks  %-12s %s\n", d.Name, d.ChunkCount, d.Source, d.IngestedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	documentsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(documentsCmd)
}
