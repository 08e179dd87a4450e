package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir|file>...",
	Short: "Chunk, embed, and store documents",
	Long: `Ingests .txt and .md documents into the knowledge base. Directories are
walked recursively using ingest.include/ingest.exclude and the root
.gitignore. Re-ingesting a document replaces its chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.ingester.IngestPaths(cmd.Context(), args)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	total := 0
	for _, r := range results {
		fmt.Printf("  %-50s %4d chunks\n", r.DocName, r.Chunks)
		total += r.Chunks
	}
	fmt.Printf("\nIngested %d document(s), %d chunks. Store now holds %d chunks.\n", len(results), total, a.store.Count())
	return nil
}
