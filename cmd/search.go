package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/runbookqa/internal/vectordb"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantically search the ingested documents",
	Long:  `Searches the vector store and prints the raw matching chunks without answer synthesis or similarity filtering.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 10, "maximum number of results")
	searchCmd.Flags().String("doc", "", "restrict results to one document")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchResultJSON struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
	DocName    string  `json:"doc_name"`
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	docName, _ := cmd.Flags().GetString("doc")
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

	if a.store.Count() == 0 {
		fmt.Println("Vector store is empty. Run `runbookqa ingest <dir>` first.")
		return nil
	}

	var filter *vectordb.SearchFilter
	if docName != "" {
		filter = &vectordb.SearchFilter{DocName: &docName}
	}

	results, err := a.store.Search(cmd.Context(), strings.Join(args, " "), limit, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		out := make([]searchResultJSON, len(results))
		for i, r := range results {
			out[i] = searchResultJSON{
				Rank:       i + 1,
				Similarity: float64(r.Similarity),
				DocName:    r.Chunk.DocName,
				ChunkID:    r.Chunk.ChunkID,
				Text:       r.Chunk.Text,
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Print(vectordb.FormatResults(results))
	return nil
}
