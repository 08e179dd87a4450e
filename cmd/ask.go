package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long:  `Answers one question against the knowledge base without conversation history. Runbook requests return the whole runbook.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output the full result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(cmd.Context(), cfg)
	defer cancel()

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store.Count() == 0 {
		fmt.Fprintln(os.Stderr, "Warning: the knowledge base is empty. Run `runbookqa ingest <dir>` first.")
	}

	res, err := a.engine.Answer(ctx, strings.Join(args, " "), nil, assistant.State{})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(res)
	return nil
}

func printResult(res *assistant.Result) {
	fmt.Println(res.Answer)
	if len(res.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(res.Sources, ", "))
	}
}
