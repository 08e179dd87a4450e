package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/runbookqa/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "runbookqa",
	Short: "Conversational question answering over runbooks and documents",
	Long: `runbookqa answers questions about an ingested knowledge base. It retrieves
relevant document chunks, synthesizes answers with a language model, and
hands out whole runbooks or focused runbook excerpts on request. It serves
the same assistant over a CLI, a REST/WebSocket API, and MCP.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine.
		_ = godotenv.Load()
		setupLogging("info")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setupLogging points the global logger at stderr. Stdout carries answers
// and MCP frames.
func setupLogging(level string) {
	if verbose {
		level = "debug"
	}
	log.DefaultLogger = log.Logger{
		Level: log.ParseLevel(level),
		Writer: &log.ConsoleWriter{
			Writer:      os.Stderr,
			ColorOutput: log.IsTerminal(os.Stderr.Fd()),
		},
	}
}
