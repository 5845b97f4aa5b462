// Command indexer checks, converts and serves documentation search indexes.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "indexer",
		Short: "Documentation search index tool",
		Long: `Loads, checks and serves the search_index.js artifact produced by the
documentation generator. The index table is never edited in place: convert
and install write a complete new artifact and serve swaps the whole table on reload.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newValidateCmd(),
		newConvertCmd(),
		newStatsCmd(),
		newInstallCmd(),
		newServeCmd(),
	)
	return root
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ltime)

	root := newRootCmd()
	root.SetOut(os.Stdout)
	if err := root.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
