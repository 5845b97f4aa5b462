package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/docindex/mcp-server/internal/config"
	"github.com/docindex/mcp-server/internal/indexing"
	"github.com/docindex/mcp-server/internal/validation"
	"github.com/docindex/mcp-server/tools"
)

func newInstallCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "install <file>",
		Short: "Replace the served search index with a freshly generated one",
		Long: `Validates a search index produced by a documentation build and installs it
as the served artifact. The file is written under the index lock and renamed
into place, so running servers and watchers only ever see a complete table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("file") {
				cfg.IndexFile = file
			}
			return runInstall(cmd, cfg, args[0])
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "served search index to replace (default from config)")
	return cmd
}

func runInstall(cmd *cobra.Command, cfg *config.Config, source string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", source, err)
	}

	result, err := validation.Validate(data)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	if !result.Valid {
		printResult(cmd, source, result)
		return errInvalid
	}

	table, err := indexing.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	store := tools.NewStore(cfg)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: %v", err)
		}
	}()

	snap, err := store.WriteArtifact(table)
	if err != nil {
		return fmt.Errorf("failed to install search index: %w", err)
	}

	cmd.Printf("✓ Installed %d records to %s\n", snap.Table.Len(), snap.Source)
	return nil
}
