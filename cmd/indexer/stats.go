package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docindex/mcp-server/internal/indexing"
)

// statsReport is the --json output of the stats command
type statsReport struct {
	File    string                 `json:"file"`
	Stats   indexing.Stats         `json:"stats"`
	Outline []indexing.PageOutline `json:"outline"`
}

func newStatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Show record counts and the page outline of a search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := indexing.Load(args[0])
			if err != nil {
				return err
			}

			report := statsReport{
				File:    args[0],
				Stats:   indexing.ComputeStats(table),
				Outline: indexing.Outline(table),
			}
			if report.Outline == nil {
				report.Outline = []indexing.PageOutline{}
			}

			if asJSON {
				out, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal stats: %w", err)
				}
				cmd.Println(string(out))
				return nil
			}

			printStats(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output stats as JSON")
	return cmd
}

func printStats(cmd *cobra.Command, report statsReport) {
	s := report.Stats
	cmd.Printf("%s\n", report.File)
	cmd.Printf("  Records:      %d\n", s.Records)
	cmd.Printf("  Pages:        %d\n", s.Pages)
	cmd.Printf("  Sections:     %d\n", s.Sections)
	cmd.Printf("  Page entries: %d\n", s.PageEntries)
	cmd.Printf("  Empty text:   %d\n", s.EmptyText)
	cmd.Printf("  Locations:    %d\n", s.Locations)

	for _, page := range report.Outline {
		cmd.Println()
		cmd.Printf("%s (%d records)\n", page.Page, page.Records)
		for _, section := range page.Sections {
			cmd.Printf("  - %s  %s\n", section.Title, section.Location)
		}
	}
}
