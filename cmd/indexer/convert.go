package main

import (
	"github.com/spf13/cobra"

	"github.com/docindex/mcp-server/internal/indexing"
)

func newConvertCmd() *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Rewrite a search index in script or JSON form",
		Long: `Loads a search index and writes it again in the requested form. The output
is written to a temporary file and renamed into place, so readers never see
a partial artifact.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := indexing.ParseFormat(formatName)
			if err != nil {
				return err
			}

			table, err := indexing.Load(args[0])
			if err != nil {
				return err
			}

			if err := indexing.WriteFile(args[1], table, format); err != nil {
				return err
			}

			cmd.Printf("✓ Wrote %d records to %s (%s)\n", table.Len(), args[1], format)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "js", "output format: js or json")
	return cmd
}
