package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docindex/mcp-server/internal/validation"
)

// errInvalid is returned when the artifact fails schema validation
var errInvalid = errors.New("search index is invalid")

func newValidateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a search index against the record schema",
		Long: `Validates every record of a search index (script or bare JSON form) against
the record schema and lists suspicious entries such as sections whose anchor
does not match their title. Exits non-zero when the schema check fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			result, err := validation.Validate(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if asJSON {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal result: %w", err)
				}
				cmd.Println(string(out))
			} else {
				printResult(cmd, args[0], result)
			}

			if !result.Valid {
				return errInvalid
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output the result as JSON")
	return cmd
}

func printResult(cmd *cobra.Command, path string, result *validation.Result) {
	cmd.Printf("%s (%s): %s\n", path, result.Format, result.Summary)
	for _, issue := range result.Errors {
		cmd.Printf("  error   %s: %s\n", issue.Path, issue.Message)
	}
	for _, issue := range result.Warnings {
		cmd.Printf("  warning %s: %s [%s]\n", issue.Path, issue.Message, issue.Code)
	}
}
