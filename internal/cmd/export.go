package cmd

import (
	"fmt"

	"github.com/harrison/archsearch/internal/export"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <report.json> [output]",
		Short: "Convert a saved JSON report to another format",
		Long: `Convert a report written with --export report.json into CSV, SQLite,
Markdown or HTML. Without an output file the report is printed to stdout
(not available for sqlite).

SQLite exports append the run to an existing database.

Examples:
  archsearch export report.json report.html
  archsearch export report.json runs.db
  archsearch export report.json --format md`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runExport,
	}

	cmd.Flags().String("format", "", "Export format: json, csv, sqlite, markdown (or md), html (default: from file suffix)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	report, err := export.LoadJSON(args[0])
	if err != nil {
		return err
	}

	if len(args) == 1 {
		name, _ := cmd.Flags().GetString("format")
		format := export.FormatMarkdown
		if name != "" {
			if format, err = export.ParseFormat(name); err != nil {
				return err
			}
		}
		content, err := export.ExportToString(report, format)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}

	output := args[1]
	format, err := exportFormat(cmd, output)
	if err != nil {
		return err
	}
	if err := export.ExportToFile(cmd.Context(), report, output, format); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s (%s)\n", args[0], output, format)
	return nil
}
