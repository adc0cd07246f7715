package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for archsearch
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archsearch",
		Short: "Archive-aware text search",
		Long: `archsearch counts occurrences of a literal string across a directory tree,
looking inside gzip files and zip archives as well as plain text files.

It can also extract every archive in a tree into a separate directory with
zip-slip protection, and export search reports as JSON, CSV, SQLite, Markdown
or HTML.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewSearchCommand())
	cmd.AddCommand(NewExtractCommand())
	cmd.AddCommand(NewExportCommand())

	return cmd
}
