package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/archsearch/internal/display"
	"github.com/harrison/archsearch/internal/extract"
	"github.com/harrison/archsearch/internal/models"
	"github.com/spf13/cobra"
)

// NewExtractCommand creates the extract command
func NewExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <root> [output]",
		Short: "Safely extract every .zip and .gz file under a directory",
		Long: `Extract every archive under a directory tree into an output directory.

Zip archives are extracted into <output>/zip/<archive name>/ and gzip files are
decompressed into <output>/gz/<name without .gz>. Entries that would escape the
output directory are rejected and the archive is skipped. Each archive is
extracted into a staging directory first, so a failed archive never leaves a
partial tree behind.

The output directory defaults to output_dir from the configuration file.

Examples:
  archsearch extract ./dumps ./extracted
  archsearch extract ./dumps                       # Uses output_dir from config
  archsearch extract --export extract.json ./dumps ./extracted`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runExtract,
	}

	addConfigFlags(cmd)
	addExportFlags(cmd)

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	source := args[0]
	output := cfg.OutputDir
	if len(args) == 2 {
		output = args[1]
	}
	if strings.TrimSpace(output) == "" {
		return fmt.Errorf("no output directory given and output_dir is not configured")
	}

	runID := uuid.NewString()
	log, err := newRunLogger(cmd, cfg, runID)
	if err != nil {
		return err
	}
	defer log.Close()

	started := time.Now()
	result, err := extract.New(log).Extract(cmd.Context(), source, output)
	if result != nil {
		p := display.NewPrinter(cmd.OutOrStdout())
		p.Extraction(result)
		p.Diagnostics(result.Diagnostics)
	}
	if err != nil {
		return err
	}

	report := &models.RunReport{
		ID:         runID,
		StartedAt:  started,
		Extraction: result,
	}
	return writeExport(cmd, report, log)
}
