package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harrison/archsearch/internal/classify"
	"github.com/harrison/archsearch/internal/display"
	"github.com/harrison/archsearch/internal/search"
	"github.com/spf13/cobra"
)

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <root> <needle>",
		Short: "Count occurrences of a string in text files, gzip files and zip entries",
		Long: `Search every file under a directory tree for a literal, case-sensitive string.

Plain text files are scanned directly, .gz files are decompressed on the fly and
every text entry of a .zip archive is scanned without extracting it. With
--extract-to, archives are first extracted into the given directory and both
the source tree and the extracted tree are searched.

Files that cannot be read are reported as warnings and never stop the search.

Configuration is loaded from .archsearch/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  archsearch search /var/log "connection refused"
  archsearch search --plain ./logs ERROR          # Ignore .gz and .zip files
  archsearch search --extract-to ./out ./dumps OOM
  archsearch search --encoding ISO-8859-1 ./legacy café
  archsearch search --no-lines ./logs timeout     # Counts only
  archsearch search --export report.html ./logs timeout`,
		Args: cobra.ExactArgs(2),
		RunE: runSearch,
	}

	addConfigFlags(cmd)
	addExportFlags(cmd)
	cmd.Flags().Bool("plain", false, "Scan plain text files only (.gz and .zip are skipped)")
	cmd.Flags().String("extract-to", "", "Extract archives into this directory, then search both trees")
	cmd.Flags().String("encoding", "", "Text encoding of scanned files (default: UTF-8)")
	cmd.Flags().Bool("no-lines", false, "Do not capture matching lines")
	cmd.Flags().StringSlice("exclude", nil, "Directory names to skip (repeatable)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	root, needle := args[0], args[1]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	plain, _ := cmd.Flags().GetBool("plain")
	extractTo := changed(cmd, "extract-to")
	if plain && extractTo {
		return fmt.Errorf("cannot use both --plain and --extract-to")
	}

	enc, err := cfg.TextEncoding()
	if err != nil {
		return err
	}

	exclude := append([]string(nil), cfg.ExcludeDirs...)
	if extra, _ := cmd.Flags().GetStringSlice("exclude"); len(extra) > 0 {
		exclude = append(exclude, extra...)
	}

	runID := uuid.NewString()
	log, err := newRunLogger(cmd, cfg, runID)
	if err != nil {
		return err
	}
	defer log.Close()

	searcher := search.New(search.Options{
		Classifier:   classify.New(cfg.ClassifierConfig(plain)),
		Encoding:     enc,
		CaptureLines: cfg.CaptureLines,
		CaptureLimit: cfg.CaptureLimit,
		MaxLineBytes: cfg.MaxLineBytes,
		ExcludeDirs:  exclude,
		Logger:       log,
	})

	req := search.Request{
		Mode:   search.ScanOnly,
		Root:   root,
		Needle: needle,
		ID:     runID,
	}
	if extractTo {
		if strings.TrimSpace(cfg.OutputDir) == "" {
			return fmt.Errorf("--extract-to requires a directory")
		}
		req.Mode = search.ExtractThenScan
		req.OutputRoot = cfg.OutputDir
	}

	log.LogDebug(fmt.Sprintf("Run %s (%s)", runID, req.Mode))

	report, err := searcher.Run(cmd.Context(), req)
	if report != nil {
		display.NewPrinter(cmd.OutOrStdout()).Run(report)
		log.LogInfo(search.Summary(report))
	}
	if err != nil {
		return err
	}

	return writeExport(cmd, report, log)
}
