package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/harrison/archsearch/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownExporter exports a report in Markdown format
type MarkdownExporter struct {
	IncludeTimestamp bool // Include export timestamp in header
}

// Export converts the report to Markdown
func (me *MarkdownExporter) Export(report *models.RunReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report cannot be nil")
	}

	var sb strings.Builder

	sb.WriteString("# Search Report\n\n")
	if me.IncludeTimestamp {
		sb.WriteString(fmt.Sprintf("**Generated**: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))
	}

	results := report.Results()
	diags := report.Diagnostics()

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Run**: %s\n", escapeMarkdown(report.ID)))
	sb.WriteString(fmt.Sprintf("- **Needle**: %s\n", escapeMarkdown(fmt.Sprintf("%q", report.Needle))))
	sb.WriteString(fmt.Sprintf("- **Encoding**: %s\n", escapeMarkdown(report.Encoding)))
	if !report.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Started**: %s\n", report.StartedAt.Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("- **Results**: %d\n", len(results)))
	sb.WriteString(fmt.Sprintf("- **Diagnostics**: %d\n", len(diags)))
	sb.WriteString("\n")

	if x := report.Extraction; x != nil {
		sb.WriteString("## Extraction\n\n")
		sb.WriteString(fmt.Sprintf("- **Source**: %s\n", escapeMarkdown(x.SourceRoot)))
		sb.WriteString(fmt.Sprintf("- **Output**: %s\n", escapeMarkdown(x.OutputRoot)))
		sb.WriteString(fmt.Sprintf("- **Zip Archives**: %d\n", x.ZipArchives))
		sb.WriteString(fmt.Sprintf("- **Gzip Files**: %d\n", x.GzipFiles))
		sb.WriteString(fmt.Sprintf("- **Files Written**: %d\n", x.FilesWritten))
		sb.WriteString("\n")
	}

	for i, s := range report.Searches {
		sb.WriteString(fmt.Sprintf("## Pass %d: %s\n\n", i+1, escapeMarkdown(s.Root)))
		sb.WriteString(fmt.Sprintf("%d files visited, %d skipped with errors, %s\n\n",
			s.FilesVisited, s.FilesSkipped, s.Duration.Round(time.Millisecond)))

		if len(s.Results) == 0 {
			sb.WriteString("No matches.\n\n")
			continue
		}

		sb.WriteString("| Name | Folder | Occurrences |\n")
		sb.WriteString("|------|--------|-------------|\n")
		for _, r := range s.Results {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n",
				escapeMarkdown(r.DisplayName), escapeMarkdown(r.Folder), r.OccurrenceCount))
		}
		sb.WriteString("\n")

		for _, r := range s.Results {
			if len(r.SampleLines) == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("### %s\n\n", escapeMarkdown(r.Location)))
			for _, l := range r.SampleLines {
				sb.WriteString(fmt.Sprintf("- L%d: %s\n", l.Number, escapeMarkdown(l.Text)))
			}
			sb.WriteString("\n")
		}
	}

	if len(diags) > 0 {
		sb.WriteString("## Diagnostics\n\n")
		sb.WriteString("| Path | Entry | Kind | Message |\n")
		sb.WriteString("|------|-------|------|---------|\n")
		for _, d := range diags {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				escapeMarkdown(d.Path), escapeMarkdown(d.Entry), d.Kind, escapeMarkdown(d.Message)))
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "|", `\|`, "\r", " ", "\n", " ",
)

// escapeMarkdown makes arbitrary text safe inside a list item or table cell.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// HTMLExporter renders the Markdown report as a standalone HTML page
type HTMLExporter struct {
	Title string // Page title (default "Search Report")
}

// Export converts the report to HTML
func (he *HTMLExporter) Export(report *models.RunReport) ([]byte, error) {
	src, err := (&MarkdownExporter{IncludeTimestamp: true}).Export(report)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert(src, &body); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}

	title := he.Title
	if title == "" {
		title = "Search Report"
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	out.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(title)))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
