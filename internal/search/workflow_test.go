package search

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/harrison/archsearch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureTree(t *testing.T, root string) {
	t.Helper()
	writeZip(t, filepath.Join(root, "archive.zip"), zipEntry{name: "notes.txt", body: "needle\n"})
	writeFile(t, filepath.Join(root, "logs", "app.log.gz"), gzipData(t, "needle needle\n"))
	writeFile(t, filepath.Join(root, "plain.txt"), []byte("no match\n"))
}

func TestRun_ScanOnly(t *testing.T) {
	root := t.TempDir()
	fixtureTree(t, root)

	report, err := New(Options{}).Run(context.Background(), Request{Mode: ScanOnly, Root: root, Needle: "needle"})
	require.NoError(t, err)

	_, err = uuid.Parse(report.ID)
	assert.NoError(t, err)
	assert.Equal(t, "UTF-8", report.Encoding)
	assert.Nil(t, report.Extraction)
	require.Len(t, report.Searches, 1)
	assert.Equal(t, []string{"app.log", "archive.zip::notes.txt"}, displayNames(report.Results()))
}

func TestRun_UsesGivenID(t *testing.T) {
	root := t.TempDir()
	fixtureTree(t, root)

	report, err := New(Options{}).Run(context.Background(), Request{Root: root, Needle: "needle", ID: "run-42"})
	require.NoError(t, err)
	assert.Equal(t, "run-42", report.ID)
}

func TestRun_ExtractThenScan(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	out := filepath.Join(base, "out")
	fixtureTree(t, src)

	report, err := New(Options{}).Run(context.Background(), Request{
		Mode:       ExtractThenScan,
		Root:       src,
		Needle:     "needle",
		OutputRoot: out,
	})
	require.NoError(t, err)

	require.NotNil(t, report.Extraction)
	assert.Equal(t, 1, report.Extraction.ZipArchives)
	assert.Equal(t, 1, report.Extraction.GzipFiles)

	require.Len(t, report.Searches, 2)
	assert.Equal(t, src, report.Searches[0].Root)
	assert.Equal(t, out, report.Searches[1].Root)

	assert.Equal(t, []string{"app.log", "app.log", "archive.zip::notes.txt", "notes.txt"}, displayNames(report.Results()))

	second := byLocation(report.Searches[1].Results)
	assert.Equal(t, filepath.Join(out, "gz", "app.log"), second[0].Location)
	assert.Equal(t, 2, second[0].OccurrenceCount)
	assert.Equal(t, filepath.Join(out, "zip", "archive.zip", "notes.txt"), second[1].Location)
}

func TestRun_ExtractThenScanNestedOutput(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(src, "extracted")
	fixtureTree(t, src)

	s := New(Options{})
	req := Request{Mode: ExtractThenScan, Root: src, Needle: "needle", OutputRoot: out}

	for i := 0; i < 2; i++ {
		report, err := s.Run(context.Background(), req)
		require.NoError(t, err)
		assert.Len(t, report.Searches[0].Results, 2, "first pass must not descend into the output root")
		assert.Len(t, report.Results(), 4)
	}
}

func TestRun_ExtractThenScanOutputViaSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	base := t.TempDir()
	src := filepath.Join(base, "src")
	fixtureTree(t, src)
	require.NoError(t, os.MkdirAll(filepath.Join(src, "extracted"), 0755))
	alias := filepath.Join(base, "alias")
	require.NoError(t, os.Symlink(filepath.Join(src, "extracted"), alias))

	report, err := New(Options{}).Run(context.Background(), Request{
		Mode:       ExtractThenScan,
		Root:       src,
		Needle:     "needle",
		OutputRoot: alias,
	})
	require.NoError(t, err)

	require.Len(t, report.Searches, 2)
	assert.Len(t, report.Searches[0].Results, 2, "first pass must not descend into the aliased output root")
	assert.Len(t, report.Searches[1].Results, 2)
	assert.Empty(t, report.Diagnostics())
}

func TestRun_ZipSlipIsReported(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeZip(t, filepath.Join(src, "evil.zip"),
		zipEntry{name: "notes.txt", body: "needle"},
		zipEntry{name: "../../evil.txt", body: "needle"},
	)

	report, err := New(Options{}).Run(context.Background(), Request{
		Mode:       ExtractThenScan,
		Root:       src,
		Needle:     "needle",
		OutputRoot: filepath.Join(base, "out"),
	})
	require.NoError(t, err)

	diags := report.Diagnostics()
	require.NotEmpty(t, diags)
	assert.Equal(t, models.KindPathTraversal, diags[0].Kind)
	assert.NoFileExists(t, filepath.Join(base, "evil.txt"))

	// The archive is still searched in place: the text entry matches.
	assert.Contains(t, displayNames(report.Results()), "evil.zip::notes.txt")
}

func TestRun_ValidatesBeforeWriting(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	out := filepath.Join(base, "out")
	fixtureTree(t, src)

	s := New(Options{})

	_, err := s.Run(context.Background(), Request{Mode: ExtractThenScan, Root: src, Needle: "   ", OutputRoot: out})
	assert.True(t, models.IsInvalidInput(err))
	assert.NoDirExists(t, out)

	_, err = s.Run(context.Background(), Request{Mode: ExtractThenScan, Root: src, Needle: "needle"})
	assert.True(t, models.IsInvalidInput(err))

	_, err = s.Run(context.Background(), Request{Mode: Mode(9), Root: src, Needle: "needle"})
	assert.True(t, models.IsInvalidInput(err))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "scan_only", ScanOnly.String())
	assert.Equal(t, "extract_then_scan", ExtractThenScan.String())
}

func TestSummary(t *testing.T) {
	r := &models.RunReport{
		ID: "abc",
		Searches: []*models.SearchReport{
			{Results: make([]models.SearchResult, 2)},
			{Results: make([]models.SearchResult, 1), Diagnostics: make([]models.Diagnostic, 1)},
		},
	}
	assert.Equal(t, "run abc: 3 results, 1 diagnostics across 2 passes", Summary(r))
}
