package extract

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/harrison/archsearch/internal/filelock"
	"github.com/harrison/archsearch/internal/models"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	body string
}

func zipBytes(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		require.NoError(t, err)
		if !strings.HasSuffix(e.name, "/") {
			_, err = fw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func gzBytes(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// snapshot maps every regular file under root to its content.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			out[filepath.ToSlash(rel)] = string(data)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestExtract_Layout(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	out := filepath.Join(base, "out")

	writeFile(t, filepath.Join(src, "a.zip"), zipBytes(t,
		entry{name: "dir/"},
		entry{name: "dir/notes.txt", body: "needle"},
		entry{name: "top.log", body: "log line"},
		entry{name: "image.png", body: "\x89PNG"},
	))
	writeFile(t, filepath.Join(src, "logs", "server.log.gz"), gzBytes(t, []byte("gz needle\n")))
	writeFile(t, filepath.Join(src, "plain.txt"), []byte("not copied"))

	report, err := New(nil).Extract(context.Background(), src, out)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"zip/a.zip/dir/notes.txt": "needle",
		"zip/a.zip/top.log":       "log line",
		"zip/a.zip/image.png":     "\x89PNG",
		"gz/server.log":           "gz needle\n",
	}, snapshot(t, out))

	assert.Equal(t, 1, report.ZipArchives)
	assert.Equal(t, 1, report.GzipFiles)
	assert.Equal(t, 4, report.FilesWritten)
	assert.Empty(t, report.Diagnostics)
	assert.Equal(t, out, report.OutputRoot)
}

func TestExtract_SymlinkedSourceRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	base := t.TempDir()
	target := filepath.Join(base, "real")
	writeFile(t, filepath.Join(target, "a.zip"), zipBytes(t, entry{name: "x.txt", body: "x"}))
	writeFile(t, filepath.Join(target, "b.log.gz"), gzBytes(t, []byte("b")))
	link := filepath.Join(base, "link")
	require.NoError(t, os.Symlink(target, link))
	out := filepath.Join(base, "out")

	report, err := New(nil).Extract(context.Background(), link, out)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ZipArchives)
	assert.Equal(t, 1, report.GzipFiles)
	assert.Equal(t, map[string]string{
		"zip/a.zip/x.txt": "x",
		"gz/b.log":        "b",
	}, snapshot(t, out))
}

func TestExtract_SanitizesArchiveName(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	out := filepath.Join(base, "out")
	writeFile(t, filepath.Join(src, "my archive (1).zip"), zipBytes(t, entry{name: "x.txt", body: "x"}))

	_, err := New(nil).Extract(context.Background(), src, out)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "zip", "my_archive__1_.zip", "x.txt"))
}

func TestExtract_ZipSlipRejected(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"parent escape", "../../evil.txt"},
		{"nested escape", "a/../../../evil.txt"},
		{"backslash escape", `..\..\evil.txt`},
		{"single parent", "../evil.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			src := filepath.Join(base, "src")
			out := filepath.Join(base, "out")

			writeFile(t, filepath.Join(src, "evil.zip"), zipBytes(t,
				entry{name: "ok.txt", body: "written first?"},
				entry{name: tt.entry, body: "pwned"},
			))
			writeFile(t, filepath.Join(src, "good.zip"), zipBytes(t, entry{name: "fine.txt", body: "fine"}))

			report, err := New(nil).Extract(context.Background(), src, out)
			require.NoError(t, err, "traversal is recovered per archive")

			require.Len(t, report.Diagnostics, 1)
			d := report.Diagnostics[0]
			assert.Equal(t, models.KindPathTraversal, d.Kind)
			assert.Equal(t, tt.entry, d.Entry)
			assert.Equal(t, filepath.Join(src, "evil.zip"), d.Path)

			assert.NoDirExists(t, filepath.Join(out, "zip", "evil.zip"))
			assert.FileExists(t, filepath.Join(out, "zip", "good.zip", "fine.txt"))
			assert.Equal(t, 1, report.ZipArchives)

			var found []string
			filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
				if err == nil && d.Name() == "evil.txt" {
					found = append(found, path)
				}
				return nil
			})
			assert.Empty(t, found, "evil.txt must not be created anywhere")

			entries, err := os.ReadDir(filepath.Join(out, "zip"))
			require.NoError(t, err)
			for _, e := range entries {
				assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "staging directory left behind: %s", e.Name())
			}
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	out := filepath.Join(base, "out")

	writeFile(t, filepath.Join(src, "a.zip"), zipBytes(t,
		entry{name: "one.txt", body: "1"},
		entry{name: "sub/two.txt", body: "2"},
	))
	writeFile(t, filepath.Join(src, "b.log.gz"), gzBytes(t, []byte("b")))

	x := New(nil)
	_, err := x.Extract(context.Background(), src, out)
	require.NoError(t, err)
	first := snapshot(t, out)

	_, err = x.Extract(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, out))
}

func TestExtract_ReplacesStaleContent(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	out := filepath.Join(base, "out")
	zipPath := filepath.Join(src, "a.zip")

	writeFile(t, zipPath, zipBytes(t, entry{name: "old.txt", body: "old"}, entry{name: "keep.txt", body: "v1"}))
	_, err := New(nil).Extract(context.Background(), src, out)
	require.NoError(t, err)

	writeFile(t, zipPath, zipBytes(t, entry{name: "keep.txt", body: "v2"}))
	_, err = New(nil).Extract(context.Background(), src, out)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"zip/a.zip/keep.txt": "v2"}, snapshot(t, out))
}

func TestExtract_SameSanitizedNameMerges(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	out := filepath.Join(base, "out")

	writeFile(t, filepath.Join(src, "a", "x.zip"), zipBytes(t, entry{name: "from-a.txt", body: "a"}, entry{name: "shared.txt", body: "a"}))
	writeFile(t, filepath.Join(src, "b", "x.zip"), zipBytes(t, entry{name: "from-b.txt", body: "b"}, entry{name: "shared.txt", body: "b"}))

	report, err := New(nil).Extract(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, 2, report.ZipArchives)

	got := snapshot(t, out)
	assert.Equal(t, "a", got["zip/x.zip/from-a.txt"])
	assert.Equal(t, "b", got["zip/x.zip/from-b.txt"])
	assert.Contains(t, []string{"a", "b"}, got["zip/x.zip/shared.txt"])
}

func TestExtract_CorruptInputsAreRecovered(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	out := filepath.Join(base, "out")

	full := gzBytes(t, bytes.Repeat([]byte("line of text\n"), 5000))
	writeFile(t, filepath.Join(src, "truncated.log.gz"), full[:len(full)/2])
	writeFile(t, filepath.Join(src, "garbage.zip"), []byte("not a zip at all"))
	writeFile(t, filepath.Join(src, "fine.txt.gz"), gzBytes(t, []byte("ok")))

	report, err := New(nil).Extract(context.Background(), src, out)
	require.NoError(t, err)

	kinds := map[string]models.ErrorKind{}
	for _, d := range report.Diagnostics {
		kinds[filepath.Base(d.Path)] = d.Kind
	}
	assert.Equal(t, map[string]models.ErrorKind{
		"truncated.log.gz": models.KindDecompression,
		"garbage.zip":      models.KindDecompression,
	}, kinds)

	assert.Equal(t, 1, report.GzipFiles)
	assert.Equal(t, map[string]string{"gz/fine.txt": "ok"}, snapshot(t, out))
}

func TestExtract_SkipsOutputRootInsideSource(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(src, "out")

	inner := zipBytes(t, entry{name: "inner.txt", body: "inner"})
	writeFile(t, filepath.Join(src, "bundle.zip.gz"), gzBytes(t, inner))

	x := New(nil)
	report, err := x.Extract(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, 1, report.GzipFiles)
	assert.Equal(t, 0, report.ZipArchives)

	report, err = x.Extract(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ZipArchives, "decompressed bundle.zip must not be re-extracted")
	assert.NoDirExists(t, filepath.Join(out, "zip"))
}

func TestExtract_InvalidInput(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "file.txt"), []byte("x"))

	_, err := New(nil).Extract(context.Background(), filepath.Join(base, "missing"), filepath.Join(base, "out"))
	assert.True(t, models.IsInvalidInput(err))

	_, err = New(nil).Extract(context.Background(), filepath.Join(base, "file.txt"), filepath.Join(base, "out"))
	assert.True(t, models.IsInvalidInput(err))

	_, err = New(nil).Extract(context.Background(), base, "")
	assert.True(t, models.IsInvalidInput(err))

	require.NoError(t, os.MkdirAll(filepath.Join(base, "out", "sub"), 0755))
	_, err = New(nil).Extract(context.Background(), filepath.Join(base, "out", "sub"), filepath.Join(base, "out"))
	assert.True(t, models.IsInvalidInput(err), "source inside output is rejected")
}

func TestExtract_OutputLocked(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	out := filepath.Join(base, "out")
	writeFile(t, filepath.Join(src, "a.zip"), zipBytes(t, entry{name: "a.txt", body: "a"}))
	require.NoError(t, os.MkdirAll(out, 0755))

	canon, err := Canonicalize(out)
	require.NoError(t, err)
	lock, err := filelock.Acquire(canon)
	require.NoError(t, err)
	defer lock.Unlock()

	_, err = New(nil).Extract(context.Background(), src, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, filelock.ErrLocked)
	assert.NoDirExists(t, filepath.Join(out, "zip"))
}

func TestExtract_ContextCancelled(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeFile(t, filepath.Join(src, "a.zip"), zipBytes(t, entry{name: "a.txt", body: "a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(nil).Extract(ctx, src, filepath.Join(base, "out"))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.ZipArchives)
}
