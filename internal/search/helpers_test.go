package search

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/harrison/archsearch/internal/models"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name   string
	body   string
	method uint16
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writeZip(t *testing.T, path string, entries ...zipEntry) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		method := e.method
		if method == 0 && !strings.HasSuffix(e.name, "/") {
			method = zip.Deflate
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: method})
		require.NoError(t, err)
		if !strings.HasSuffix(e.name, "/") {
			_, err = fw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	writeFile(t, path, buf.Bytes())
}

func gzipData(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func byLocation(results []models.SearchResult) []models.SearchResult {
	out := append([]models.SearchResult(nil), results...)
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

func displayNames(results []models.SearchResult) []string {
	var names []string
	for _, r := range results {
		names = append(names, r.DisplayName)
	}
	sort.Strings(names)
	return names
}

func diagnosticKinds(diags []models.Diagnostic) map[string]models.ErrorKind {
	out := make(map[string]models.ErrorKind)
	for _, d := range diags {
		key := filepath.Base(d.Path)
		if d.Entry != "" {
			key += models.EntrySeparator + d.Entry
		}
		out[key] = d.Kind
	}
	return out
}
