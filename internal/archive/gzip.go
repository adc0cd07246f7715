// Package archive opens gzip files as a single logical stream and zip files as a
// forward-only cursor over their entries.
package archive

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/harrison/archsearch/internal/classify"
	"github.com/harrison/archsearch/internal/models"
	"github.com/klauspost/compress/gzip"
)

// GzipStream is the decompressed payload of one .gz file.
// Read errors from the decompressor are reported as Decompression errors.
type GzipStream struct {
	// DisplayName is the filename with the .gz suffix removed.
	DisplayName string

	path string
	file *os.File
	zr   *gzip.Reader
}

// OpenGzip opens path and reads its gzip header. The caller must Close the stream.
func OpenGzip(path string) (*GzipStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewError(models.KindFilesystem, "open failed", err).WithPath(path)
	}

	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, decompressionError("invalid gzip header", err).WithPath(path)
	}

	return &GzipStream{
		DisplayName: GzipDisplayName(path),
		path:        path,
		file:        f,
		zr:          zr,
	}, nil
}

// Read implements io.Reader.
func (g *GzipStream) Read(p []byte) (int, error) {
	n, err := g.zr.Read(p)
	if err != nil && err != io.EOF {
		var pe *os.PathError
		if errors.As(err, &pe) {
			return n, models.NewError(models.KindFilesystem, "read failed", err).WithPath(g.path)
		}
		return n, decompressionError("corrupt gzip stream", err).WithPath(g.path)
	}
	return n, err
}

// Close releases the decompressor and the file handle.
func (g *GzipStream) Close() error {
	zerr := g.zr.Close()
	ferr := g.file.Close()
	if ferr != nil {
		return ferr
	}
	return zerr
}

// GzipDisplayName returns the base name of path without its .gz suffix.
func GzipDisplayName(path string) string {
	return classify.TrimExtension(filepath.Base(path), classify.GzipExtension)
}

func decompressionError(msg string, err error) *models.Error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return models.NewError(models.KindDecompression, msg, err)
}
