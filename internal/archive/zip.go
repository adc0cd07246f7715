package archive

import (
	"errors"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/harrison/archsearch/internal/models"
	"github.com/klauspost/compress/zip"
)

// ErrEntryClosed is returned when reading an entry after the cursor has moved on.
var ErrEntryClosed = errors.New("zip entry stream closed")

// ZipOptions controls which entries a ZipReader yields.
type ZipOptions struct {
	// IncludeDirs yields directory entries. By default they are skipped.
	IncludeDirs bool
	// Accept filters file entries by name. Rejected entries are never opened.
	// A nil Accept yields every file entry.
	Accept func(name string) bool
}

// ZipReader is a forward-only cursor over the entries of one zip archive.
// Only one entry stream is open at a time: Next closes the previous entry.
// A ZipReader is not safe for concurrent use.
type ZipReader struct {
	path    string
	rc      *zip.ReadCloser
	files   []*zip.File
	next    int
	current *Entry
	opts    ZipOptions
}

// Entry is one zip entry. Its stream is valid until the next call to Next or Close.
type Entry struct {
	Name  string
	IsDir bool

	archive string
	rc      io.ReadCloser
	closed  bool
}

// OpenZip opens the archive at path and reads its central directory.
// A structurally corrupt archive is a Decompression error.
func OpenZip(path string, opts ZipOptions) (*ZipReader, error) {
	rc, err := zip.OpenReader(path)
	if rc == nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			return nil, models.NewError(models.KindFilesystem, "open failed", err).WithPath(path)
		}
		return nil, decompressionError("corrupt zip archive", err).WithPath(path)
	}
	// A non-nil reader with an error reports insecure entry names. Those are
	// readable, and the extractor applies its own containment check.

	return &ZipReader{
		path:  path,
		rc:    rc,
		files: physicalOrder(rc.File),
		opts:  opts,
	}, nil
}

// physicalOrder sorts files by the offset of their data in the archive.
// Entries whose local header cannot be located sort last in directory order.
func physicalOrder(files []*zip.File) []*zip.File {
	type indexed struct {
		f      *zip.File
		offset int64
	}
	list := make([]indexed, len(files))
	for i, f := range files {
		off, err := f.DataOffset()
		if err != nil {
			off = math.MaxInt64
		}
		list[i] = indexed{f: f, offset: off}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].offset < list[j].offset })

	out := make([]*zip.File, len(list))
	for i, e := range list {
		out[i] = e.f
	}
	return out
}

// Names returns every entry name, directories included, in processing order.
// No entry is opened.
func (z *ZipReader) Names() []string {
	names := make([]string, len(z.files))
	for i, f := range z.files {
		names[i] = f.Name
	}
	return names
}

// Next closes the current entry and advances to the next qualifying one.
// It returns io.EOF after the last entry. A non-EOF error relates to a single
// entry; the cursor remains usable and the following call moves past it.
func (z *ZipReader) Next() (*Entry, error) {
	z.closeCurrent()

	for z.next < len(z.files) {
		f := z.files[z.next]
		z.next++

		isDir := f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/")
		if isDir {
			if !z.opts.IncludeDirs {
				continue
			}
			z.current = &Entry{Name: f.Name, IsDir: true, archive: z.path, rc: io.NopCloser(strings.NewReader(""))}
			return z.current, nil
		}
		if z.opts.Accept != nil && !z.opts.Accept(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, decompressionError("cannot open entry", err).WithPath(z.path).WithEntry(f.Name)
		}
		z.current = &Entry{Name: f.Name, archive: z.path, rc: rc}
		return z.current, nil
	}
	return nil, io.EOF
}

// Close closes the current entry and the archive.
func (z *ZipReader) Close() error {
	z.closeCurrent()
	return z.rc.Close()
}

func (z *ZipReader) closeCurrent() {
	if z.current != nil {
		z.current.Close()
		z.current = nil
	}
}

// Read implements io.Reader. Failures are classified as Decompression errors.
func (e *Entry) Read(p []byte) (int, error) {
	if e.closed {
		return 0, models.NewError(models.KindFilesystem, "read after advance", ErrEntryClosed).
			WithPath(e.archive).WithEntry(e.Name)
	}
	n, err := e.rc.Read(p)
	if err != nil && err != io.EOF {
		return n, decompressionError("corrupt entry data", err).WithPath(e.archive).WithEntry(e.Name)
	}
	return n, err
}

// Close discards the rest of the entry. It is safe to call more than once.
func (e *Entry) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.rc.Close()
}

