// Package textscan counts needle occurrences in a forward-only text stream and
// captures a bounded sample of matching lines.
package textscan

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/harrison/archsearch/internal/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// DefaultMaxLineBytes bounds the length of a single line.
const DefaultMaxLineBytes = 16 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures a Scanner.
type Options struct {
	// Needle is the literal substring to count. It must be non-empty.
	Needle       string
	// Encoding is the declared text encoding of scanned streams (nil = UTF-8).
	Encoding     encoding.Encoding
	// CaptureLines enables sample line capture.
	CaptureLines bool
	// CaptureLimit is the number of matching lines to keep (0 = models.MaxSampleLines).
	// Values above models.MaxSampleLines are clamped.
	CaptureLimit int
	// MaxLineBytes bounds a single line (0 = DefaultMaxLineBytes).
	MaxLineBytes int
}

// Outcome is the result of scanning one stream.
type Outcome struct {
	OccurrenceCount int
	SampleLines     []models.SampleLine
}

// Scanner scans streams for one needle. A Scanner holds no per-stream state and
// may be reused for any number of streams.
type Scanner struct {
	needle       []byte
	encoding     encoding.Encoding
	captureLines bool
	captureLimit int
	maxLineBytes int
}

// New validates opts and returns a Scanner. An empty needle is an InvalidInput error.
func New(opts Options) (*Scanner, error) {
	if opts.Needle == "" {
		return nil, models.InvalidInput("search string must not be empty")
	}
	if !utf8.ValidString(opts.Needle) {
		return nil, models.InvalidInput("search string is not valid UTF-8")
	}

	limit := opts.CaptureLimit
	if limit <= 0 || limit > models.MaxSampleLines {
		limit = models.MaxSampleLines
	}

	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}

	return &Scanner{
		needle:       []byte(opts.Needle),
		encoding:     opts.Encoding,
		captureLines: opts.CaptureLines,
		captureLimit: limit,
		maxLineBytes: maxLine,
	}, nil
}

// Scan is a convenience wrapper around New and Scanner.Scan.
func Scan(r io.Reader, opts Options) (Outcome, error) {
	s, err := New(opts)
	if err != nil {
		return Outcome{}, err
	}
	return s.Scan(r)
}

// Scan reads r once from start to end and never seeks, so zip entry streams and
// decompressors are valid inputs. Malformed text yields a Decode error; read failures
// of r keep their classification when r returns a *models.Error and are Filesystem
// errors otherwise. The outcome accumulated so far is returned alongside any error.
func (s *Scanner) Scan(r io.Reader) (Outcome, error) {
	src := &sourceReader{r: r}

	var in io.Reader = src
	utf8Input := isUTF8(s.encoding)
	if !utf8Input {
		in = transform.NewReader(src, s.encoding.NewDecoder())
	}

	sc := bufio.NewScanner(in)
	initial := 64 * 1024
	if initial > s.maxLineBytes {
		initial = s.maxLineBytes
	}
	sc.Buffer(make([]byte, 0, initial), s.maxLineBytes)
	sc.Split(splitLines)

	var out Outcome
	lineNumber := 0
	for sc.Scan() {
		lineNumber++
		line := sc.Bytes()
		if lineNumber == 1 {
			line = bytes.TrimPrefix(line, utf8BOM)
		}

		if utf8Input && !utf8.Valid(line) {
			return out, models.NewError(models.KindDecode,
				fmt.Sprintf("malformed UTF-8 input on line %d", lineNumber), nil)
		}

		count := bytes.Count(line, s.needle)
		if count == 0 {
			continue
		}
		out.OccurrenceCount += count
		if s.captureLines && len(out.SampleLines) < s.captureLimit {
			out.SampleLines = append(out.SampleLines, models.SampleLine{
				Number: lineNumber,
				Text:   strings.TrimSpace(string(line)),
			})
		}
	}

	if err := sc.Err(); err != nil {
		return out, s.classify(err, src, lineNumber+1)
	}
	return out, nil
}

func (s *Scanner) classify(err error, src *sourceReader, line int) error {
	if src.err != nil {
		if _, ok := models.AsError(src.err); ok {
			return src.err
		}
		return models.NewError(models.KindFilesystem, "read failed", src.err)
	}
	if errors.Is(err, bufio.ErrTooLong) {
		return models.NewError(models.KindDecode,
			fmt.Sprintf("line %d exceeds %d bytes", line, s.maxLineBytes), nil)
	}
	return models.NewError(models.KindDecode,
		fmt.Sprintf("cannot decode input near line %d", line), err)
}

// CountOccurrences counts non-overlapping occurrences of needle in text, scanning
// left to right and resuming after each full match. CountOccurrences("aaaa", "aa") == 2.
// An empty needle counts as zero.
func CountOccurrences(text, needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(text, needle)
}

// sourceReader remembers the first non-EOF error of the underlying stream so that
// read failures can be told apart from decoder failures.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}
	return n, err
}

// splitLines is a bufio.SplitFunc that accepts "\n", "\r\n" and a lone "\r" as line
// terminators. Terminators are not part of the returned token.
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			// A trailing '\r' may be the first half of "\r\n".
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
