package textscan

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/harrison/archsearch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountOccurrences(t *testing.T) {
	tests := []struct {
		text   string
		needle string
		want   int
	}{
		{"aaaa", "aa", 2},
		{"aaa", "aa", 1},
		{"abcabc", "abc", 2},
		{"needle in a haystack", "needle", 1},
		{"Needle", "needle", 0},
		{"", "x", 0},
		{"anything", "", 0},
		{"ééé", "é", 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q in %q", tt.needle, tt.text), func(t *testing.T) {
			assert.Equal(t, tt.want, CountOccurrences(tt.text, tt.needle))
		})
	}
}

func TestNew_RejectsEmptyNeedle(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, models.IsInvalidInput(err))
}

func TestScan_CountsAndCaptures(t *testing.T) {
	input := "first needle\n  no match here  \n\tneedle needle\t\nlast"

	out, err := Scan(strings.NewReader(input), Options{Needle: "needle", CaptureLines: true})
	require.NoError(t, err)

	assert.Equal(t, 3, out.OccurrenceCount)
	assert.Equal(t, []models.SampleLine{
		{Number: 1, Text: "first needle"},
		{Number: 3, Text: "needle needle"},
	}, out.SampleLines)
}

func TestScan_NonOverlappingAcrossLines(t *testing.T) {
	out, err := Scan(strings.NewReader("aaaa\naaa\n"), Options{Needle: "aa"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.OccurrenceCount)
	assert.Empty(t, out.SampleLines)
}

func TestScan_CapsSampleLines(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&sb, "line %d has the needle twice: needle\n", i)
	}

	out, err := Scan(strings.NewReader(sb.String()), Options{Needle: "needle", CaptureLines: true})
	require.NoError(t, err)

	assert.Equal(t, 60, out.OccurrenceCount)
	require.Len(t, out.SampleLines, models.MaxSampleLines)
	for i, line := range out.SampleLines {
		assert.Equal(t, i+1, line.Number)
	}
}

func TestScan_CaptureLimitClamped(t *testing.T) {
	input := strings.Repeat("x\n", 50)

	out, err := Scan(strings.NewReader(input), Options{Needle: "x", CaptureLines: true, CaptureLimit: 500})
	require.NoError(t, err)
	assert.Len(t, out.SampleLines, models.MaxSampleLines)

	out, err = Scan(strings.NewReader(input), Options{Needle: "x", CaptureLines: true, CaptureLimit: 3})
	require.NoError(t, err)
	assert.Len(t, out.SampleLines, 3)
	assert.Equal(t, 50, out.OccurrenceCount)
}

func TestScan_LineTerminators(t *testing.T) {
	input := "a needle\rb needle\r\nc needle\nd needle"

	out, err := Scan(strings.NewReader(input), Options{Needle: "needle", CaptureLines: true})
	require.NoError(t, err)

	assert.Equal(t, 4, out.OccurrenceCount)
	assert.Equal(t, []models.SampleLine{
		{Number: 1, Text: "a needle"},
		{Number: 2, Text: "b needle"},
		{Number: 3, Text: "c needle"},
		{Number: 4, Text: "d needle"},
	}, out.SampleLines)
}

func TestScan_CRLFSplitAcrossReads(t *testing.T) {
	r := io.MultiReader(strings.NewReader("one needle\r"), strings.NewReader("\ntwo needle\n"))

	out, err := Scan(r, Options{Needle: "needle", CaptureLines: true})
	require.NoError(t, err)

	require.Len(t, out.SampleLines, 2)
	assert.Equal(t, 2, out.SampleLines[1].Number)
}

func TestScan_StripsUTF8BOM(t *testing.T) {
	out, err := Scan(strings.NewReader("\xEF\xBB\xBFneedle\n"), Options{Needle: "needle", CaptureLines: true})
	require.NoError(t, err)
	require.Len(t, out.SampleLines, 1)
	assert.Equal(t, "needle", out.SampleLines[0].Text)
}

func TestScan_MalformedUTF8(t *testing.T) {
	input := "needle ok\n\xff\xfe needle\nneedle\n"

	out, err := Scan(strings.NewReader(input), Options{Needle: "needle"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindDecode))
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, out.OccurrenceCount)
}

func TestScan_Latin1(t *testing.T) {
	enc, err := LookupEncoding("ISO-8859-1")
	require.NoError(t, err)

	input := "caf\xe9 needle\n"
	out, err := Scan(strings.NewReader(input), Options{Needle: "café", Encoding: enc, CaptureLines: true})
	require.NoError(t, err)

	assert.Equal(t, 1, out.OccurrenceCount)
	require.Len(t, out.SampleLines, 1)
	assert.Equal(t, "café needle", out.SampleLines[0].Text)
}

func TestScan_LineTooLong(t *testing.T) {
	input := strings.Repeat("x", 100) + "\n"

	_, err := Scan(strings.NewReader(input), Options{Needle: "x", MaxLineBytes: 16})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindDecode))
}

type failingReader struct {
	err error
}

func (f *failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestScan_ReadErrors(t *testing.T) {
	t.Run("plain error is filesystem", func(t *testing.T) {
		_, err := Scan(&failingReader{err: errors.New("disk gone")}, Options{Needle: "x"})
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.KindFilesystem))
		assert.Contains(t, err.Error(), "disk gone")
	})

	t.Run("typed error keeps kind", func(t *testing.T) {
		src := models.NewError(models.KindDecompression, "corrupt stream", nil)
		_, err := Scan(&failingReader{err: src}, Options{Needle: "x"})
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.KindDecompression))
	})
}

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "utf8", "ISO-8859-1", "windows-1252", "UTF-16LE", "Shift_JIS"} {
		t.Run(name, func(t *testing.T) {
			enc, err := LookupEncoding(name)
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}

	_, err := LookupEncoding("klingon-42")
	require.Error(t, err)
	assert.True(t, models.IsInvalidInput(err))
}

func TestEncodingName(t *testing.T) {
	assert.Equal(t, DefaultEncoding, EncodingName(nil, "x"))

	enc, err := LookupEncoding("ISO-8859-1")
	require.NoError(t, err)
	assert.NotEqual(t, "fallback", EncodingName(enc, "fallback"))
}
