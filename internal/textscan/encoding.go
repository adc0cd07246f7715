package textscan

import (
	"strings"

	"github.com/harrison/archsearch/internal/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is the encoding used when none is declared.
const DefaultEncoding = "UTF-8"

// LookupEncoding resolves an encoding identifier such as "UTF-8", "ISO-8859-1",
// "windows-1252" or "UTF-16LE". IANA names are tried first, then WHATWG labels.
// An empty name resolves to UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.TrimSpace(name)
	if n == "" || isUTF8Name(n) {
		return unicode.UTF8, nil
	}

	if enc, err := ianaindex.IANA.Encoding(n); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(n); err == nil && enc != nil {
		return enc, nil
	}

	return nil, models.InvalidInput("unsupported text encoding %q", name)
}

// EncodingName returns the canonical name of enc, falling back to fallback.
func EncodingName(enc encoding.Encoding, fallback string) string {
	if isUTF8(enc) {
		return DefaultEncoding
	}
	if name, err := ianaindex.IANA.Name(enc); err == nil && name != "" {
		return name
	}
	return fallback
}

func isUTF8Name(n string) bool {
	switch strings.ToLower(strings.ReplaceAll(n, "_", "-")) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

func isUTF8(enc encoding.Encoding) bool {
	return enc == nil || enc == unicode.UTF8
}
