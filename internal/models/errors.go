package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures of the search engine.
type ErrorKind int

const (
	// KindFilesystem is a permission or I/O failure reading or writing a file.
	KindFilesystem ErrorKind = iota
	// KindInvalidInput is a bad root, needle or configuration value. It is the only fatal kind.
	KindInvalidInput
	// KindDecode is a text decoding failure on one stream.
	KindDecode
	// KindDecompression is a corrupt or truncated gzip/zip container.
	KindDecompression
	// KindPathTraversal is an archive entry that would escape its extraction directory.
	KindPathTraversal
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindFilesystem:
		return "filesystem"
	case KindInvalidInput:
		return "invalid_input"
	case KindDecode:
		return "decode"
	case KindDecompression:
		return "decompression"
	case KindPathTraversal:
		return "path_traversal"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for _, kind := range []ErrorKind{KindFilesystem, KindInvalidInput, KindDecode, KindDecompression, KindPathTraversal} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", string(text))
}

// Error is a classified failure, optionally tied to a file and a zip entry.
type Error struct {
	Kind    ErrorKind // Failure classification
	Path    string    // File on disk the failure relates to (optional)
	Entry   string    // Zip entry name (optional)
	Message string    // Human-readable message
	Err     error     // Underlying error (optional)
}

// NewError creates a new Error of the given kind.
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// InvalidInput creates an InvalidInput error with a formatted message.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// WithPath returns a copy of e bound to path.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// WithEntry returns a copy of e bound to a zip entry.
func (e *Error) WithEntry(entry string) *Error {
	c := *e
	c.Entry = entry
	return &c
}

// Detail renders the message and the underlying cause without the location prefix.
func (e *Error) Detail() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

// Error implements the error interface for Error.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	sb.WriteString(" error")
	if e.Path != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Path)
		if e.Entry != "" {
			sb.WriteString(EntrySeparator)
			sb.WriteString(e.Entry)
		}
	}
	sb.WriteString(": ")
	sb.WriteString(e.Detail())
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain, or KindFilesystem.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindFilesystem
}

// IsKind reports whether err is or wraps an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// IsInvalidInput reports whether err is or wraps an InvalidInput error.
func IsInvalidInput(err error) bool {
	return IsKind(err, KindInvalidInput)
}

// IsPathTraversal reports whether err is or wraps a PathTraversal error.
func IsPathTraversal(err error) bool {
	return IsKind(err, KindPathTraversal)
}
