package extract

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/archsearch/internal/models"
)

// SanitizeName replaces every character outside [A-Za-z0-9._-] with '_'.
func SanitizeName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// Canonicalize returns the absolute form of path with symlinks resolved.
// Components that do not exist yet are appended lexically to the deepest
// existing ancestor, which is resolved.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	existing := abs
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			parts := append([]string{resolved}, rest...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
}

// SafeJoin joins an archive entry name onto base and verifies that the result
// stays within base after "." and ".." are resolved. Names such as "./" resolve to
// base itself. base must already be
// canonical. Backslashes in name are treated as separators.
// A violation is a PathTraversal error carrying the entry name.
func SafeJoin(base, name string) (string, error) {
	clean := strings.ReplaceAll(name, `\`, "/")
	dest := filepath.Join(base, filepath.FromSlash(clean))

	rel, err := filepath.Rel(base, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", models.NewError(models.KindPathTraversal, "entry escapes extraction directory", nil).WithEntry(name)
	}
	return dest, nil
}

// isWithin reports whether path equals root or lies beneath it. Both must be clean.
func isWithin(path, root string) bool {
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func removeIfExists(path string) error {
	err := os.RemoveAll(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
