package fileutil

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// WalkOptions configures directory traversal.
type WalkOptions struct {
	// SkipPaths lists directories whose subtrees are not traversed.
	// Relative paths are resolved against the working directory.
	SkipPaths []string
	// ExcludeDirs lists directory base names that are never entered (e.g. ".git").
	ExcludeDirs []string
}

// Walk returns a lazy sequence of the regular files under root.
// Each element is either (absolutePath, nil) or (offendingPath, err).
// A root that does not exist or is not a directory yields a single error.
// A symlinked root is followed; yielded paths stay under root as given.
// Symlinks below the root are not followed.
func Walk(root string, opts WalkOptions) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		abs, err := filepath.Abs(root)
		if err != nil {
			yield(root, fmt.Errorf("failed to resolve path %s: %w", root, err))
			return
		}

		info, err := os.Stat(abs)
		if err != nil {
			yield(abs, fmt.Errorf("failed to access directory: %w", err))
			return
		}
		if !info.IsDir() {
			yield(abs, fmt.Errorf("path is not a directory: %s", abs))
			return
		}

		walkRoot, err := filepath.EvalSymlinks(abs)
		if err != nil {
			yield(abs, fmt.Errorf("failed to resolve directory: %w", err))
			return
		}

		skip := make(map[string]bool)
		for _, p := range opts.SkipPaths {
			if p == "" {
				continue
			}
			a, err := filepath.Abs(p)
			if err != nil {
				continue
			}
			skip[filepath.Clean(a)] = true
			if resolved, err := filepath.EvalSymlinks(a); err == nil {
				skip[resolved] = true
			}
		}
		exclude := make(map[string]bool)
		for _, name := range opts.ExcludeDirs {
			exclude[name] = true
		}

		_ = filepath.WalkDir(walkRoot, func(walked string, d fs.DirEntry, err error) error {
			path := underRoot(abs, walkRoot, walked)
			if err != nil {
				if !yield(path, fmt.Errorf("error accessing %s: %w", path, err)) {
					return filepath.SkipAll
				}
				// A failed directory read is reported once; WalkDir then skips it.
				return nil
			}

			if d.IsDir() {
				if walked != walkRoot && (skip[walked] || skip[path] || exclude[d.Name()]) {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// underRoot maps a path found under walkRoot back under root.
func underRoot(root, walkRoot, walked string) string {
	if root == walkRoot {
		return walked
	}
	rel, err := filepath.Rel(walkRoot, walked)
	if err != nil {
		return walked
	}
	return filepath.Join(root, rel)
}
