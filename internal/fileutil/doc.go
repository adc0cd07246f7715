// Package fileutil provides error-tolerant directory traversal.
//
// Walk yields every regular file under a root as an absolute path, lazily and in
// the filesystem's enumeration order. Directories, symlinks, devices, sockets and
// named pipes are never yielded. Traversal errors (for example permission denied
// on a subdirectory) are yielded alongside the offending path and the walk
// continues with the next sibling.
//
// Basic usage:
//
//	for path, err := range fileutil.Walk("/var/log", fileutil.WalkOptions{}) {
//	    if err != nil {
//	        log.Printf("skipping %s: %v", path, err)
//	        continue
//	    }
//	    fmt.Println(path)
//	}
//
// Excluding a subtree (for example an extraction output directory nested in the
// source tree):
//
//	for path, err := range fileutil.Walk(src, fileutil.WalkOptions{
//	    SkipPaths: []string{out},
//	}) {
//	    ...
//	}
//
// Walk never sorts: callers must not assume alphabetical order.
package fileutil
