// Package walker discovers JSON listing files under a root folder.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// WalkJSON walks root recursively and calls fn for every regular file with a
// .json extension (matched case-insensitively, so exported .JSON files are
// picked up too). Files are visited in filepath.WalkDir's lexical order, which
// keeps runs deterministic.
//
// fn's error aborts the walk; per-file processing errors that should not stop
// the run must be handled inside fn.
func WalkJSON(ctx context.Context, root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".json") {
			return nil
		}
		return fn(path)
	})
}
