package scan

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker yields every non-directory entry below root. Entries that cannot be
// read are yielded with their error so the caller decides whether to go on.
type Walker interface {
	Walk(ctx context.Context, root string) iter.Seq2[string, error]
}

// DirWalker walks the real filesystem in lexical order. Directory symlinks
// are not followed.
type DirWalker struct{}

func (DirWalker) Walk(ctx context.Context, root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if !yield(path, err) {
					return filepath.SkipAll
				}
				// Unreadable directory: nothing below it can be listed
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
