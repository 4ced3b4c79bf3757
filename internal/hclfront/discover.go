package hclfront

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/harwell/strata/internal/ctxlog"
)

const sourceExt = ".hcl"

// DiscoverSources resolves path to the list of source files it names. A
// file path must carry the .hcl extension and is returned as-is; a
// directory is walked recursively. The result is sorted so downstream
// merging is independent of filesystem iteration order.
func DiscoverSources(ctx context.Context, path string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("source path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if !info.IsDir() {
		if filepath.Ext(path) != sourceExt {
			return nil, fmt.Errorf("specified file is not an %s file: %s", sourceExt, path)
		}
		logger.Debug("Source path is a single file.", "file", path)
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == sourceExt {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	logger.Debug("Source directory scanned.", "path", path, "files", len(files))
	return files, nil
}
