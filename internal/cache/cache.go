// Package cache memoizes derived tables on disk. A derived file that exists is
// read back verbatim; there is no invalidation other than the refresh flag.
package cache

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/spigell/greenskills/internal/table"
)

// File is a derived table backed by a CSV file.
type File struct {
	Path   string
	Logger *zap.Logger
}

// Exists reports whether the derived file is present.
func (f *File) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}

// Load returns the cached table when the file exists and refresh is false.
// Otherwise it runs compute and stores the result. The bool reports a cache hit.
func (f *File) Load(refresh bool, compute func() (*table.Table, error)) (*table.Table, bool, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if !refresh && f.Exists() {
		t, err := table.ReadCSV(f.Path)
		if err != nil {
			return nil, false, fmt.Errorf("reading cached %s: %w", f.Path, err)
		}
		logger.Info("reusing derived file", zap.String("path", f.Path), zap.Int("rows", t.Len()))
		return t, true, nil
	}

	t, err := compute()
	if err != nil {
		return nil, false, err
	}

	if err := t.WriteCSV(f.Path); err != nil {
		return nil, false, fmt.Errorf("storing %s: %w", f.Path, err)
	}

	logger.Info("stored derived file", zap.String("path", f.Path), zap.Int("rows", t.Len()))
	return t, false, nil
}
