package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	apperrors "github.com/telaudit/pbxaudit/internal/errors"
)

// FileCollector reads a raw extraction from a JSON export on disk. It exists
// for recovery and backfill runs, and as the test double for the portal
// scraper, which lives outside this repository.
type FileCollector struct {
	path string
}

// NewFileCollector creates a collector reading from the given path.
func NewFileCollector(path string) *FileCollector {
	return &FileCollector{path: path}
}

// Name implements Collector.
func (c *FileCollector) Name() string {
	return "file"
}

// Collect implements Collector. A missing or unparseable export is an
// extraction failure: the audit must not proceed on partial input.
func (c *FileCollector) Collect(ctx context.Context) (*Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindExtraction,
			fmt.Sprintf("cannot read extraction export %s", c.path), err)
	}

	var extraction Extraction
	if err := json.Unmarshal(data, &extraction); err != nil {
		return nil, apperrors.Wrap(apperrors.KindExtraction,
			fmt.Sprintf("extraction export %s is not valid JSON", c.path), err)
	}

	return &extraction, nil
}
