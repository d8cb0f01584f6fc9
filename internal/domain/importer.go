package domain

import (
	"context"
	"io"
)

// RowRejection describes one CSV row that failed validation and was skipped.
type RowRejection struct {
	Line   int    `json:"line"` // 1-based line number in the file, header included
	Reason string `json:"reason"`
}

// ImportResult is the outcome of one bulk import.
// swagger:model ImportResult
type ImportResult struct {
	Imported   int            `json:"imported"`
	Rejections []RowRejection `json:"rejections"`
}

// EventImporter parses a CSV stream, validates each row independently, and
// bulk-commits the valid subset on behalf of the uploading user. Row-level
// failures never abort the batch; only a structurally invalid file (missing
// required header columns) fails the whole import.
type EventImporter interface {
	ImportCSV(ctx context.Context, ownerID string, r io.Reader) (*ImportResult, error)
}
