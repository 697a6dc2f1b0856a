package models

import "time"

// RowRejection describes a CSV row dropped during normalization.
type RowRejection struct {
	Row   int    `json:"row"`
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

// ParseResult is the output of a broker parser.
type ParseResult struct {
	Legs       []LegRecord
	RowNumbers []int // source line of each leg, parallel to Legs
	Rejected   []RowRejection
	Skipped    int // rows deliberately ignored, e.g. unfilled orders
}

// ImportBatch is one accepted upload for a source.
type ImportBatch struct {
	ID            string    `json:"id"`
	Source        Source    `json:"source"`
	Filename      string    `json:"filename"`
	FileSize      int64     `json:"file_size"`
	LegCount      int       `json:"leg_count"`
	RejectedCount int       `json:"rejected_count"`
	ImportedAt    time.Time `json:"imported_at"`
}

// ImportResult is returned after an upload has been imported and the ledger rebuilt.
type ImportResult struct {
	Batch    ImportBatch    `json:"batch"`
	Rejected []RowRejection `json:"rejected"`
	Skipped  int            `json:"skipped"`
	Rebuild  *RebuildResult `json:"rebuild"`
}
