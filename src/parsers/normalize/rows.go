package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/optionledger/backend/src/models"
)

// Record is a data row together with its line number in the source file.
type Record struct {
	Line int
	Row  Row
}

// ReadRows reads a CSV export into header-keyed rows.
// Broker exports often carry preamble and disclaimer lines; any record with fewer
// than two non-empty cells is ignored, and the first remaining record is the header.
func ReadRows(file io.Reader) ([]Record, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var header []string
	var records []Record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if nonEmptyCount(fields) < 2 {
			continue
		}
		if header == nil {
			header = make([]string, len(fields))
			for i, h := range fields {
				header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
			}
			continue
		}

		line, _ := reader.FieldPos(0)
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" || i >= len(fields) {
				continue
			}
			row[name] = fields[i]
		}
		records = append(records, Record{Line: line, Row: row})
	}

	if header == nil {
		return nil, fmt.Errorf("no header row found")
	}
	return records, nil
}

func nonEmptyCount(fields []string) int {
	n := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	return n
}

// ConvertFunc turns one row into a leg. Returning keep=false with a nil error skips the row silently.
type ConvertFunc func(Row) (leg models.LegRecord, keep bool, err error)

// Collect applies convert to every record. Rows failing with a data error are reported,
// not fatal, so one malformed line never aborts the batch.
func Collect(records []Record, convert ConvertFunc) *models.ParseResult {
	result := &models.ParseResult{}
	for _, rec := range records {
		leg, keep, err := convert(rec.Row)
		if err != nil {
			rejection := models.RowRejection{Row: rec.Line, Error: err.Error()}
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				rejection.Field = rowErr.Field
			}
			result.Rejected = append(result.Rejected, rejection)
			continue
		}
		if !keep {
			result.Skipped++
			continue
		}
		result.Legs = append(result.Legs, leg)
		result.RowNumbers = append(result.RowNumbers, rec.Line)
	}
	return result
}
