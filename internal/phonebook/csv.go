package phonebook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tamasystem/callpad/internal/domain"
)

// ParseOptions controls CSV parsing.
type ParseOptions struct {
	SkipHeader bool
}

// ParseCSV reads name,number rows in order.
// Only the first two fields are used; rows missing either value are dropped.
func ParseCSV(r io.Reader, opts ParseOptions) ([]domain.CandidateEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	out := make([]domain.CandidateEntry, 0)
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse phonebook csv: %w", err)
		}
		row++
		if row == 1 && opts.SkipHeader {
			continue
		}
		if len(record) < 2 {
			continue
		}
		entry, err := domain.NewCandidateEntry(strings.TrimPrefix(record[0], "\ufeff"), record[1])
		if err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
