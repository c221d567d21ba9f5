package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

// EmptyDatasetError means a header was found but no row survived validation.
type EmptyDatasetError struct {
	Rejected int
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("no valid rows found (%d rejected)", e.Rejected)
}

// Options tunes Analyze.
type Options struct {
	PreviewLimit int
}

// Result is the outcome of a successful Analyze.
type Result struct {
	Summary  entity.Summary
	Rows     []entity.EquipmentRow
	Preview  []entity.EquipmentRow
	Rejected int
}

// Analyze reads a whole CSV document and aggregates it.
//
// It fails with *MalformedInputError when the bytes are not delimited text,
// *SchemaError when a canonical column is missing (before any row is parsed)
// and *EmptyDatasetError when every row is rejected.
func Analyze(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read upload: %w", err)
	}

	data, err := decode(raw)
	if err != nil {
		return Result{}, err
	}
	if err := checkText(data); err != nil {
		return Result{}, err
	}

	comma := sniffDelimiter(data)
	ragged, err := lint(data, comma)
	if err != nil {
		return Result{}, err
	}
	if len(ragged) > 0 {
		slog.DebugContext(ctx, "csv has rows with unexpected field count", "count", len(ragged), "records", ragged)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, malformed("missing header row", nil)
	}
	if err != nil {
		return Result{}, malformed("cannot read header row", err)
	}

	cols, err := ResolveColumns(header)
	if err != nil {
		return Result{}, err
	}

	agg := NewAggregator()
	var rows []entity.EquipmentRow
	rejected := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, malformed("cannot read row", err)
		}

		row, err := ParseRow(record, cols)
		if err != nil {
			rejected++
			line, _ := reader.FieldPos(0)
			slog.DebugContext(ctx, "rejected csv row", "line", line, "error", err)
			continue
		}

		agg.Add(row)
		rows = append(rows, row)
	}

	if agg.Count() == 0 {
		return Result{}, &EmptyDatasetError{Rejected: rejected}
	}

	return Result{
		Summary:  agg.Summary(),
		Rows:     rows,
		Preview:  Preview(rows, opts.PreviewLimit),
		Rejected: rejected,
	}, nil
}
