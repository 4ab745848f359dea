package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/exportdeck/seedkit/internal/schema"
)

// Policy decides what happens when a row fails validation.
type Policy int

const (
	// RejectBatch fails the whole load on the first bad row.
	RejectBatch Policy = iota
	// SkipAndReport drops bad rows and reports them alongside the batch.
	SkipAndReport
)

// SchemaMismatchError reports a source file that does not fit its
// TableSpec: a header problem (Row 0) or an uncoercible cell.
type SchemaMismatchError struct {
	Table  string
	Row    int // 1-based data row index, 0 for header errors
	Column string
	Err    error
}

func (e *SchemaMismatchError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("table %s: header does not match spec: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("table %s row %d column %s: %v", e.Table, e.Row, e.Column, e.Err)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// Result is one loaded batch. Skipped is only populated under
// SkipAndReport.
type Result struct {
	Rows    []schema.RowRecord
	Skipped []*SchemaMismatchError
}

// Load reads the CSV behind spec.Source and validates every row against
// the spec. The first row must be a header; header names are matched to
// spec columns by name, order-independent. Reading the same file twice
// yields identical output.
func Load(spec *schema.TableSpec, policy Policy) (*Result, error) {
	f, err := os.Open(spec.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open source for table %s: %w", spec.Name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	// Ragged rows are a per-row schema mismatch, not a file-level parse
	// failure: they must stay skippable under SkipAndReport.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read source for table %s: %w", spec.Name, err)
	}
	if len(records) == 0 {
		return nil, &SchemaMismatchError{Table: spec.Name, Err: fmt.Errorf("source %s is empty, expected a header row", spec.Source)}
	}

	colIndex, err := mapHeader(spec, records[0])
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, raw := range records[1:] {
		rowNum := i + 1
		row, rowErr := coerceRow(spec, colIndex, raw, rowNum)
		if rowErr != nil {
			if policy == SkipAndReport {
				result.Skipped = append(result.Skipped, rowErr)
				continue
			}
			return nil, rowErr
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// mapHeader resolves each spec column to its position in the CSV header.
func mapHeader(spec *schema.TableSpec, header []string) (map[string]int, error) {
	position := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := position[name]; dup {
			return nil, &SchemaMismatchError{
				Table:  spec.Name,
				Column: name,
				Err:    fmt.Errorf("header declares column %q twice", name),
			}
		}
		if spec.Column(name) == nil {
			return nil, &SchemaMismatchError{
				Table:  spec.Name,
				Column: name,
				Err:    fmt.Errorf("header declares column %q not present in the table spec", name),
			}
		}
		position[name] = i
	}
	for _, col := range spec.Columns {
		if _, ok := position[col.Name]; !ok {
			return nil, &SchemaMismatchError{
				Table:  spec.Name,
				Column: col.Name,
				Err:    fmt.Errorf("required column %q missing from header", col.Name),
			}
		}
	}
	return position, nil
}

func coerceRow(spec *schema.TableSpec, colIndex map[string]int, raw []string, rowNum int) (schema.RowRecord, *SchemaMismatchError) {
	if len(raw) != len(colIndex) {
		return nil, &SchemaMismatchError{
			Table: spec.Name,
			Row:   rowNum,
			Err:   fmt.Errorf("expected %d fields, got %d", len(colIndex), len(raw)),
		}
	}

	row := make(schema.RowRecord, len(spec.Columns))
	for _, col := range spec.Columns {
		cell := strings.TrimSpace(raw[colIndex[col.Name]])
		value, err := coerceValue(col, cell)
		if err != nil {
			return nil, &SchemaMismatchError{Table: spec.Name, Row: rowNum, Column: col.Name, Err: err}
		}
		row[col.Name] = value
	}
	return row, nil
}

func coerceValue(col schema.ColumnSpec, cell string) (interface{}, error) {
	if cell == "" {
		if !col.Nullable {
			return nil, fmt.Errorf("empty value for NOT NULL column")
		}
		return nil, nil
	}

	switch col.Type {
	case schema.TypeInt:
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to int", cell)
		}
		return v, nil
	case schema.TypeFloat:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to float", cell)
		}
		return v, nil
	case schema.TypeDecimal:
		v, err := decimal.NewFromString(cell)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to decimal", cell)
		}
		// database/sql drivers take the canonical string form.
		return v.String(), nil
	case schema.TypeBool:
		v, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to bool", cell)
		}
		return v, nil
	case schema.TypeDate:
		v, err := time.Parse("2006-01-02", cell)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to date (want YYYY-MM-DD)", cell)
		}
		return v, nil
	case schema.TypeTimestamp:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
			if v, err := time.Parse(layout, cell); err == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("cannot coerce %q to timestamp", cell)
	case schema.TypeString:
		return cell, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", col.Type)
	}
}
