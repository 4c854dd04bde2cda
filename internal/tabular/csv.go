// Package tabular reads vertex and edge records from CSV files.
//
// Row i of the data (after the header, blank lines skipped) becomes record
// i, which is the index the import report refers to. Rows are not validated
// here; an empty label or key surfaces as an invalid record in the report.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vanshika/graphload/internal/domain"
)

// Column names recognised in headers.
const (
	ColumnLabel        = "label"
	ColumnFrom         = "from"
	ColumnTo           = "to"
	ColumnRelationship = "relationship"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

// ReadVertices parses vertex rows. The label column is required; every other
// column becomes a string property. A non-empty headers slice replaces the
// header row, and the input is then treated as data from the first line.
func ReadVertices(r io.Reader, headers []string) ([]domain.VertexRecord, error) {
	cols, rows, err := readTable(r, headers)
	if err != nil {
		return nil, err
	}
	labelAt, err := columnIndex(cols, ColumnLabel)
	if err != nil {
		return nil, err
	}

	records := make([]domain.VertexRecord, 0, len(rows))
	for _, row := range rows {
		props := make(map[string]string, len(cols)-1)
		for i, name := range cols {
			if i == labelAt {
				continue
			}
			props[name] = row[i]
		}
		records = append(records, domain.VertexRecord{Label: strings.TrimSpace(row[labelAt]), Properties: props})
	}
	return records, nil
}

// ReadEdges parses edge rows with from, to and relationship columns. Extra
// columns are ignored.
func ReadEdges(r io.Reader, headers []string) ([]domain.EdgeRecord, error) {
	cols, rows, err := readTable(r, headers)
	if err != nil {
		return nil, err
	}
	fromAt, err := columnIndex(cols, ColumnFrom)
	if err != nil {
		return nil, err
	}
	toAt, err := columnIndex(cols, ColumnTo)
	if err != nil {
		return nil, err
	}
	relAt, err := columnIndex(cols, ColumnRelationship)
	if err != nil {
		return nil, err
	}

	records := make([]domain.EdgeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.EdgeRecord{
			FromKey:      strings.TrimSpace(row[fromAt]),
			ToKey:        strings.TrimSpace(row[toAt]),
			Relationship: strings.TrimSpace(row[relAt]),
		})
	}
	return records, nil
}

// ParseHeaders splits a comma separated header override such as "label,name".
func ParseHeaders(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func readTable(r io.Reader, headers []string) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	cols := headers
	if len(cols) == 0 {
		first, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("csv input is empty")
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read header: %w", err)
		}
		cols = first
	} else {
		reader.FieldsPerRecord = len(cols)
	}
	cols, err := normalizeHeader(cols)
	if err != nil {
		return nil, nil, err
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return cols, rows, nil
}

func normalizeHeader(raw []string) ([]string, error) {
	cols := make([]string, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, name := range raw {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			return nil, fmt.Errorf("header column %d is empty", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate header column %q", name)
		}
		seen[name] = struct{}{}
		cols[i] = name
	}
	return cols, nil
}

func columnIndex(cols []string, name string) (int, error) {
	for i, c := range cols {
		if strings.EqualFold(c, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w %q", ErrMissingColumn, name)
}
