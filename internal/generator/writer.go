package generator

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// WriteDataset serializes the dataset into vertices.csv and edges.csv under
// the provided directory, in the column layout the importer reads.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	columns := vertexColumns(dataset)
	vertexRows := make([][]string, 0, len(dataset.Vertices))
	for _, v := range dataset.Vertices {
		row := make([]string, 0, len(columns)+1)
		row = append(row, v.Label)
		for _, c := range columns {
			row = append(row, v.Properties[c])
		}
		vertexRows = append(vertexRows, row)
	}
	header := append([]string{"label"}, columns...)
	if err := writeCSV(filepath.Join(dir, "vertices.csv"), header, vertexRows); err != nil {
		return err
	}

	edgeRows := make([][]string, 0, len(dataset.Edges))
	for _, e := range dataset.Edges {
		edgeRows = append(edgeRows, []string{e.FromKey, e.ToKey, e.Relationship})
	}
	return writeCSV(filepath.Join(dir, "edges.csv"), []string{"from", "to", "relationship"}, edgeRows)
}

// vertexColumns is the sorted union of property names, key property first.
func vertexColumns(dataset Dataset) []string {
	seen := map[string]struct{}{}
	for _, v := range dataset.Vertices {
		for k := range v.Properties {
			seen[k] = struct{}{}
		}
	}
	delete(seen, KeyProperty)
	columns := make([]string, 0, len(seen)+1)
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return append([]string{KeyProperty}, columns...)
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header for %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows for %s: %w", path, err)
	}
	return file.Close()
}
