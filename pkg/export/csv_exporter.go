// Package export renders tabular score sheets as CSV or PDF.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Section is a titled table appended after the main one, e.g. a distribution summary.
type Section struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Dataset defines tabular export content.
type Dataset struct {
	Title    string
	Headers  []string
	Rows     []map[string]string
	Sections []Section
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the main table, then each section separated by a blank record.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	for _, section := range data.Sections {
		records := [][]string{{}}
		if section.Title != "" {
			records = append(records, []string{section.Title})
		}
		if len(section.Headers) > 0 {
			records = append(records, section.Headers)
		}
		records = append(records, section.Rows...)
		if err := writer.WriteAll(records); err != nil {
			return nil, fmt.Errorf("write csv section %q: %w", section.Title, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
