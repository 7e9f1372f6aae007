package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
)

// csvBatch is the number of rows grouped under one node.
const csvBatch = 20

// CSVParser imports a table. The first row is the header. Rows are grouped in
// batches of csvBatch; each row becomes a node titled with its first cell
// and a body of "header: value" lines.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if len(records) < 2 {
		return tree, nil
	}
	headers, rows := records[0], records[1:]

	for i := 0; i < len(rows); i += csvBatch {
		end := min(i+csvBatch, len(rows))
		batch := &doctree.DocNode{
			// Line numbers are 1-based and skip the header.
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1),
			Page:  i + 2,
		}
		for j, row := range rows[i:end] {
			batch.Children = append(batch.Children, csvRow(headers, row, i+j+2))
		}
		tree.Children = append(tree.Children, batch)
	}
	return tree, nil
}

func csvRow(headers, row []string, line int) *doctree.DocNode {
	n := &doctree.DocNode{Page: line}
	if len(row) > 0 {
		n.Title = row[0]
	}
	var body strings.Builder
	for k, cell := range row {
		if k > 0 {
			body.WriteByte('\n')
		}
		if k < len(headers) && headers[k] != "" {
			body.WriteString(headers[k] + ": ")
		}
		body.WriteString(cell)
	}
	n.Text = body.String()
	return n
}
