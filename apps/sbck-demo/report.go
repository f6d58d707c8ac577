// Copyright 2026 SBCK-Go Authors

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/stockparfait/errors"
)

// Report is a small fixed-header table of string cells with text and CSV
// printers for the evaluation results.
type Report struct {
	header []string
	rows   [][]string
}

// NewReport creates an empty report with the given column headers.
func NewReport(header ...string) *Report {
	return &Report{header: header}
}

// AddRow appends a row, which must match the header width.
func (r *Report) AddRow(cells ...string) error {
	if len(cells) != len(r.header) {
		return errors.Reason("row has %d cells, header has %d columns",
			len(cells), len(r.header))
	}
	r.rows = append(r.rows, cells)
	return nil
}

// WriteCSV writes the report to w in CSV format.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.header); err != nil {
		return errors.Annotate(err, "failed to write header")
	}
	for _, row := range r.rows {
		if err := cw.Write(row); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the report as right-aligned columns separated by " | ",
// with a dashed rule under the header.
func (r *Report) WriteText(w io.Writer) error {
	widths := make([]int, len(r.header))
	for i, h := range r.header {
		widths[i] = len(h)
	}
	for _, row := range r.rows {
		for i, c := range row {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}
	write := func(row []string) error {
		padded := make([]string, len(row))
		for i, c := range row {
			padded[i] = fmt.Sprintf("%[2]*[1]s", c, widths[i])
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(padded, " | "))
		return err
	}
	if err := write(r.header); err != nil {
		return errors.Annotate(err, "failed to write header")
	}
	dashes := make([]string, len(widths))
	for i, n := range widths {
		dashes[i] = strings.Repeat("-", n)
	}
	if err := write(dashes); err != nil {
		return errors.Annotate(err, "failed to write header rule")
	}
	for _, row := range r.rows {
		if err := write(row); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	return nil
}
