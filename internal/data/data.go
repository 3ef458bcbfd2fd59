// Package data implements tabular reads and writes over worksheet
// ranges: positional row-major reads with an offset/budget window,
// rectangular writes with formula detection, append-anchor
// computation, and header-mapped row filtering.
package data

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sheetkit/excel-mcp-server/internal/addr"
	"github.com/sheetkit/excel-mcp-server/internal/sheets"
	"github.com/sheetkit/excel-mcp-server/pkg/xlerr"
)

// Options bounds a single Read call.
type Options struct {
	// Offset is the number of rows already consumed from the top of the
	// requested range by earlier pages.
	Offset int
	// PageRows caps the rows returned by this call. Zero means as many
	// as the cell budget allows.
	PageRows int
	// MaxCells is the hard cell budget for one call. Zero disables it.
	MaxCells int
	// Preview truncates the read to PreviewRows leading rows.
	Preview     bool
	PreviewRows int
}

// Slice is one page of a range read.
type Slice struct {
	// Rows holds cell values row-major, padded to the range width.
	Rows [][]string
	// Window is the absolute sub-range this page covers. Zero when Rows
	// is empty.
	Window addr.Range
	// Truncated reports that rows of the requested range remain beyond
	// this page.
	Truncated bool
	// NextOffset is the offset that resumes after this page.
	NextOffset int
	// PageRows is the effective page size used, echoed into cursors.
	PageRows int
}

// WriteResult reports the rectangle a Write populated.
type WriteResult struct {
	StartCell    string `json:"start_cell"`
	EndCell      string `json:"end_cell"`
	RowsWritten  int    `json:"rows_written"`
	ColsWritten  int    `json:"cols_written"`
	CellsWritten int    `json:"cells_written"`
}

// FilterResult is the header-mapped view produced by FilterRows.
type FilterResult struct {
	// Headers lists the non-empty header names of row 1 in column order.
	Headers []string `json:"headers"`
	// Rows holds one header-to-value mapping per matching data row.
	Rows []map[string]string `json:"rows"`
	// Truncated reports that matches beyond the cell budget were dropped.
	Truncated bool `json:"truncated,omitempty"`
}

// Read returns one page of r's cell values. The page starts
// opts.Offset rows into the range and is bounded by opts.PageRows, the
// opts.MaxCells budget, and the preview cap, whichever is smallest. A
// range whose single page holds no values at all collapses to an empty
// result rather than a grid of empty strings.
func Read(f *excelize.File, sheet string, r addr.Range, opts Options) (*Slice, error) {
	if !sheets.Exists(f, sheet) {
		return nil, xlerr.Sheetf("sheet %q not found", sheet)
	}
	if opts.Offset < 0 {
		return nil, xlerr.Validationf("offset must not be negative")
	}

	width := r.Cols()
	pageRows := opts.PageRows
	if pageRows <= 0 || pageRows > r.Rows() {
		pageRows = r.Rows()
	}
	if opts.MaxCells > 0 {
		if budget := opts.MaxCells / width; budget < pageRows {
			pageRows = budget
			if pageRows < 1 {
				pageRows = 1
			}
		}
	}
	if opts.Preview && opts.PreviewRows > 0 && pageRows > opts.PreviewRows {
		pageRows = opts.PreviewRows
	}

	firstRow := r.Start.Row + opts.Offset
	if firstRow > r.End.Row {
		return &Slice{Rows: [][]string{}, NextOffset: opts.Offset, PageRows: pageRows}, nil
	}
	lastRow := firstRow + pageRows - 1
	if lastRow > r.End.Row {
		lastRow = r.End.Row
	}

	rows := make([][]string, 0, lastRow-firstRow+1)
	empty := true
	for row := firstRow; row <= lastRow; row++ {
		out := make([]string, width)
		for i := 0; i < width; i++ {
			v, err := f.GetCellValue(sheet, addr.CellName(r.Start.Col+i, row))
			if err != nil {
				return nil, xlerr.Wrapf(xlerr.KindData, err, "failed to read cell %s", addr.CellName(r.Start.Col+i, row))
			}
			if v != "" {
				empty = false
			}
			out[i] = v
		}
		rows = append(rows, out)
	}

	truncated := lastRow < r.End.Row
	if empty && opts.Offset == 0 && !truncated {
		return &Slice{Rows: [][]string{}, NextOffset: 0, PageRows: pageRows}, nil
	}
	return &Slice{
		Rows:       rows,
		Window:     addr.NewRange(addr.Cell{Col: r.Start.Col, Row: firstRow}, addr.Cell{Col: r.End.Col, Row: lastRow}),
		Truncated:  truncated,
		NextOffset: lastRow - r.Start.Row + 1,
		PageRows:   pageRows,
	}, nil
}

// Write populates the rectangle anchored at start with rows. Every row
// must be as long as the first; string values with a leading "=" are
// written as formulas. The write must stay within maxRows x maxCols.
func Write(f *excelize.File, sheet string, start addr.Cell, rows [][]any, maxRows, maxCols int) (*WriteResult, error) {
	if !sheets.Exists(f, sheet) {
		return nil, xlerr.Sheetf("sheet %q not found", sheet)
	}
	if len(rows) == 0 {
		return nil, xlerr.Dataf("no data provided: rows must be a non-empty list of lists")
	}
	width := len(rows[0])
	if width == 0 {
		return nil, xlerr.Dataf("row 1 is empty: each row must contain at least one value")
	}
	for i, row := range rows {
		if len(row) != width {
			return nil, xlerr.Dataf("row %d has %d values, expected %d: rows must be rectangular", i+1, len(row), width)
		}
	}

	endRow := start.Row + len(rows) - 1
	endCol := start.Col + width - 1
	if maxRows > 0 && endRow > maxRows {
		return nil, xlerr.Rangef("write would extend to row %d, beyond the limit of %d rows", endRow, maxRows)
	}
	if maxCols > 0 && endCol > maxCols {
		return nil, xlerr.Rangef("write would extend to column %d, beyond the limit of %d columns", endCol, maxCols)
	}

	for ri, row := range rows {
		for ci, v := range row {
			cell := addr.CellName(start.Col+ci, start.Row+ri)
			if s, ok := v.(string); ok && strings.HasPrefix(s, "=") {
				if err := f.SetCellFormula(sheet, cell, strings.TrimPrefix(s, "=")); err != nil {
					return nil, xlerr.Wrapf(xlerr.KindData, err, "failed to set formula in cell %s", cell)
				}
				continue
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, xlerr.Wrapf(xlerr.KindData, err, "failed to write cell %s", cell)
			}
		}
	}
	return &WriteResult{
		StartCell:    start.Name(),
		EndCell:      addr.CellName(endCol, endRow),
		RowsWritten:  len(rows),
		ColsWritten:  width,
		CellsWritten: len(rows) * width,
	}, nil
}

// NextAvailableCell returns the append anchor: column A of the first
// row below the sheet's populated extent, or A1 on an empty sheet.
func NextAvailableCell(f *excelize.File, sheet string) (addr.Cell, error) {
	if !sheets.Exists(f, sheet) {
		return addr.Cell{}, xlerr.Sheetf("sheet %q not found", sheet)
	}
	used, ok, err := sheets.UsedRange(f, sheet)
	if err != nil {
		return addr.Cell{}, xlerr.Wrapf(xlerr.KindSheet, err, "failed to scan sheet %q", sheet)
	}
	if !ok {
		return addr.Cell{Col: 1, Row: 1}, nil
	}
	return addr.Cell{Col: 1, Row: used.End.Row + 1}, nil
}

// FilterRows treats row 1 as a header row and returns every data row
// whose cells equal all of the given filters, keyed by header name.
// Filter keys must match headers exactly; values compare
// case-sensitively. maxCells bounds the result payload.
func FilterRows(f *excelize.File, sheet string, filters map[string]string, maxCells int) (*FilterResult, error) {
	if !sheets.Exists(f, sheet) {
		return nil, xlerr.Sheetf("sheet %q not found", sheet)
	}
	if len(filters) == 0 {
		return nil, xlerr.Validationf("at least one column filter is required")
	}

	used, ok, err := sheets.UsedRange(f, sheet)
	if err != nil {
		return nil, xlerr.Wrapf(xlerr.KindSheet, err, "failed to scan sheet %q", sheet)
	}
	if !ok {
		return nil, xlerr.Dataf("sheet %q has no data to filter", sheet)
	}

	headers := make([]string, 0, used.End.Col)
	headerCol := make(map[string]int, used.End.Col)
	for col := 1; col <= used.End.Col; col++ {
		name, err := f.GetCellValue(sheet, addr.CellName(col, 1))
		if err != nil {
			return nil, xlerr.Wrapf(xlerr.KindData, err, "failed to read header cell %s", addr.CellName(col, 1))
		}
		if name == "" {
			continue
		}
		if _, dup := headerCol[name]; !dup {
			headers = append(headers, name)
			headerCol[name] = col
		}
	}
	for name := range filters {
		if _, known := headerCol[name]; !known {
			return nil, xlerr.Dataf("column %q not found in sheet %q (headers: %s)", name, sheet, strings.Join(headers, ", "))
		}
	}

	result := &FilterResult{Headers: headers, Rows: []map[string]string{}}
	cells := 0
	for row := 2; row <= used.End.Row; row++ {
		match := true
		for name, want := range filters {
			v, err := f.GetCellValue(sheet, addr.CellName(headerCol[name], row))
			if err != nil {
				return nil, xlerr.Wrapf(xlerr.KindData, err, "failed to read cell %s", addr.CellName(headerCol[name], row))
			}
			if v != want {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if maxCells > 0 && cells+len(headers) > maxCells {
			result.Truncated = true
			break
		}
		out := make(map[string]string, len(headers))
		for _, name := range headers {
			v, err := f.GetCellValue(sheet, addr.CellName(headerCol[name], row))
			if err != nil {
				return nil, xlerr.Wrapf(xlerr.KindData, err, "failed to read cell %s", addr.CellName(headerCol[name], row))
			}
			out[name] = v
		}
		result.Rows = append(result.Rows, out)
		cells += len(headers)
	}
	return result, nil
}
