// Package ranges implements rectangular range operations on an open
// workbook: copy with style propagation, delete with shift, merge,
// unmerge, and range validation. All functions operate on an
// *excelize.File supplied by the workbook store and leave persistence
// to the caller.
package ranges

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sheetkit/excel-mcp-server/internal/addr"
	"github.com/sheetkit/excel-mcp-server/internal/sheets"
	"github.com/sheetkit/excel-mcp-server/pkg/xlerr"
)

// Shift directions accepted by Delete.
const (
	ShiftUp   = "up"
	ShiftLeft = "left"
)

// Info describes a validated range.
type Info struct {
	StartCell string `json:"start_cell"`
	EndCell   string `json:"end_cell"`
	NumRows   int    `json:"num_rows"`
	NumCols   int    `json:"num_cols"`
}

// cellData is a point-in-time snapshot of one cell. Copy materializes
// the whole source rectangle before writing so that overlapping
// source/target areas do not read their own partially written output.
type cellData struct {
	formula string
	value   any
	styleID int
}

// Copy replicates src onto a same-shaped rectangle anchored at
// targetStart. Values and formulas carry over as-is; styled cells are
// re-materialized on the target via a value copy of the source style.
// targetSheet defaults to sheet when empty.
func Copy(f *excelize.File, sheet string, src addr.Range, targetSheet string, targetStart addr.Cell) error {
	if !sheets.Exists(f, sheet) {
		return xlerr.Sheetf("sheet %q not found", sheet)
	}
	if targetSheet == "" {
		targetSheet = sheet
	} else if !sheets.Exists(f, targetSheet) {
		return xlerr.Sheetf("sheet %q not found", targetSheet)
	}

	rowOff := targetStart.Row - src.Start.Row
	colOff := targetStart.Col - src.Start.Col
	if src.End.Row+rowOff > addr.MaxRows || src.End.Col+colOff > addr.MaxColumns {
		return xlerr.Rangef("target range extends beyond the sheet bounds (max %s)",
			addr.CellName(addr.MaxColumns, addr.MaxRows))
	}

	snapshot := make([]cellData, 0, src.Cells())
	for row := src.Start.Row; row <= src.End.Row; row++ {
		for col := src.Start.Col; col <= src.End.Col; col++ {
			cd, err := readCell(f, sheet, addr.CellName(col, row))
			if err != nil {
				return xlerr.Wrapf(xlerr.KindRange, err, "failed to read cell %s", addr.CellName(col, row))
			}
			snapshot = append(snapshot, cd)
		}
	}

	i := 0
	for row := src.Start.Row; row <= src.End.Row; row++ {
		for col := src.Start.Col; col <= src.End.Col; col++ {
			target := addr.CellName(col+colOff, row+rowOff)
			if err := writeCell(f, targetSheet, target, snapshot[i]); err != nil {
				return xlerr.Wrapf(xlerr.KindRange, err, "failed to write cell %s", target)
			}
			i++
		}
	}
	return nil
}

// Delete clears every cell in r to an empty value and default style,
// then closes the gap by removing whole rows (shift "up") or whole
// columns (shift "left"). The range end must lie inside the sheet's
// populated extent.
func Delete(f *excelize.File, sheet string, r addr.Range, shift string) error {
	if shift != ShiftUp && shift != ShiftLeft {
		return xlerr.Validationf("invalid shift direction %q: must be %q or %q", shift, ShiftUp, ShiftLeft)
	}
	if !sheets.Exists(f, sheet) {
		return xlerr.Sheetf("sheet %q not found", sheet)
	}

	maxRow, maxCol := 1, 1
	if used, ok, err := sheets.UsedRange(f, sheet); err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "failed to scan sheet %q", sheet)
	} else if ok {
		maxRow, maxCol = used.End.Row, used.End.Col
	}
	if r.End.Row > maxRow {
		return xlerr.Sheetf("end row %d out of bounds (1-%d)", r.End.Row, maxRow)
	}
	if r.End.Col > maxCol {
		return xlerr.Sheetf("end column %d out of bounds (1-%d)", r.End.Col, maxCol)
	}

	if err := clearRange(f, sheet, r); err != nil {
		return xlerr.Wrapf(xlerr.KindRange, err, "failed to clear range %s", r)
	}
	switch shift {
	case ShiftUp:
		for i := 0; i < r.Rows(); i++ {
			if err := f.RemoveRow(sheet, r.Start.Row); err != nil {
				return xlerr.Wrapf(xlerr.KindRange, err, "failed to remove row %d", r.Start.Row)
			}
		}
	case ShiftLeft:
		col := addr.ColumnName(r.Start.Col)
		for i := 0; i < r.Cols(); i++ {
			if err := f.RemoveCol(sheet, col); err != nil {
				return xlerr.Wrapf(xlerr.KindRange, err, "failed to remove column %s", col)
			}
		}
	}
	return nil
}

// Merge merges r into a single cell. Only the top-left value survives.
func Merge(f *excelize.File, sheet string, r addr.Range) error {
	if !sheets.Exists(f, sheet) {
		return xlerr.Sheetf("sheet %q not found", sheet)
	}
	if err := f.MergeCell(sheet, r.Start.Name(), r.End.Name()); err != nil {
		return xlerr.Wrapf(xlerr.KindRange, err, "failed to merge range %s", r)
	}
	return nil
}

// Unmerge removes the merge covering exactly r. A sub-range of a larger
// merged area is rejected rather than partially honored.
func Unmerge(f *excelize.File, sheet string, r addr.Range) error {
	if !sheets.Exists(f, sheet) {
		return xlerr.Sheetf("sheet %q not found", sheet)
	}
	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "failed to list merged ranges on sheet %q", sheet)
	}
	for _, mc := range merged {
		mr, err := addr.ParseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			continue
		}
		if mr == r {
			if err := f.UnmergeCell(sheet, mr.Start.Name(), mr.End.Name()); err != nil {
				return xlerr.Wrapf(xlerr.KindRange, err, "failed to unmerge range %s", r)
			}
			return nil
		}
	}
	return xlerr.Sheetf("range %q is not merged", r.String())
}

// Validate parses rangeRef, requires the start:end form, and checks
// both corners against the sheet's populated extent. It reports the
// normalized corners and the rectangle's shape.
func Validate(f *excelize.File, sheet, rangeRef string) (*Info, error) {
	if !strings.Contains(rangeRef, ":") {
		return nil, xlerr.Rangef("invalid range %q: expected start:end (e.g. A1:C10)", rangeRef)
	}
	r, err := addr.ParseRange(rangeRef)
	if err != nil {
		return nil, xlerr.Rangef("%v", err)
	}
	if !sheets.Exists(f, sheet) {
		return nil, xlerr.Rangef("sheet %q not found", sheet)
	}
	maxRow, maxCol := 1, 1
	if used, ok, err := sheets.UsedRange(f, sheet); err != nil {
		return nil, xlerr.Wrapf(xlerr.KindRange, err, "failed to scan sheet %q", sheet)
	} else if ok {
		maxRow, maxCol = used.End.Row, used.End.Col
	}
	if r.End.Row > maxRow || r.End.Col > maxCol {
		return nil, xlerr.Rangef("range %s exceeds the sheet's used range (%s)", r, addr.CellName(maxCol, maxRow))
	}
	return &Info{
		StartCell: r.Start.Name(),
		EndCell:   r.End.Name(),
		NumRows:   r.Rows(),
		NumCols:   r.Cols(),
	}, nil
}

func readCell(f *excelize.File, sheet, cell string) (cellData, error) {
	var cd cellData
	formula, err := f.GetCellFormula(sheet, cell)
	if err != nil {
		return cd, err
	}
	cd.formula = formula
	if formula == "" {
		v, err := typedCellValue(f, sheet, cell)
		if err != nil {
			return cd, err
		}
		cd.value = v
	}
	cd.styleID, err = f.GetCellStyle(sheet, cell)
	if err != nil {
		return cd, err
	}
	return cd, nil
}

func writeCell(f *excelize.File, sheet, cell string, cd cellData) error {
	if cd.formula != "" {
		if err := f.SetCellFormula(sheet, cell, cd.formula); err != nil {
			return err
		}
	} else {
		// A stale formula on the target would shadow the written value.
		if err := f.SetCellFormula(sheet, cell, ""); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, cd.value); err != nil {
			return err
		}
	}
	if cd.styleID == 0 {
		return nil
	}
	style, err := f.GetStyle(cd.styleID)
	if err != nil {
		return err
	}
	id, err := f.NewStyle(cloneStyle(style))
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, id)
}

// typedCellValue reads a cell preserving its stored type: numbers come
// back as float64 and booleans as bool rather than formatted strings.
func typedCellValue(f *excelize.File, sheet, cell string) (any, error) {
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	ctype, err := f.GetCellType(sheet, cell)
	if err != nil {
		return nil, err
	}
	switch ctype {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "TRUE"), nil
	case excelize.CellTypeNumber, excelize.CellTypeDate, excelize.CellTypeUnset:
		if n, perr := strconv.ParseFloat(raw, 64); perr == nil {
			return n, nil
		}
		return raw, nil
	default:
		return raw, nil
	}
}

func clearRange(f *excelize.File, sheet string, r addr.Range) error {
	for row := r.Start.Row; row <= r.End.Row; row++ {
		for col := r.Start.Col; col <= r.End.Col; col++ {
			cell := addr.CellName(col, row)
			if err := f.SetCellFormula(sheet, cell, ""); err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, nil); err != nil {
				return err
			}
		}
	}
	return f.SetCellStyle(sheet, r.Start.Name(), r.End.Name(), 0)
}

// cloneStyle builds a detached value copy of an excelize style so the
// target cell never aliases the source style's nested slices and
// pointers.
func cloneStyle(src *excelize.Style) *excelize.Style {
	if src == nil {
		return &excelize.Style{}
	}
	out := &excelize.Style{
		Fill:   src.Fill,
		NumFmt: src.NumFmt,
		NegRed: src.NegRed,
	}
	out.Border = append(out.Border, src.Border...)
	out.Fill.Color = append([]string(nil), src.Fill.Color...)
	if src.Font != nil {
		font := *src.Font
		if src.Font.ColorTheme != nil {
			theme := *src.Font.ColorTheme
			font.ColorTheme = &theme
		}
		out.Font = &font
	}
	if src.Alignment != nil {
		alignment := *src.Alignment
		out.Alignment = &alignment
	}
	if src.Protection != nil {
		protection := *src.Protection
		out.Protection = &protection
	}
	if src.DecimalPlaces != nil {
		places := *src.DecimalPlaces
		out.DecimalPlaces = &places
	}
	if src.CustomNumFmt != nil {
		format := *src.CustomNumFmt
		out.CustomNumFmt = &format
	}
	return out
}
