// Package addr implements A1-style cell and range addressing: parsing,
// normalization, and formatting. All coordinates are 1-indexed, and all
// ranges are inclusive rectangles with Start at the top-left corner.
package addr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sheetkit/excel-mcp-server/pkg/xlerr"
)

// XLSX grid limits.
const (
	MaxRows    = 1048576
	MaxColumns = 16384
)

// cellRefRe matches a cell reference like A1, $B$2, aa100. Column
// letters and the row number are bounded so overflow cannot sneak past
// the explicit limit checks below.
var cellRefRe = regexp.MustCompile(`^\$?([A-Za-z]{1,3})\$?([0-9]{1,7})$`)

// Cell is a 1-indexed grid coordinate.
type Cell struct {
	Col int
	Row int
}

// Name renders the cell as an A1-style reference.
func (c Cell) Name() string {
	return ColumnName(c.Col) + strconv.Itoa(c.Row)
}

// Range is a rectangular block of cells, corners inclusive. Start is
// always the top-left corner after normalization.
type Range struct {
	Start Cell
	End   Cell
}

// NewRange builds a normalized range from two corners in any order.
func NewRange(a, b Cell) Range {
	if a.Col > b.Col {
		a.Col, b.Col = b.Col, a.Col
	}
	if a.Row > b.Row {
		a.Row, b.Row = b.Row, a.Row
	}
	return Range{Start: a, End: b}
}

// String renders the range in colon form. Single cells render as
// "A1:A1" so callers always see both corners.
func (r Range) String() string {
	return r.Start.Name() + ":" + r.End.Name()
}

// Rows returns the number of rows the range spans.
func (r Range) Rows() int { return r.End.Row - r.Start.Row + 1 }

// Cols returns the number of columns the range spans.
func (r Range) Cols() int { return r.End.Col - r.Start.Col + 1 }

// Cells returns the total cell count of the range.
func (r Range) Cells() int { return r.Rows() * r.Cols() }

// ParseCellRef parses a single A1-style reference. Absolute markers
// ($) are accepted and ignored, letters are case-insensitive, and the
// reference must stay inside the XLSX grid.
func ParseCellRef(ref string) (Cell, error) {
	t := strings.TrimSpace(ref)
	if strings.Contains(t, "!") {
		return Cell{}, xlerr.Validationf("cell reference %q must not include a sheet name; pass the sheet separately", ref)
	}
	m := cellRefRe.FindStringSubmatch(t)
	if m == nil {
		return Cell{}, xlerr.Validationf("invalid cell reference %q", ref)
	}
	row, _ := strconv.Atoi(m[2])
	if row < 1 {
		return Cell{}, xlerr.Validationf("invalid cell reference %q: row must be at least 1", ref)
	}
	col, err := excelize.ColumnNameToNumber(m[1])
	// After the regex gate the conversion can only fail on a column past XFD.
	if err != nil || row > MaxRows {
		return Cell{}, xlerr.Validationf("cell reference %q is out of bounds (max %s%d)", ref, ColumnName(MaxColumns), MaxRows)
	}
	return Cell{Col: col, Row: row}, nil
}

// ParseRange parses "A1" or "A1:C10" into a normalized Range. A single
// cell yields a 1x1 range. Reversed corners are swapped rather than
// rejected, so "C10:A1" and "A1:C10" address the same block.
func ParseRange(ref string) (Range, error) {
	t := strings.TrimSpace(ref)
	from, to, hasColon := strings.Cut(t, ":")
	if !hasColon {
		to = from
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return Range{}, xlerr.Validationf("invalid range %q", ref)
	}
	start, err := ParseCellRef(from)
	if err != nil {
		return Range{}, err
	}
	end, err := ParseCellRef(to)
	if err != nil {
		return Range{}, err
	}
	return NewRange(start, end), nil
}

// CellName renders 1-indexed coordinates as an A1-style reference.
func CellName(col, row int) string {
	return Cell{Col: col, Row: row}.Name()
}

// ColumnName converts a 1-indexed column number to Excel letters.
// Columns outside 1..MaxColumns render as the empty string.
func ColumnName(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}

// ColumnNumber converts Excel column letters (either case) to a
// 1-indexed number. Invalid or oversized letters yield 0.
func ColumnNumber(letters string) int {
	col, err := excelize.ColumnNameToNumber(letters)
	if err != nil {
		return 0
	}
	return col
}
