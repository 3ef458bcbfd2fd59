// Package sheets implements worksheet-level operations on an open
// workbook: create, delete, rename, copy, reorder, and metadata. All
// functions take the *excelize.File the workbook store opened; nothing
// here touches the filesystem.
package sheets

import (
	"github.com/xuri/excelize/v2"

	"github.com/sheetkit/excel-mcp-server/internal/addr"
	"github.com/sheetkit/excel-mcp-server/pkg/xlerr"
)

// Meta describes one worksheet.
type Meta struct {
	Name      string `json:"name"`
	Index     int    `json:"index"`
	MaxRow    int    `json:"max_row"`
	MaxColumn int    `json:"max_column"`
	UsedRange string `json:"used_range,omitempty"`
}

// Exists reports whether the named sheet is present.
func Exists(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx != -1
}

func requireSheet(f *excelize.File, name string) error {
	if !Exists(f, name) {
		return xlerr.Sheetf("sheet %q not found", name)
	}
	return nil
}

// Names returns the worksheet names in workbook order.
func Names(f *excelize.File) []string {
	return f.GetSheetList()
}

// Create appends an empty sheet with the given name.
func Create(f *excelize.File, name string) error {
	if Exists(f, name) {
		return xlerr.Sheetf("sheet %q already exists", name)
	}
	if _, err := f.NewSheet(name); err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "invalid sheet name %q", name)
	}
	return nil
}

// Delete removes a sheet. The last remaining sheet can never be
// deleted: a workbook must always contain at least one.
func Delete(f *excelize.File, name string) error {
	if err := requireSheet(f, name); err != nil {
		return err
	}
	if len(f.GetSheetList()) == 1 {
		return xlerr.Sheetf("cannot delete the only sheet in the workbook")
	}
	if err := f.DeleteSheet(name); err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "failed to delete sheet %q", name)
	}
	return nil
}

// Rename changes a sheet's name. The target name must be free.
func Rename(f *excelize.File, oldName, newName string) error {
	if err := requireSheet(f, oldName); err != nil {
		return err
	}
	if Exists(f, newName) {
		return xlerr.Sheetf("sheet %q already exists", newName)
	}
	if err := f.SetSheetName(oldName, newName); err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "invalid sheet name %q", newName)
	}
	return nil
}

// Copy duplicates source into a new sheet named target, carrying cell
// values, formulas, and styles.
func Copy(f *excelize.File, source, target string) error {
	if err := requireSheet(f, source); err != nil {
		return err
	}
	if Exists(f, target) {
		return xlerr.Sheetf("sheet %q already exists", target)
	}
	srcIdx, err := f.GetSheetIndex(source)
	if err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "failed to resolve sheet %q", source)
	}
	dstIdx, err := f.NewSheet(target)
	if err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "invalid sheet name %q", target)
	}
	if err := f.CopySheet(srcIdx, dstIdx); err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "failed to copy sheet %q", source)
	}
	return nil
}

// Move places the named sheet at the given zero-based position,
// preserving the relative order of all other sheets.
func Move(f *excelize.File, name string, index int) error {
	if err := requireSheet(f, name); err != nil {
		return err
	}
	list := f.GetSheetList()
	if index < 0 || index >= len(list) {
		return xlerr.Sheetf("invalid index %d: must be between 0 and %d", index, len(list)-1)
	}
	others := make([]string, 0, len(list)-1)
	for _, s := range list {
		if s != name {
			others = append(others, s)
		}
	}
	if len(others) == 0 {
		return nil
	}
	if index < len(others) {
		// The sheet that must end up immediately after name sits at
		// the target position once name is taken out of the order.
		if err := f.MoveSheet(name, others[index]); err != nil {
			return xlerr.Wrapf(xlerr.KindSheet, err, "failed to move sheet %q", name)
		}
		return nil
	}
	// Tail position. MoveSheet only inserts before a target, so park
	// the sheet next to the current tail, then move the tail in front.
	tail := others[len(others)-1]
	if err := f.MoveSheet(name, tail); err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "failed to move sheet %q", name)
	}
	if err := f.MoveSheet(tail, name); err != nil {
		return xlerr.Wrapf(xlerr.KindSheet, err, "failed to move sheet %q", name)
	}
	return nil
}

// Get returns sheet metadata including the populated extent.
func Get(f *excelize.File, name string) (*Meta, error) {
	if err := requireSheet(f, name); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return nil, xlerr.Wrapf(xlerr.KindSheet, err, "failed to resolve sheet %q", name)
	}
	m := &Meta{Name: name, Index: idx}
	r, ok, err := UsedRange(f, name)
	if err != nil {
		return nil, err
	}
	if ok {
		m.MaxRow = r.End.Row
		m.MaxColumn = r.End.Col
		m.UsedRange = "A1:" + r.End.Name()
	}
	return m, nil
}

// UsedRange scans a sheet and returns the extent of populated cells as
// a range anchored at A1. The second return is false when the sheet
// holds no values at all. Cells that are styled but empty do not count.
func UsedRange(f *excelize.File, sheet string) (addr.Range, bool, error) {
	if err := requireSheet(f, sheet); err != nil {
		return addr.Range{}, false, err
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return addr.Range{}, false, xlerr.Wrapf(xlerr.KindSheet, err, "failed to scan sheet %q", sheet)
	}
	defer rows.Close()

	maxRow, maxCol, rowNum := 0, 0, 0
	for rows.Next() {
		rowNum++
		cols, err := rows.Columns()
		if err != nil {
			return addr.Range{}, false, xlerr.Wrapf(xlerr.KindSheet, err, "failed to scan sheet %q", sheet)
		}
		last := 0
		for i, v := range cols {
			if v != "" {
				last = i + 1
			}
		}
		if last > 0 {
			maxRow = rowNum
			if last > maxCol {
				maxCol = last
			}
		}
	}
	if err := rows.Error(); err != nil {
		return addr.Range{}, false, xlerr.Wrapf(xlerr.KindSheet, err, "failed to scan sheet %q", sheet)
	}
	if maxRow == 0 {
		return addr.Range{}, false, nil
	}
	return addr.NewRange(addr.Cell{Col: 1, Row: 1}, addr.Cell{Col: maxCol, Row: maxRow}), true, nil
}
