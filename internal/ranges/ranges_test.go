package ranges

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sheetkit/excel-mcp-server/internal/addr"
)

func newWorkbook(t *testing.T, names ...string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", names[0]))
	for _, name := range names[1:] {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func mustRange(t *testing.T, ref string) addr.Range {
	t.Helper()
	r, err := addr.ParseRange(ref)
	require.NoError(t, err)
	return r
}

func mustCell(t *testing.T, ref string) addr.Cell {
	t.Helper()
	c, err := addr.ParseCellRef(ref)
	require.NoError(t, err)
	return c
}

func TestCopy_ValuesFormulasStyles(t *testing.T) {
	f := newWorkbook(t, "Data")
	require.NoError(t, f.SetCellValue("Data", "A1", "header"))
	require.NoError(t, f.SetCellValue("Data", "A2", 42))
	require.NoError(t, f.SetCellFormula("Data", "A3", "A2*2"))
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Data", "A2", "A2", bold))

	require.NoError(t, Copy(f, "Data", mustRange(t, "A1:A3"), "", mustCell(t, "C1")))

	v, err := f.GetCellValue("Data", "C1")
	require.NoError(t, err)
	require.Equal(t, "header", v)

	v, err = f.GetCellValue("Data", "C2")
	require.NoError(t, err)
	require.Equal(t, "42", v)

	formula, err := f.GetCellFormula("Data", "C3")
	require.NoError(t, err)
	require.Equal(t, "A2*2", formula)

	styleID, err := f.GetCellStyle("Data", "C2")
	require.NoError(t, err)
	require.NotZero(t, styleID)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	require.True(t, style.Font.Bold)
}

func TestCopy_CrossSheet(t *testing.T) {
	f := newWorkbook(t, "Src", "Dst")
	require.NoError(t, f.SetCellValue("Src", "B2", "payload"))

	require.NoError(t, Copy(f, "Src", mustRange(t, "B2:B2"), "Dst", mustCell(t, "A1")))

	v, err := f.GetCellValue("Dst", "A1")
	require.NoError(t, err)
	require.Equal(t, "payload", v)
}

func TestCopy_OverlappingTarget(t *testing.T) {
	f := newWorkbook(t, "Data")
	for i, v := range []int{1, 2, 3} {
		require.NoError(t, f.SetCellValue("Data", addr.CellName(1, i+1), v))
	}

	// Shifting a column down by one overlaps its own source rectangle;
	// the snapshot keeps the original values intact.
	require.NoError(t, Copy(f, "Data", mustRange(t, "A1:A3"), "", mustCell(t, "A2")))

	for i, want := range []string{"1", "1", "2", "3"} {
		v, err := f.GetCellValue("Data", addr.CellName(1, i+1))
		require.NoError(t, err)
		require.Equal(t, want, v)
	}
}

func TestCopy_MissingSheet(t *testing.T) {
	f := newWorkbook(t, "Data")

	err := Copy(f, "Nope", mustRange(t, "A1:A1"), "", mustCell(t, "B1"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")

	err = Copy(f, "Data", mustRange(t, "A1:A1"), "Nope", mustCell(t, "B1"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestCopy_TargetBeyondBounds(t *testing.T) {
	f := newWorkbook(t, "Data")
	require.NoError(t, f.SetCellValue("Data", "A1", "x"))

	err := Copy(f, "Data", mustRange(t, "A1:B2"), "", mustCell(t, "XFD5"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "beyond the sheet bounds")
}

func TestDelete_ShiftUp(t *testing.T) {
	f := newWorkbook(t, "Data")
	for i, v := range []string{"r1", "r2", "r3", "r4"} {
		require.NoError(t, f.SetCellValue("Data", addr.CellName(1, i+1), v))
	}
	require.NoError(t, f.SetCellValue("Data", "B4", "keep"))

	require.NoError(t, Delete(f, "Data", mustRange(t, "A2:A3"), ShiftUp))

	for cell, want := range map[string]string{"A1": "r1", "A2": "r4", "A3": "", "B2": "keep"} {
		v, err := f.GetCellValue("Data", cell)
		require.NoError(t, err)
		require.Equal(t, want, v, "cell %s", cell)
	}
}

func TestDelete_ShiftLeft(t *testing.T) {
	f := newWorkbook(t, "Data")
	for i, v := range []string{"a", "b", "c"} {
		require.NoError(t, f.SetCellValue("Data", addr.CellName(i+1, 1), v))
	}

	require.NoError(t, Delete(f, "Data", mustRange(t, "B1:B1"), ShiftLeft))

	v, err := f.GetCellValue("Data", "B1")
	require.NoError(t, err)
	require.Equal(t, "c", v)
}

func TestDelete_OutOfBounds(t *testing.T) {
	f := newWorkbook(t, "Data")
	require.NoError(t, f.SetCellValue("Data", "A1", 1))
	require.NoError(t, f.SetCellValue("Data", "B2", 2))

	err := Delete(f, "Data", mustRange(t, "A1:A5"), ShiftUp)
	require.Error(t, err)
	require.Contains(t, err.Error(), "end row 5 out of bounds (1-2)")

	err = Delete(f, "Data", mustRange(t, "A1:E1"), ShiftLeft)
	require.Error(t, err)
	require.Contains(t, err.Error(), "end column 5 out of bounds (1-2)")
}

func TestDelete_EmptySheetBounds(t *testing.T) {
	f := newWorkbook(t, "Data")

	err := Delete(f, "Data", mustRange(t, "A1:A2"), ShiftUp)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of bounds (1-1)")
}

func TestDelete_InvalidShift(t *testing.T) {
	f := newWorkbook(t, "Data")

	err := Delete(f, "Data", mustRange(t, "A1:A1"), "down")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid shift direction")
}

func TestMergeUnmerge_RoundTrip(t *testing.T) {
	f := newWorkbook(t, "Data")
	require.NoError(t, f.SetCellValue("Data", "A1", "title"))

	require.NoError(t, Merge(f, "Data", mustRange(t, "A1:B2")))
	merged, err := f.GetMergeCells("Data")
	require.NoError(t, err)
	require.Len(t, merged, 1)

	v, err := f.GetCellValue("Data", "A1")
	require.NoError(t, err)
	require.Equal(t, "title", v)

	require.NoError(t, Unmerge(f, "Data", mustRange(t, "A1:B2")))
	merged, err = f.GetMergeCells("Data")
	require.NoError(t, err)
	require.Empty(t, merged)

	err = Unmerge(f, "Data", mustRange(t, "A1:B2"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "is not merged")
}

func TestUnmerge_SubRangeRejected(t *testing.T) {
	f := newWorkbook(t, "Data")
	require.NoError(t, Merge(f, "Data", mustRange(t, "A1:C3")))

	err := Unmerge(f, "Data", mustRange(t, "A1:B2"))
	require.Error(t, err)
	require.Contains(t, err.Error(), `range "A1:B2" is not merged`)

	merged, err := f.GetMergeCells("Data")
	require.NoError(t, err)
	require.Len(t, merged, 1)
}

func TestValidate(t *testing.T) {
	f := newWorkbook(t, "Data")
	for row := 1; row <= 5; row++ {
		for col := 1; col <= 3; col++ {
			require.NoError(t, f.SetCellValue("Data", addr.CellName(col, row), row*col))
		}
	}

	info, err := Validate(f, "Data", "A1:C5")
	require.NoError(t, err)
	require.Equal(t, &Info{StartCell: "A1", EndCell: "C5", NumRows: 5, NumCols: 3}, info)

	info, err = Validate(f, "Data", "C5:A1")
	require.NoError(t, err)
	require.Equal(t, "A1", info.StartCell)
	require.Equal(t, "C5", info.EndCell)

	info, err = Validate(f, "Data", "B2:B2")
	require.NoError(t, err)
	require.Equal(t, 1, info.NumRows)
	require.Equal(t, 1, info.NumCols)
}

func TestValidate_Errors(t *testing.T) {
	f := newWorkbook(t, "Data")
	require.NoError(t, f.SetCellValue("Data", "C5", "end"))

	_, err := Validate(f, "Data", "A1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected start:end")

	_, err = Validate(f, "Data", "A0:B2")
	require.Error(t, err)

	_, err = Validate(f, "Nope", "A1:B2")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")

	_, err = Validate(f, "Data", "A1:D6")
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds the sheet's used range (C5)")
}
