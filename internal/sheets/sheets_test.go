package sheets

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// newWorkbook builds an in-memory workbook with the given sheets, the
// first one replacing the default Sheet1.
func newWorkbook(t *testing.T, names ...string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	if len(names) == 0 {
		return f
	}
	require.NoError(t, f.SetSheetName("Sheet1", names[0]))
	for _, n := range names[1:] {
		_, err := f.NewSheet(n)
		require.NoError(t, err)
	}
	return f
}

func TestCreate(t *testing.T) {
	f := newWorkbook(t, "Data")
	require.NoError(t, Create(f, "Summary"))
	require.Equal(t, []string{"Data", "Summary"}, Names(f))

	err := Create(f, "Summary")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

func TestCreate_InvalidName(t *testing.T) {
	f := newWorkbook(t, "Data")
	require.Error(t, Create(f, "bad[name]"))
}

func TestDelete(t *testing.T) {
	f := newWorkbook(t, "Data", "Summary")
	require.NoError(t, Delete(f, "Summary"))
	require.Equal(t, []string{"Data"}, Names(f))

	err := Delete(f, "Summary")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestDelete_LastSheetRejected(t *testing.T) {
	f := newWorkbook(t, "Only")
	err := Delete(f, "Only")
	require.Error(t, err)
	require.Contains(t, err.Error(), "only sheet in the workbook")
	require.Equal(t, []string{"Only"}, Names(f))
}

func TestRename(t *testing.T) {
	f := newWorkbook(t, "Data", "Old")
	require.NoError(t, Rename(f, "Old", "New"))
	require.Equal(t, []string{"Data", "New"}, Names(f))

	require.Error(t, Rename(f, "Missing", "X"))

	err := Rename(f, "New", "Data")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

func TestCopy(t *testing.T) {
	f := newWorkbook(t, "Source")
	require.NoError(t, f.SetCellValue("Source", "A1", "header"))
	require.NoError(t, f.SetCellValue("Source", "B2", 42))

	require.NoError(t, Copy(f, "Source", "Clone"))
	require.Equal(t, []string{"Source", "Clone"}, Names(f))

	v, err := f.GetCellValue("Clone", "A1")
	require.NoError(t, err)
	require.Equal(t, "header", v)
	v, err = f.GetCellValue("Clone", "B2")
	require.NoError(t, err)
	require.Equal(t, "42", v)

	require.Error(t, Copy(f, "Missing", "X"))
	err = Copy(f, "Source", "Clone")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

func TestMove(t *testing.T) {
	cases := []struct {
		name  string
		sheet string
		index int
		want  []string
	}{
		{"to front", "S3", 0, []string{"S3", "S1", "S2"}},
		{"to back", "S1", 2, []string{"S2", "S3", "S1"}},
		{"to middle", "S3", 1, []string{"S1", "S3", "S2"}},
		{"stay put", "S2", 1, []string{"S1", "S2", "S3"}},
		{"front stays", "S1", 0, []string{"S1", "S2", "S3"}},
		{"back stays", "S3", 2, []string{"S1", "S2", "S3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newWorkbook(t, "S1", "S2", "S3")
			require.NoError(t, Move(f, tc.sheet, tc.index))
			require.Equal(t, tc.want, Names(f))
		})
	}
}

func TestMove_Bounds(t *testing.T) {
	f := newWorkbook(t, "S1", "S2", "S3")
	for _, idx := range []int{-1, 3, 99} {
		err := Move(f, "S1", idx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "must be between 0 and 2")
	}
	require.Error(t, Move(f, "Missing", 0))
}

func TestMove_SingleSheet(t *testing.T) {
	f := newWorkbook(t, "Only")
	require.NoError(t, Move(f, "Only", 0))
	require.Equal(t, []string{"Only"}, Names(f))
}

func TestGet(t *testing.T) {
	f := newWorkbook(t, "Data", "Empty")
	require.NoError(t, f.SetCellValue("Data", "A1", "x"))
	require.NoError(t, f.SetCellValue("Data", "C4", 7))

	m, err := Get(f, "Data")
	require.NoError(t, err)
	require.Equal(t, "Data", m.Name)
	require.Equal(t, 0, m.Index)
	require.Equal(t, 4, m.MaxRow)
	require.Equal(t, 3, m.MaxColumn)
	require.Equal(t, "A1:C4", m.UsedRange)

	m, err = Get(f, "Empty")
	require.NoError(t, err)
	require.Equal(t, 1, m.Index)
	require.Zero(t, m.MaxRow)
	require.Empty(t, m.UsedRange)

	_, err = Get(f, "Missing")
	require.Error(t, err)
}

func TestUsedRange(t *testing.T) {
	f := newWorkbook(t, "S")

	_, ok, err := UsedRange(f, "S")
	require.NoError(t, err)
	require.False(t, ok)

	// A single far-out cell still anchors the range at A1.
	require.NoError(t, f.SetCellValue("S", "C5", "v"))
	r, ok, err := UsedRange(f, "S")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "A1:C5", r.String())

	_, _, err = UsedRange(f, "Missing")
	require.Error(t, err)
}
