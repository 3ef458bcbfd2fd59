package registry

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/sheetkit/excel-mcp-server/config"
	"github.com/sheetkit/excel-mcp-server/pkg/xlerr"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := New()
	reg.Register(mcp.NewTool("excel_read_data"))

	tool, found := reg.Get("excel_read_data")
	require.True(t, found)
	require.Equal(t, "excel_read_data", tool.Name)

	_, found = reg.Get("excel_unknown")
	require.False(t, found)
}

func TestRegistry_ToolsSorted(t *testing.T) {
	reg := New()
	reg.Register(mcp.NewTool("excel_write_data"))
	reg.Register(mcp.NewTool("excel_create_workbook"))
	reg.Register(mcp.NewTool("excel_merge_range"))

	tools, err := reg.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 3)
	require.Equal(t, "excel_create_workbook", tools[0].Name)
	require.Equal(t, "excel_merge_range", tools[1].Name)
	require.Equal(t, "excel_write_data", tools[2].Name)
}

func TestDeps_NamePrefix(t *testing.T) {
	d := Deps{Settings: &config.Settings{ToolPrefix: "excel_"}}
	require.Equal(t, "excel_read_data", d.name("read_data"))

	d.Settings.ToolPrefix = ""
	require.Equal(t, "read_data", d.name("read_data"))
}

func TestDeps_DenyWrites(t *testing.T) {
	d := Deps{Settings: &config.Settings{ReadOnly: false}}
	require.Nil(t, d.denyWrites())

	d.Settings.ReadOnly = true
	res := d.denyWrites()
	require.NotNil(t, res)
	require.True(t, res.IsError)

	env, okCast := res.StructuredContent.(Envelope)
	require.True(t, okCast)
	require.False(t, env.Success)
	require.Equal(t, "server is running in read-only mode", env.Message)
}

func TestFail_Envelope(t *testing.T) {
	res := fail(xlerr.Sheetf("sheet %q not found", "Data"))
	require.True(t, res.IsError)

	env, okCast := res.StructuredContent.(Envelope)
	require.True(t, okCast)
	require.False(t, env.Success)
	// The envelope message carries no kind prefix.
	require.Equal(t, `sheet "Data" not found`, env.Message)
}

func TestStructured_TextFallback(t *testing.T) {
	out := CreateWorkbookOutput{Envelope: ok("Created workbook: report.xlsx")}
	res := structured(out, out.Message)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	tc, okCast := res.Content[0].(mcp.TextContent)
	require.True(t, okCast)
	require.Equal(t, "Created workbook: report.xlsx", tc.Text)
}

func TestCheckInput(t *testing.T) {
	require.Nil(t, checkInput(CreateWorkbookInput{Filename: "report.xlsx"}))

	res := checkInput(CreateWorkbookInput{})
	require.NotNil(t, res)
	require.True(t, res.IsError)
	env := res.StructuredContent.(Envelope)
	require.Equal(t, "filename is required", env.Message)

	res = checkInput(CreateWorkbookInput{Filename: "report.txt"})
	require.NotNil(t, res)
	env = res.StructuredContent.(Envelope)
	require.Equal(t, "filename must be an Excel file (.xlsx or .xlsm)", env.Message)
}

func TestReadOnlyFilter_HidesMutatingTools(t *testing.T) {
	cfg := &config.Settings{ToolPrefix: "excel_", ReadOnly: true}
	f := NewReadOnlyFilter(cfg)

	tools := []mcp.Tool{
		{Name: "excel_read_data"},
		{Name: "excel_write_data"},
		{Name: "excel_merge_range"},
		{Name: "excel_list_workbooks"},
	}
	out := f.FilterTools(context.Background(), tools)
	require.Len(t, out, 2)
	require.Equal(t, "excel_read_data", out[0].Name)
	require.Equal(t, "excel_list_workbooks", out[1].Name)
}

func TestReadOnlyFilter_PassThroughWhenWritable(t *testing.T) {
	cfg := &config.Settings{ToolPrefix: "excel_", ReadOnly: false}
	f := NewReadOnlyFilter(cfg)

	tools := []mcp.Tool{
		{Name: "excel_write_data"},
		{Name: "excel_delete_worksheet"},
	}
	out := f.FilterTools(context.Background(), tools)
	require.Len(t, out, 2)
}

func TestIsMutating(t *testing.T) {
	cases := []struct {
		prefix string
		name   string
		want   bool
	}{
		{"excel_", "excel_write_data", true},
		{"excel_", "excel_delete_range", true},
		{"", "write_data", true},
		{"excel_", "excel_read_data", false},
		{"excel_", "excel_validate_range", false},
		{"xl_", "excel_write_data", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, isMutating(tc.prefix, tc.name), "prefix=%q name=%q", tc.prefix, tc.name)
	}
}
