package registry

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sheetkit/excel-mcp-server/internal/workbooks"
)

// CreateWorkbookInput defines parameters for creating a workbook.
type CreateWorkbookInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename relative to the configured files directory (.xlsx or .xlsm)"`
	SheetName string `json:"sheet_name,omitempty" validate:"omitempty,max=31" jsonschema_description:"Name of the initial worksheet (defaults to Sheet1)"`
}

// CreatedWorkbook reports the created file and its initial sheet.
type CreatedWorkbook struct {
	Filename  string `json:"filename" jsonschema_description:"Created workbook filename"`
	SheetName string `json:"sheet_name" jsonschema_description:"Name of the initial worksheet"`
}

// CreateWorkbookOutput documents the create_workbook response.
type CreateWorkbookOutput struct {
	Envelope
	Info CreatedWorkbook `json:"info"`
}

// ListWorkbooksOutput documents the list_workbooks response.
type ListWorkbooksOutput struct {
	Envelope
	Files []string `json:"files" jsonschema_description:"Excel filenames in the configured files directory"`
}

// GetWorkbookInfoInput defines parameters for reading workbook metadata.
type GetWorkbookInfoInput struct {
	Filename      string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	IncludeRanges bool   `json:"include_ranges,omitempty" jsonschema_description:"Include each sheet's populated range (slower on large files)"`
}

// GetWorkbookInfoOutput documents the get_workbook_info response.
type GetWorkbookInfoOutput struct {
	Envelope
	Info *workbooks.Info `json:"info,omitempty"`
}

// RegisterWorkbookTools wires the workbook lifecycle tools.
func RegisterWorkbookTools(s *server.MCPServer, reg *Registry, d Deps) {
	createTool := mcp.NewTool(
		d.name("create_workbook"),
		mcp.WithDescription("Create a new Excel workbook in the configured files directory, optionally naming the initial worksheet"),
		mcp.WithInputSchema[CreateWorkbookInput](),
		mcp.WithOutputSchema[CreateWorkbookOutput](),
	)
	s.AddTool(createTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CreateWorkbookInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		sheetName := in.SheetName
		if sheetName == "" {
			sheetName = "Sheet1"
		}
		if err := d.Store.Create(ctx, in.Filename, sheetName); err != nil {
			return fail(err), nil
		}
		out := CreateWorkbookOutput{
			Envelope: ok(fmt.Sprintf("Created workbook: %s", in.Filename)),
			Info:     CreatedWorkbook{Filename: in.Filename, SheetName: sheetName},
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(createTool)

	listTool := mcp.NewTool(
		d.name("list_workbooks"),
		mcp.WithDescription("List the Excel files (.xlsx, .xlsm) in the configured files directory"),
		mcp.WithOutputSchema[ListWorkbooksOutput](),
	)
	s.AddTool(listTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		files, err := d.Store.List(ctx)
		if err != nil {
			return fail(err), nil
		}
		out := ListWorkbooksOutput{
			Envelope: ok(fmt.Sprintf("Found %d Excel files", len(files))),
			Files:    files,
		}
		return structured(out, out.Message), nil
	})
	reg.Register(listTool)

	infoTool := mcp.NewTool(
		d.name("get_workbook_info"),
		mcp.WithDescription("Return workbook metadata: sheet names, file size, modification time, and optionally each sheet's populated range"),
		mcp.WithInputSchema[GetWorkbookInfoInput](),
		mcp.WithOutputSchema[GetWorkbookInfoOutput](),
	)
	s.AddTool(infoTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in GetWorkbookInfoInput) (*mcp.CallToolResult, error) {
		if res := checkInput(in); res != nil {
			return res, nil
		}
		info, err := d.Store.GetInfo(ctx, in.Filename, in.IncludeRanges)
		if err != nil {
			return fail(err), nil
		}
		out := GetWorkbookInfoOutput{
			Envelope: ok(fmt.Sprintf("Retrieved info for '%s'", in.Filename)),
			Info:     info,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(infoTool)
}
