package registry

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xuri/excelize/v2"

	"github.com/sheetkit/excel-mcp-server/internal/sheets"
)

// CreateWorksheetInput defines parameters for adding a worksheet.
type CreateWorksheetInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string `json:"sheet_name" validate:"required,max=31" jsonschema_description:"Name of the worksheet to create"`
}

// CreateWorksheetOutput documents the create_worksheet response.
type CreateWorksheetOutput struct {
	Envelope
	SheetName string `json:"sheet_name" jsonschema_description:"Name of the created worksheet"`
}

// DeleteWorksheetInput defines parameters for removing a worksheet.
type DeleteWorksheetInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string `json:"sheet_name" validate:"required" jsonschema_description:"Name of the worksheet to delete"`
}

// DeleteWorksheetOutput documents the delete_worksheet response.
type DeleteWorksheetOutput struct {
	Envelope
}

// RenameWorksheetInput defines parameters for renaming a worksheet.
type RenameWorksheetInput struct {
	Filename string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	OldName  string `json:"old_name" validate:"required" jsonschema_description:"Current worksheet name"`
	NewName  string `json:"new_name" validate:"required,max=31" jsonschema_description:"New worksheet name"`
}

// RenameWorksheetOutput documents the rename_worksheet response.
type RenameWorksheetOutput struct {
	Envelope
	NewName string `json:"new_name" jsonschema_description:"The worksheet's new name"`
}

// CopyWorksheetInput defines parameters for duplicating a worksheet.
type CopyWorksheetInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet to copy"`
	NewName   string `json:"new_name" validate:"required,max=31" jsonschema_description:"Name for the copy"`
}

// CopyWorksheetOutput documents the copy_worksheet response.
type CopyWorksheetOutput struct {
	Envelope
	NewName string `json:"new_name" jsonschema_description:"Name of the new worksheet"`
}

// MoveWorksheetInput defines parameters for reordering a worksheet.
type MoveWorksheetInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet to move"`
	Index     int    `json:"index" jsonschema_description:"Zero-based target position in the sheet order"`
}

// MoveWorksheetOutput documents the move_worksheet response.
type MoveWorksheetOutput struct {
	Envelope
	SheetName string `json:"sheet_name" jsonschema_description:"Name of the moved worksheet"`
}

// GetWorksheetInput defines parameters for reading worksheet metadata.
type GetWorksheetInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet name"`
}

// GetWorksheetOutput documents the get_worksheet response.
type GetWorksheetOutput struct {
	Envelope
	Sheet *sheets.Meta `json:"sheet,omitempty"`
}

// ListWorksheetsInput defines parameters for listing worksheets.
type ListWorksheetsInput struct {
	Filename string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
}

// ListWorksheetsOutput documents the list_worksheets response.
type ListWorksheetsOutput struct {
	Envelope
	Sheets []string `json:"sheets" jsonschema_description:"Worksheet names in workbook order"`
}

// RegisterSheetTools wires the worksheet management tools.
func RegisterSheetTools(s *server.MCPServer, reg *Registry, d Deps) {
	createTool := mcp.NewTool(
		d.name("create_worksheet"),
		mcp.WithDescription("Add an empty worksheet to an existing workbook"),
		mcp.WithInputSchema[CreateWorksheetInput](),
		mcp.WithOutputSchema[CreateWorksheetOutput](),
	)
	s.AddTool(createTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CreateWorksheetInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return sheets.Create(f, in.SheetName)
		})
		if err != nil {
			return fail(err), nil
		}
		out := CreateWorksheetOutput{
			Envelope:  ok(fmt.Sprintf("Created worksheet '%s'", in.SheetName)),
			SheetName: in.SheetName,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(createTool)

	deleteTool := mcp.NewTool(
		d.name("delete_worksheet"),
		mcp.WithDescription("Delete a worksheet from a workbook; the last remaining sheet cannot be deleted"),
		mcp.WithInputSchema[DeleteWorksheetInput](),
		mcp.WithOutputSchema[DeleteWorksheetOutput](),
	)
	s.AddTool(deleteTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in DeleteWorksheetInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return sheets.Delete(f, in.SheetName)
		})
		if err != nil {
			return fail(err), nil
		}
		out := DeleteWorksheetOutput{
			Envelope: ok(fmt.Sprintf("Deleted worksheet '%s'", in.SheetName)),
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(deleteTool)

	renameTool := mcp.NewTool(
		d.name("rename_worksheet"),
		mcp.WithDescription("Rename a worksheet; the new name must not be taken"),
		mcp.WithInputSchema[RenameWorksheetInput](),
		mcp.WithOutputSchema[RenameWorksheetOutput](),
	)
	s.AddTool(renameTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in RenameWorksheetInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return sheets.Rename(f, in.OldName, in.NewName)
		})
		if err != nil {
			return fail(err), nil
		}
		out := RenameWorksheetOutput{
			Envelope: ok(fmt.Sprintf("Renamed worksheet '%s' to '%s'", in.OldName, in.NewName)),
			NewName:  in.NewName,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(renameTool)

	copyTool := mcp.NewTool(
		d.name("copy_worksheet"),
		mcp.WithDescription("Duplicate a worksheet within the same workbook under a new name"),
		mcp.WithInputSchema[CopyWorksheetInput](),
		mcp.WithOutputSchema[CopyWorksheetOutput](),
	)
	s.AddTool(copyTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CopyWorksheetInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return sheets.Copy(f, in.SheetName, in.NewName)
		})
		if err != nil {
			return fail(err), nil
		}
		out := CopyWorksheetOutput{
			Envelope: ok(fmt.Sprintf("Copied worksheet '%s' to '%s'", in.SheetName, in.NewName)),
			NewName:  in.NewName,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(copyTool)

	moveTool := mcp.NewTool(
		d.name("move_worksheet"),
		mcp.WithDescription("Move a worksheet to a zero-based position in the workbook's sheet order"),
		mcp.WithInputSchema[MoveWorksheetInput](),
		mcp.WithOutputSchema[MoveWorksheetOutput](),
	)
	s.AddTool(moveTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in MoveWorksheetInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return sheets.Move(f, in.SheetName, in.Index)
		})
		if err != nil {
			return fail(err), nil
		}
		out := MoveWorksheetOutput{
			Envelope:  ok(fmt.Sprintf("Moved worksheet '%s' to position %d", in.SheetName, in.Index)),
			SheetName: in.SheetName,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(moveTool)

	getTool := mcp.NewTool(
		d.name("get_worksheet"),
		mcp.WithDescription("Return a worksheet's metadata: position, dimensions, and populated range"),
		mcp.WithInputSchema[GetWorksheetInput](),
		mcp.WithOutputSchema[GetWorksheetOutput](),
	)
	s.AddTool(getTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in GetWorksheetInput) (*mcp.CallToolResult, error) {
		if res := checkInput(in); res != nil {
			return res, nil
		}
		var meta *sheets.Meta
		err := d.Store.View(ctx, in.Filename, func(f *excelize.File) error {
			var err error
			meta, err = sheets.Get(f, in.SheetName)
			return err
		})
		if err != nil {
			return fail(err), nil
		}
		out := GetWorksheetOutput{
			Envelope: ok(fmt.Sprintf("Retrieved worksheet '%s'", in.SheetName)),
			Sheet:    meta,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(getTool)

	listTool := mcp.NewTool(
		d.name("list_worksheets"),
		mcp.WithDescription("List the worksheet names of a workbook in sheet order"),
		mcp.WithInputSchema[ListWorksheetsInput](),
		mcp.WithOutputSchema[ListWorksheetsOutput](),
	)
	s.AddTool(listTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ListWorksheetsInput) (*mcp.CallToolResult, error) {
		if res := checkInput(in); res != nil {
			return res, nil
		}
		var names []string
		err := d.Store.View(ctx, in.Filename, func(f *excelize.File) error {
			names = sheets.Names(f)
			return nil
		})
		if err != nil {
			return fail(err), nil
		}
		out := ListWorksheetsOutput{
			Envelope: ok(fmt.Sprintf("Listed worksheets in '%s'", in.Filename)),
			Sheets:   names,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(listTool)
}
