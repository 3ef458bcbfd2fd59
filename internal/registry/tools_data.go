package registry

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xuri/excelize/v2"

	"github.com/sheetkit/excel-mcp-server/internal/addr"
	"github.com/sheetkit/excel-mcp-server/internal/data"
	"github.com/sheetkit/excel-mcp-server/internal/sheets"
	"github.com/sheetkit/excel-mcp-server/pkg/pagination"
	"github.com/sheetkit/excel-mcp-server/pkg/xlerr"
)

// ReadDataInput defines parameters for reading tabular data.
type ReadDataInput struct {
	Filename    string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName   string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet name"`
	StartCell   string `json:"start_cell,omitempty" validate:"omitempty,cellref" jsonschema_description:"Top-left cell of the read (default A1)"`
	EndCell     string `json:"end_cell,omitempty" validate:"omitempty,cellref" jsonschema_description:"Bottom-right cell of the read (default: the sheet's populated extent)"`
	PreviewOnly bool   `json:"preview_only,omitempty" jsonschema_description:"Return only the leading preview rows"`
	Cursor      string `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"Opaque token from a previous truncated read; resumes that read"`
}

// ReadMeta describes the shape and continuation state of one read page.
type ReadMeta struct {
	Rows         int    `json:"rows"`
	Cols         int    `json:"cols"`
	Range        string `json:"range,omitempty"`
	Preview      bool   `json:"preview,omitempty"`
	Truncated    bool   `json:"truncated,omitempty"`
	ApproxTokens int    `json:"approx_tokens"`
	NextCursor   string `json:"next_cursor,omitempty"`
}

// ReadDataOutput documents the read_data response.
type ReadDataOutput struct {
	Envelope
	Data [][]string `json:"data"`
	Meta *ReadMeta  `json:"meta,omitempty"`
}

// WriteDataInput defines parameters for writing tabular data.
type WriteDataInput struct {
	Filename  string  `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string  `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet name"`
	Data      [][]any `json:"data" jsonschema_description:"Row-major rectangle of values; strings starting with = are written as formulas"`
	StartCell string  `json:"start_cell,omitempty" validate:"omitempty,cellref" jsonschema_description:"Anchor cell (default: first row below the populated extent)"`
}

// WriteDataOutput documents the write_data response.
type WriteDataOutput struct {
	Envelope
	Written *data.WriteResult `json:"written,omitempty"`
}

// FilterRowsInput defines parameters for filtering rows by a header column.
type FilterRowsInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet name; row 1 must hold column headers"`
	Column    string `json:"column" validate:"required" jsonschema_description:"Header name of the column to match"`
	Value     string `json:"value" jsonschema_description:"Exact cell value to match (case-sensitive)"`
}

// FilterRowsOutput documents the filter_rows response.
type FilterRowsOutput struct {
	Envelope
	Headers   []string            `json:"headers,omitempty"`
	Rows      []map[string]string `json:"rows"`
	Truncated bool                `json:"truncated,omitempty"`
}

// RegisterDataTools wires the tabular read, write, and filter tools.
func RegisterDataTools(s *server.MCPServer, reg *Registry, d Deps) {
	readTool := mcp.NewTool(
		d.name("read_data"),
		mcp.WithDescription("Read cell values from a range as row-major strings; large ranges are paged under the cell budget and return a resume cursor"),
		mcp.WithInputSchema[ReadDataInput](),
		mcp.WithOutputSchema[ReadDataOutput](),
	)
	s.AddTool(readTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ReadDataInput) (*mcp.CallToolResult, error) {
		if res := checkInput(in); res != nil {
			return res, nil
		}

		sheet := in.SheetName
		preview := in.PreviewOnly
		offset := 0
		pageRows := 0
		var (
			r        addr.Range
			haveEnd  = in.EndCell != ""
			resuming = in.Cursor != ""
		)
		if resuming {
			// The token carries everything needed to resume: sheet,
			// range, offset, and page size. The filename must still
			// match, since cursors are bound to one workbook.
			cur, err := pagination.DecodeCursor(in.Cursor)
			if err != nil {
				return fail(xlerr.Validationf("%v", err)), nil
			}
			if cur.P != in.Filename {
				return fail(xlerr.Validationf("cursor was issued for workbook %q, not %q", cur.P, in.Filename)), nil
			}
			parsed, err := addr.ParseRange(cur.R)
			if err != nil {
				return fail(err), nil
			}
			sheet = cur.S
			r = parsed
			offset = cur.Off
			pageRows = cur.Ps
			preview = false
			haveEnd = true
		} else {
			startRef := in.StartCell
			if startRef == "" {
				startRef = "A1"
			}
			start, err := addr.ParseCellRef(startRef)
			if err != nil {
				return fail(err), nil
			}
			if haveEnd {
				end, err := addr.ParseCellRef(in.EndCell)
				if err != nil {
					return fail(err), nil
				}
				r = addr.NewRange(start, end)
			} else {
				r = addr.NewRange(start, start)
			}
		}

		previewRows := d.Settings.PreviewRows
		if previewRows <= 0 {
			previewRows = d.Limits.PreviewRowLimit
		}

		var slice *data.Slice
		noData := false
		err := d.Store.View(ctx, in.Filename, func(f *excelize.File) error {
			if !haveEnd {
				// No explicit end: read to the sheet's populated extent.
				used, okUsed, err := sheets.UsedRange(f, sheet)
				if err != nil {
					return err
				}
				if !okUsed {
					noData = true
					return nil
				}
				r = addr.NewRange(r.Start, used.End)
			}
			var err error
			slice, err = data.Read(f, sheet, r, data.Options{
				Offset:      offset,
				PageRows:    pageRows,
				MaxCells:    d.Limits.MaxCellsPerOp,
				Preview:     preview,
				PreviewRows: previewRows,
			})
			return err
		})
		if err != nil {
			return fail(err), nil
		}
		if noData || len(slice.Rows) == 0 {
			out := ReadDataOutput{
				Envelope: ok("No data found in specified range"),
				Data:     [][]string{},
			}
			return structured(out, out.Message), nil
		}

		out := ReadDataOutput{
			Envelope: ok("Data read successfully"),
			Data:     slice.Rows,
			Meta: &ReadMeta{
				Rows:      len(slice.Rows),
				Cols:      len(slice.Rows[0]),
				Range:     slice.Window.String(),
				Preview:   preview,
				Truncated: slice.Truncated,
			},
		}
		out.Meta.ApproxTokens = approxTokens(slice.Rows)
		if slice.Truncated && !preview {
			token, err := pagination.EncodeCursor(pagination.Cursor{
				P:   in.Filename,
				S:   sheet,
				R:   r.String(),
				U:   pagination.UnitRows,
				Off: slice.NextOffset,
				Ps:  slice.PageRows,
			})
			if err == nil {
				out.Meta.NextCursor = token
			}
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(readTool)

	writeTool := mcp.NewTool(
		d.name("write_data"),
		mcp.WithDescription("Write a rectangle of values starting at an anchor cell; omitting the anchor appends below the existing data"),
		mcp.WithInputSchema[WriteDataInput](),
		mcp.WithOutputSchema[WriteDataOutput](),
	)
	s.AddTool(writeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in WriteDataInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		var explicit *addr.Cell
		if in.StartCell != "" {
			c, err := addr.ParseCellRef(in.StartCell)
			if err != nil {
				return fail(err), nil
			}
			explicit = &c
		}
		var result *data.WriteResult
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			start := addr.Cell{}
			if explicit != nil {
				start = *explicit
			} else {
				var err error
				start, err = data.NextAvailableCell(f, in.SheetName)
				if err != nil {
					return err
				}
			}
			var err error
			result, err = data.Write(f, in.SheetName, start, in.Data, d.Settings.MaxRowsPerSheet, d.Settings.MaxColumnsPerSheet)
			return err
		})
		if err != nil {
			return fail(err), nil
		}
		out := WriteDataOutput{
			Envelope: ok("Data written successfully"),
			Written:  result,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(writeTool)

	filterTool := mcp.NewTool(
		d.name("filter_rows"),
		mcp.WithDescription("Return the rows whose cell in a header-named column equals a value, as header-to-value mappings"),
		mcp.WithInputSchema[FilterRowsInput](),
		mcp.WithOutputSchema[FilterRowsOutput](),
	)
	s.AddTool(filterTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in FilterRowsInput) (*mcp.CallToolResult, error) {
		if res := checkInput(in); res != nil {
			return res, nil
		}
		var result *data.FilterResult
		err := d.Store.View(ctx, in.Filename, func(f *excelize.File) error {
			var err error
			result, err = data.FilterRows(f, in.SheetName, map[string]string{in.Column: in.Value}, d.Limits.MaxCellsPerOp)
			return err
		})
		if err != nil {
			return fail(err), nil
		}
		out := FilterRowsOutput{
			Envelope:  ok(fmt.Sprintf("Found %d matching rows", len(result.Rows))),
			Headers:   result.Headers,
			Rows:      result.Rows,
			Truncated: result.Truncated,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(filterTool)
}
