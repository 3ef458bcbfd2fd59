package registry

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xuri/excelize/v2"

	"github.com/sheetkit/excel-mcp-server/internal/addr"
	"github.com/sheetkit/excel-mcp-server/internal/ranges"
)

// CopyRangeInput defines parameters for copying a cell range.
type CopyRangeInput struct {
	Filename    string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName   string `json:"sheet_name" validate:"required" jsonschema_description:"Source worksheet name"`
	SourceStart string `json:"source_start" validate:"required,cellref" jsonschema_description:"Top-left cell of the source range (e.g. A1)"`
	SourceEnd   string `json:"source_end" validate:"required,cellref" jsonschema_description:"Bottom-right cell of the source range (e.g. C10)"`
	TargetStart string `json:"target_start" validate:"required,cellref" jsonschema_description:"Top-left cell the copy is anchored at"`
	TargetSheet string `json:"target_sheet,omitempty" validate:"omitempty" jsonschema_description:"Target worksheet (defaults to the source sheet)"`
}

// CopyRangeOutput documents the copy_range response.
type CopyRangeOutput struct {
	Envelope
}

// DeleteRangeInput defines parameters for deleting a cell range.
type DeleteRangeInput struct {
	Filename       string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName      string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet name"`
	StartCell      string `json:"start_cell" validate:"required,cellref" jsonschema_description:"Top-left cell of the range"`
	EndCell        string `json:"end_cell" validate:"required,cellref" jsonschema_description:"Bottom-right cell of the range"`
	ShiftDirection string `json:"shift_direction,omitempty" validate:"omitempty,oneof=up left" jsonschema_description:"How remaining cells close the gap: up or left (default up)"`
}

// DeleteRangeOutput documents the delete_range response.
type DeleteRangeOutput struct {
	Envelope
}

// MoveRangeInput defines parameters for moving a cell range.
type MoveRangeInput struct {
	Filename    string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName   string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet name"`
	SourceRange string `json:"source_range" validate:"required" jsonschema_description:"Range to move (e.g. A1:C10)"`
	TargetRange string `json:"target_range" validate:"required" jsonschema_description:"Destination range; only its top-left cell anchors the move"`
}

// MoveRangeOutput documents the move_range response.
type MoveRangeOutput struct {
	Envelope
}

// MergeRangeInput defines parameters for merging a cell range.
type MergeRangeInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet name"`
	StartCell string `json:"start_cell" validate:"required,cellref" jsonschema_description:"Top-left cell of the range"`
	EndCell   string `json:"end_cell" validate:"required,cellref" jsonschema_description:"Bottom-right cell of the range"`
}

// MergeRangeOutput documents the merge_range response.
type MergeRangeOutput struct {
	Envelope
}

// UnmergeRangeInput defines parameters for unmerging a cell range.
type UnmergeRangeInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet name"`
	StartCell string `json:"start_cell" validate:"required,cellref" jsonschema_description:"Top-left cell of the merged range"`
	EndCell   string `json:"end_cell" validate:"required,cellref" jsonschema_description:"Bottom-right cell of the merged range"`
}

// UnmergeRangeOutput documents the unmerge_range response.
type UnmergeRangeOutput struct {
	Envelope
}

// ValidateRangeInput defines parameters for validating a range string.
type ValidateRangeInput struct {
	Filename  string `json:"filename" validate:"required,filepath_ext" jsonschema_description:"Workbook filename"`
	SheetName string `json:"sheet_name" validate:"required" jsonschema_description:"Worksheet name"`
	Range     string `json:"range" validate:"required" jsonschema_description:"A1-style range to validate (e.g. A1:C10)"`
}

// ValidateRangeOutput documents the validate_range response.
type ValidateRangeOutput struct {
	Envelope
	RangeInfo *ranges.Info `json:"range_info,omitempty"`
}

// RegisterRangeTools wires the range manipulation tools.
func RegisterRangeTools(s *server.MCPServer, reg *Registry, d Deps) {
	copyTool := mcp.NewTool(
		d.name("copy_range"),
		mcp.WithDescription("Copy a rectangular range, including values, formulas, and styles, to a target anchor cell in the same or another worksheet"),
		mcp.WithInputSchema[CopyRangeInput](),
		mcp.WithOutputSchema[CopyRangeOutput](),
	)
	s.AddTool(copyTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CopyRangeInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		src, targetStart, res := parseCorners(in.SourceStart, in.SourceEnd, in.TargetStart)
		if res != nil {
			return res, nil
		}
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return ranges.Copy(f, in.SheetName, src, in.TargetSheet, targetStart)
		})
		if err != nil {
			return fail(err), nil
		}
		d.Audit.Event("copy_range", in.Filename, in.SheetName, map[string]string{
			"source_range": src.String(),
			"target_start": targetStart.Name(),
			"target_sheet": in.TargetSheet,
		})
		out := CopyRangeOutput{
			Envelope: ok(fmt.Sprintf("Copied range %s:%s to %s", in.SourceStart, in.SourceEnd, in.TargetStart)),
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(copyTool)

	deleteTool := mcp.NewTool(
		d.name("delete_range"),
		mcp.WithDescription("Clear a rectangular range and close the gap by shifting cells up or left"),
		mcp.WithInputSchema[DeleteRangeInput](),
		mcp.WithOutputSchema[DeleteRangeOutput](),
	)
	s.AddTool(deleteTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in DeleteRangeInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		r, res := parseRangeCells(in.StartCell, in.EndCell)
		if res != nil {
			return res, nil
		}
		shift := in.ShiftDirection
		if shift == "" {
			shift = ranges.ShiftUp
		}
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return ranges.Delete(f, in.SheetName, r, shift)
		})
		if err != nil {
			return fail(err), nil
		}
		d.Audit.Event("delete_range", in.Filename, in.SheetName, map[string]string{
			"start_cell": in.StartCell,
			"end_cell":   in.EndCell,
			"shift":      shift,
		})
		out := DeleteRangeOutput{
			Envelope: ok(fmt.Sprintf("Deleted range %s:%s", in.StartCell, in.EndCell)),
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(deleteTool)

	moveTool := mcp.NewTool(
		d.name("move_range"),
		mcp.WithDescription("Move a range to the anchor of a target range within the same worksheet; the copy and the source removal persist as two separate saves"),
		mcp.WithInputSchema[MoveRangeInput](),
		mcp.WithOutputSchema[MoveRangeOutput](),
	)
	s.AddTool(moveTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in MoveRangeInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		src, err := addr.ParseRange(in.SourceRange)
		if err != nil {
			return fail(err), nil
		}
		tgt, err := addr.ParseRange(in.TargetRange)
		if err != nil {
			return fail(err), nil
		}
		// Copy first, then remove the source; each step saves on its
		// own, so a failure in between leaves the source duplicated.
		err = d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return ranges.Copy(f, in.SheetName, src, "", tgt.Start)
		})
		if err != nil {
			return fail(err), nil
		}
		err = d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return ranges.Delete(f, in.SheetName, src, ranges.ShiftUp)
		})
		if err != nil {
			return fail(err), nil
		}
		d.Audit.Event("move_range", in.Filename, in.SheetName, map[string]string{
			"source_range": in.SourceRange,
			"target_range": in.TargetRange,
		})
		out := MoveRangeOutput{
			Envelope: ok(fmt.Sprintf("Moved range '%s' to '%s' in '%s'", in.SourceRange, in.TargetRange, in.SheetName)),
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(moveTool)

	mergeTool := mcp.NewTool(
		d.name("merge_range"),
		mcp.WithDescription("Merge a rectangular range into one cell; only the top-left value is kept"),
		mcp.WithInputSchema[MergeRangeInput](),
		mcp.WithOutputSchema[MergeRangeOutput](),
	)
	s.AddTool(mergeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in MergeRangeInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		r, res := parseRangeCells(in.StartCell, in.EndCell)
		if res != nil {
			return res, nil
		}
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return ranges.Merge(f, in.SheetName, r)
		})
		if err != nil {
			return fail(err), nil
		}
		d.Audit.Event("merge", in.Filename, in.SheetName, map[string]string{
			"start_cell": in.StartCell,
			"end_cell":   in.EndCell,
			"range":      r.String(),
		})
		out := MergeRangeOutput{
			Envelope: ok(fmt.Sprintf("Merged range %s:%s", in.StartCell, in.EndCell)),
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(mergeTool)

	unmergeTool := mcp.NewTool(
		d.name("unmerge_range"),
		mcp.WithDescription("Unmerge a previously merged range; the range must match the merged area exactly"),
		mcp.WithInputSchema[UnmergeRangeInput](),
		mcp.WithOutputSchema[UnmergeRangeOutput](),
	)
	s.AddTool(unmergeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in UnmergeRangeInput) (*mcp.CallToolResult, error) {
		if res := d.denyWrites(); res != nil {
			return res, nil
		}
		if res := checkInput(in); res != nil {
			return res, nil
		}
		r, res := parseRangeCells(in.StartCell, in.EndCell)
		if res != nil {
			return res, nil
		}
		err := d.Store.Update(ctx, in.Filename, func(f *excelize.File) error {
			return ranges.Unmerge(f, in.SheetName, r)
		})
		if err != nil {
			return fail(err), nil
		}
		d.Audit.Event("unmerge", in.Filename, in.SheetName, map[string]string{
			"start_cell": in.StartCell,
			"end_cell":   in.EndCell,
			"range":      r.String(),
		})
		out := UnmergeRangeOutput{
			Envelope: ok(fmt.Sprintf("Unmerged range %s:%s", in.StartCell, in.EndCell)),
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(unmergeTool)

	validateTool := mcp.NewTool(
		d.name("validate_range"),
		mcp.WithDescription("Check that an A1-style range is well-formed and inside the sheet's populated extent, and report its shape"),
		mcp.WithInputSchema[ValidateRangeInput](),
		mcp.WithOutputSchema[ValidateRangeOutput](),
	)
	s.AddTool(validateTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ValidateRangeInput) (*mcp.CallToolResult, error) {
		if res := checkInput(in); res != nil {
			return res, nil
		}
		var info *ranges.Info
		err := d.Store.View(ctx, in.Filename, func(f *excelize.File) error {
			var err error
			info, err = ranges.Validate(f, in.SheetName, in.Range)
			return err
		})
		if err != nil {
			return fail(err), nil
		}
		out := ValidateRangeOutput{
			Envelope:  ok(fmt.Sprintf("Range '%s' is valid", in.Range)),
			RangeInfo: info,
		}
		return structured(out, out.Message), nil
	}))
	reg.Register(validateTool)
}

// parseCorners parses the two source corners plus the target anchor.
func parseCorners(sourceStart, sourceEnd, targetStart string) (addr.Range, addr.Cell, *mcp.CallToolResult) {
	start, err := addr.ParseCellRef(sourceStart)
	if err != nil {
		return addr.Range{}, addr.Cell{}, fail(err)
	}
	end, err := addr.ParseCellRef(sourceEnd)
	if err != nil {
		return addr.Range{}, addr.Cell{}, fail(err)
	}
	target, err := addr.ParseCellRef(targetStart)
	if err != nil {
		return addr.Range{}, addr.Cell{}, fail(err)
	}
	return addr.NewRange(start, end), target, nil
}

// parseRangeCells builds a normalized range from two corner cells.
func parseRangeCells(startCell, endCell string) (addr.Range, *mcp.CallToolResult) {
	start, err := addr.ParseCellRef(startCell)
	if err != nil {
		return addr.Range{}, fail(err)
	}
	end, err := addr.ParseCellRef(endCell)
	if err != nil {
		return addr.Range{}, fail(err)
	}
	return addr.NewRange(start, end), nil
}
