package registry

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sheetkit/excel-mcp-server/config"
)

// mutatingTools lists the base names of tools that change workbook
// state. They are hidden from discovery and refused by denyWrites when
// the server runs in read-only mode.
var mutatingTools = map[string]struct{}{
	"create_workbook":  {},
	"create_worksheet": {},
	"delete_worksheet": {},
	"rename_worksheet": {},
	"copy_worksheet":   {},
	"move_worksheet":   {},
	"copy_range":       {},
	"delete_range":     {},
	"move_range":       {},
	"merge_range":      {},
	"unmerge_range":    {},
	"write_data":       {},
}

// ReadOnlyFilter hides mutating tools from discovery when read-only
// mode is enabled.
type ReadOnlyFilter struct {
	prefix   string
	readOnly bool
}

// NewReadOnlyFilter builds a filter from the loaded settings.
func NewReadOnlyFilter(cfg *config.Settings) *ReadOnlyFilter {
	return &ReadOnlyFilter{prefix: cfg.ToolPrefix, readOnly: cfg.ReadOnly}
}

// FilterTools implements server tool filtering semantics.
func (f *ReadOnlyFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if !f.readOnly {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if isMutating(f.prefix, t.Name) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// isMutating reports whether the (possibly prefixed) tool name mutates
// workbook state.
func isMutating(prefix, name string) bool {
	base := strings.TrimPrefix(name, prefix)
	_, mutating := mutatingTools[base]
	return mutating
}
