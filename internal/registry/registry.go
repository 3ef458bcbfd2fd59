// Package registry defines the MCP tool surface: typed input/output
// schemas for every tool, handler wiring against the workbook store,
// and the uniform success/message envelope each response carries.
package registry

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tmc/langchaingo/llms"

	"github.com/sheetkit/excel-mcp-server/config"
	"github.com/sheetkit/excel-mcp-server/internal/runtime"
	"github.com/sheetkit/excel-mcp-server/internal/telemetry"
	"github.com/sheetkit/excel-mcp-server/internal/workbooks"
	"github.com/sheetkit/excel-mcp-server/pkg/validation"
	"github.com/sheetkit/excel-mcp-server/pkg/xlerr"
)

// tokenModel is the reference model used to approximate the token
// footprint of read payloads.
const tokenModel = "gpt-4o"

// ToolProvider resolves MCP tool definitions.
type ToolProvider interface {
	Tools(context.Context) ([]mcp.Tool, error)
}

// Registry maintains tool definitions for discovery and bootstrap
// reporting.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]mcp.Tool
}

// New constructs an empty Registry ready for tool population.
func New() *Registry {
	return &Registry{
		tools: map[string]mcp.Tool{},
	}
}

// Register stores a tool definition for discovery.
func (r *Registry) Register(tool mcp.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name] = tool
}

// Get returns a tool by name when present.
func (r *Registry) Get(name string) (mcp.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns a stable-sorted list of registered tool definitions.
func (r *Registry) Tools(ctx context.Context) ([]mcp.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_ = ctx // reserved for future context-aware filtering

	tools := make([]mcp.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	return tools, nil
}

// ModelContextSize exposes a model's context window size when known.
func (r *Registry) ModelContextSize(modelName string) int {
	return llms.GetModelContextSize(modelName)
}

// Deps bundles the collaborators every tool handler needs.
type Deps struct {
	Store    *workbooks.Store
	Limits   runtime.Limits
	Settings *config.Settings
	Audit    *telemetry.Auditor
}

// name applies the configured tool name prefix to a base tool name.
func (d Deps) name(base string) string {
	return d.Settings.ToolPrefix + base
}

// denyWrites returns a failure result when the server runs in
// read-only mode. Mutating handlers call it first so direct
// invocations are refused, not just hidden from discovery.
func (d Deps) denyWrites() *mcp.CallToolResult {
	if d.Settings.ReadOnly {
		return fail(xlerr.Validationf("server is running in read-only mode"))
	}
	return nil
}

// RegisterAll wires every tool group onto the server.
func RegisterAll(s *server.MCPServer, reg *Registry, d Deps) {
	RegisterWorkbookTools(s, reg, d)
	RegisterSheetTools(s, reg, d)
	RegisterRangeTools(s, reg, d)
	RegisterDataTools(s, reg, d)
}

// Envelope is the uniform header of every tool response.
type Envelope struct {
	Success bool   `json:"success" jsonschema_description:"True when the operation completed"`
	Message string `json:"message" jsonschema_description:"Human-readable result description"`
}

// ok builds a success envelope.
func ok(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

// fail normalizes any error into a failure envelope. The response
// carries the envelope as structured content and is flagged as an
// error for MCP clients; the message is the prefix-free error text.
func fail(err error) *mcp.CallToolResult {
	msg := xlerr.Message(err)
	res := mcp.NewToolResultStructured(Envelope{Success: false, Message: msg}, msg)
	res.IsError = true
	return res
}

// checkInput validates a tool input struct and reports the failure as
// an envelope result, or nil when the input is valid.
func checkInput(in any) *mcp.CallToolResult {
	if msg := validation.ValidateStruct(in); msg != "" {
		return fail(xlerr.Validationf("%s", msg))
	}
	return nil
}

// structured builds a success result with a text fallback for clients
// that ignore structured content.
func structured(out any, summary string) *mcp.CallToolResult {
	res := mcp.NewToolResultStructured(out, summary)
	res.Content = []mcp.Content{mcp.NewTextContent(summary)}
	return res
}

// approxTokens estimates the token footprint of a JSON payload.
func approxTokens(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return llms.CountTokens(tokenModel, string(b))
}
