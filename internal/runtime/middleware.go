package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Middleware enforces runtime limits for tool calls using the Controller.
// It bounds global concurrency, applies an operation timeout to each
// call, and tags every call with a request ID for log correlation.
type Middleware struct {
	ctrl *Controller
	log  zerolog.Logger
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
func NewMiddleware(ctrl *Controller, log zerolog.Logger) *Middleware {
	return &Middleware{ctrl: ctrl, log: log}
}

// ToolMiddleware implements mcp-go's tool handler middleware interface.
// It acquires a request slot, applies a timeout, and guarantees release.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqID := uuid.NewString()
		logger := m.log.With().Str("request_id", reqID).Str("tool", req.Params.Name).Logger()
		ctx = logger.WithContext(ctx)

		// Attempt to acquire request capacity with a bounded wait.
		acquireCtx := ctx
		if m.ctrl.limits.AcquireRequestTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, m.ctrl.limits.AcquireRequestTimeout)
			defer cancel()
		}

		if err := m.ctrl.AcquireRequest(acquireCtx); err != nil {
			logger.Warn().Int("max_concurrent", m.ctrl.limits.MaxConcurrentRequests).Msg("request slot unavailable")
			// Return a tool-level error so the client can self-correct/retry.
			msg := fmt.Sprintf("concurrent request limit reached (max=%d); please retry shortly", m.ctrl.limits.MaxConcurrentRequests)
			return mcp.NewToolResultError(msg), nil
		}
		defer m.ctrl.ReleaseRequest()

		callCtx := ctx
		cancel := func() {}
		// Apply operation timeout to bound execution time.
		if m.ctrl.limits.OperationTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, m.ctrl.limits.OperationTimeout)
		}
		defer cancel()

		start := time.Now()
		res, err := next(callCtx, req)
		elapsed := time.Since(start)

		// If the underlying handler surfaced a context deadline, prefer a tool-level timeout error.
		if err == context.DeadlineExceeded || (callCtx.Err() == context.DeadlineExceeded && err == nil && res == nil) {
			logger.Warn().Dur("duration", elapsed).Msg("tool call timed out")
			return mcp.NewToolResultError("operation exceeded the configured time limit"), nil
		}

		evt := logger.Debug().Dur("duration", elapsed)
		if res != nil {
			evt = evt.Bool("is_error", res.IsError)
		}
		evt.Msg("tool call served")

		return res, err
	}
}
