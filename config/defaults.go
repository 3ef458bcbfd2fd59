package config

import "time"

// Default settings and runtime guardrails for the Excel MCP server.
// Environment variables override the Settings block; the limits below
// are referenced by internal/runtime.

const (
	DefaultFilesDir   = "excel_files"
	DefaultLogDir     = "logs"
	DefaultLogLevel   = "INFO"
	DefaultHost       = "localhost"
	DefaultPort       = 8000
	DefaultToolPrefix = "excel_"

	// Sheet geometry caps (XLSX hard limits)
	DefaultMaxRowsPerSheet    = 1_048_576
	DefaultMaxColumnsPerSheet = 16_384
)

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxOpenWorkbooks      = 4

	// Payload and row limits
	DefaultMaxCellsPerOp   = 10_000
	DefaultPreviewRowLimit = 10 // First 10 rows by default
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
)
