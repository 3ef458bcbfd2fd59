package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sheetkit/excel-mcp-server/pkg/validation"
)

// Settings is the environment-driven server configuration. Every knob
// has a default so a bare environment yields a working server rooted
// at ./excel_files.
type Settings struct {
	// FilesDir is the directory all workbook paths resolve under.
	FilesDir string `validate:"required"`
	// LogDir receives the service log and the audit trail.
	LogDir   string `validate:"required"`
	LogLevel string `validate:"oneof=DEBUG INFO WARNING ERROR CRITICAL"`

	// SSE transport bind address.
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`

	// ToolPrefix is prepended to every registered tool name.
	ToolPrefix string

	// Advisory sheet geometry caps for bounds validation. These may be
	// lowered below the XLSX hard limits to keep payloads tractable.
	MaxRowsPerSheet    int `validate:"min=1,max=1048576"`
	MaxColumnsPerSheet int `validate:"min=1,max=16384"`

	// ReadOnly hides mutating tools from discovery and rejects their use.
	ReadOnly bool

	// PreviewRows caps rows returned when a read requests preview_only.
	PreviewRows int `validate:"min=1"`
}

// Load builds Settings from the environment, applying defaults and
// validating the result.
func Load() (*Settings, error) {
	s := &Settings{
		FilesDir:   getenvStr("EXCEL_MCP_FOLDER", DefaultFilesDir),
		LogDir:     getenvStr("EXCEL_MCP_LOG_FOLDER", DefaultLogDir),
		LogLevel:   strings.ToUpper(getenvStr("EXCEL_MCP_LOG_LEVEL", DefaultLogLevel)),
		Host:       getenvStr("EXCEL_MCP_SERVER_HOST", DefaultHost),
		ToolPrefix: getenvStr("EXCEL_MCP_SERVER_TOOL_PREFIX", DefaultToolPrefix),
	}
	var err error
	if s.Port, err = getenvInt("EXCEL_MCP_SERVER_PORT", DefaultPort); err != nil {
		return nil, err
	}
	if s.MaxRowsPerSheet, err = getenvInt("EXCEL_MCP_MAX_ROWS_PER_SHEET", DefaultMaxRowsPerSheet); err != nil {
		return nil, err
	}
	if s.MaxColumnsPerSheet, err = getenvInt("EXCEL_MCP_MAX_COLUMNS_PER_SHEET", DefaultMaxColumnsPerSheet); err != nil {
		return nil, err
	}
	if s.ReadOnly, err = getenvBool("EXCEL_MCP_READ_ONLY", false); err != nil {
		return nil, err
	}
	if s.PreviewRows, err = getenvInt("EXCEL_MCP_PREVIEW_ROWS", DefaultPreviewRowLimit); err != nil {
		return nil, err
	}
	if msg := validation.ValidateStruct(s); msg != "" {
		return nil, fmt.Errorf("config: %s", msg)
	}
	return s, nil
}

// Addr renders the SSE bind address as host:port.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ZerologLevel maps the configured level name onto zerolog's scale.
func (s *Settings) ZerologLevel() zerolog.Level {
	switch s.LogLevel {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "CRITICAL":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func getenvStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid integer %q", key, v)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: invalid boolean %q", key, v)
	}
	return b, nil
}
