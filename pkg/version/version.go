package version

import (
	"os"
	"runtime/debug"
)

var version = "0.1.0"

// Version resolves the server version: the EXCEL_MCP_SERVER_VERSION
// environment variable wins, then module build info, then the default
// baked in at compile time (overridable via -ldflags).
func Version() string {
	if v := os.Getenv("EXCEL_MCP_SERVER_VERSION"); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}

// Set assigns the exported version when ldflags are not provided (e.g. local dev).
func Set(v string) {
	if v != "" {
		version = v
	}
}
