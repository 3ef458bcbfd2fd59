package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuditFileName is the fixed name of the audit trail inside the log directory.
const AuditFileName = "excel-mcp-audit.log"

// Auditor appends one JSON line per mutating range operation to the
// audit trail. Events carry a fresh UUID so external systems can
// deduplicate. The trail is advisory: failures to record are logged by
// callers, never surfaced to tool clients.
type Auditor struct {
	log     zerolog.Logger
	enabled bool
	closer  io.Closer
}

// NewAuditor opens (or creates) the audit trail under logDir. An empty
// logDir yields a disabled auditor whose Event calls are no-ops.
func NewAuditor(logDir string) (*Auditor, error) {
	if logDir == "" {
		return &Auditor{}, nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create log dir %q: %w", logDir, err)
	}
	path := filepath.Join(logDir, AuditFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open audit trail %q: %w", path, err)
	}
	return &Auditor{
		log:     zerolog.New(f).With().Timestamp().Logger(),
		enabled: true,
		closer:  f,
	}, nil
}

// Event records one mutating operation. Extra parameters are emitted in
// sorted key order so lines are stable for downstream diffing.
func (a *Auditor) Event(action, file, sheet string, params map[string]string) {
	if a == nil || !a.enabled {
		return
	}
	evt := a.log.Info().
		Str("event_id", uuid.NewString()).
		Str("action", action).
		Str("file", file)
	if sheet != "" {
		evt = evt.Str("sheet", sheet)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		evt = evt.Str(k, params[k])
	}
	evt.Msg("audit")
}

// Close releases the underlying file handle.
func (a *Auditor) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
