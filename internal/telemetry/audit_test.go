package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuditor_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	a, err := NewAuditor(dir)
	require.NoError(t, err)
	defer a.Close()

	a.Event("merge_range", "report.xlsx", "Sheet1", map[string]string{"range": "A1:B2"})
	a.Event("delete_range", "report.xlsx", "Sheet1", map[string]string{"range": "C1:C5", "shift": "up"})
	require.NoError(t, a.Close())

	f, err := os.Open(filepath.Join(dir, AuditFileName))
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.NoError(t, sc.Err())
	require.Len(t, lines, 2)

	first := lines[0]
	require.Equal(t, "merge_range", first["action"])
	require.Equal(t, "report.xlsx", first["file"])
	require.Equal(t, "Sheet1", first["sheet"])
	require.Equal(t, "A1:B2", first["range"])
	require.NotEmpty(t, first["event_id"])
	require.NotEmpty(t, first["time"])

	second := lines[1]
	require.Equal(t, "delete_range", second["action"])
	require.Equal(t, "up", second["shift"])
	require.NotEqual(t, first["event_id"], second["event_id"])
}

func TestAuditor_DisabledIsNoOp(t *testing.T) {
	a, err := NewAuditor("")
	require.NoError(t, err)
	// Must not panic and must not create anything.
	a.Event("merge_range", "x.xlsx", "S", nil)
	require.NoError(t, a.Close())

	var nilAuditor *Auditor
	nilAuditor.Event("merge_range", "x.xlsx", "S", nil)
}
