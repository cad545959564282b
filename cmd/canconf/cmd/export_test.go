package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportICSStdout(t *testing.T) {
	path := writeCatalog(t)

	out, err := run(t, nil, "export-ics", "--catalog", path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	// Only the 2099 event is upcoming relative to the real clock and the
	// undated one has no day to export.
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Far Future Summit")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20990303")
	assert.NotContains(t, out, "Mystery Hack")
}

func TestExportICSAllToFile(t *testing.T) {
	path := writeCatalog(t)
	dest := filepath.Join(t.TempDir(), "events.ics")

	out, err := run(t, nil, "export-ics", "--catalog", path, "--all", "--out", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(data), "BEGIN:VEVENT"))
	assert.Contains(t, string(data), "SUMMARY:Collision")
}
