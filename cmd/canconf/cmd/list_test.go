package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `{"events": [
  {"name": "Collision", "date": "June 17-20, 2024", "location": "Toronto, ON", "province": "ON", "type": "conference", "tags": ["startups"]},
  {"name": "Hack the North", "date": "September 12-14, 2025", "location": "Waterloo, ON", "province": "ON", "type": "hackathon", "tags": ["student"], "isStudentFocused": true},
  {"name": "Web Summit Vancouver", "date": "May 27-30, 2025", "location": "Vancouver, BC", "province": "BC", "type": "conference"},
  {"name": "Go Halifax", "date": "August 5, 2025", "location": "Halifax, NS", "province": "NS", "type": "meetup"},
  {"name": "Mystery Hack", "date": "Coming soon", "location": "Ottawa, ON", "province": "ON", "type": "hackathon"},
  {"name": "Far Future Summit", "date": "March 3, 2099", "location": "Montréal, QC", "province": "QC", "type": "conference", "website": "https://example.com/ffs"}
]}`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	return path
}

// run executes the CLI and returns stdout; logs go to a separate buffer.
func run(t *testing.T, o *options, args ...string) (string, error) {
	t.Helper()
	if o == nil {
		o = &options{}
	}
	root := newRootCommandWith(o)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func column(out string, col int) []string {
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Split(line, "  ")
		var kept []string
		for _, f := range fields {
			if f = strings.TrimSpace(f); f != "" {
				kept = append(kept, f)
			}
		}
		if len(kept) > col {
			names = append(names, kept[col])
		}
	}
	return names
}

func TestListUpcoming(t *testing.T) {
	path := writeCatalog(t)

	out, err := run(t, nil, "list", "--catalog", path, "--today", "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, []string{"Go Halifax", "Hack the North", "Far Future Summit", "Mystery Hack"}, column(out, 1))
	assert.Equal(t, []string{"2025-08-05", "2025-09-12", "2099-03-03", "TBD"}, column(out, 0))
}

func TestListPast(t *testing.T) {
	path := writeCatalog(t)

	out, err := run(t, nil, "list", "--catalog", path, "--today", "2025-06-01", "--past")
	require.NoError(t, err)
	assert.Equal(t, []string{"Web Summit Vancouver", "Collision"}, column(out, 1))
}

func TestListEventOnReferenceDayIsUpcoming(t *testing.T) {
	path := writeCatalog(t)

	out, err := run(t, nil, "list", "--catalog", path, "--today", "2025-08-05", "--type", "meetup")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Halifax"}, column(out, 1))

	out, err = run(t, nil, "list", "--catalog", path, "--today", "2025-08-06", "--type", "meetup")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestListFiltersJSON(t *testing.T) {
	path := writeCatalog(t)

	out, err := run(t, nil, "list", "--catalog", path, "--today", "2025-06-01",
		"--province", "on", "--query", "hack", "--json")
	require.NoError(t, err)

	var doc struct {
		Events []struct {
			Name string `json:"name"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Events, 2)
	assert.Equal(t, "Hack the North", doc.Events[0].Name)
	assert.Equal(t, "Mystery Hack", doc.Events[1].Name)
}

func TestListErrors(t *testing.T) {
	path := writeCatalog(t)

	_, err := run(t, nil, "list", "--catalog", path, "--today", "06/01/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--today must be YYYY-MM-DD")

	_, err = run(t, nil, "list", "--catalog", path, "--type", "workshop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown event type "workshop"`)

	_, err = run(t, nil, "list", "--catalog", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
