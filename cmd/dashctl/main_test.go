package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/dashboard-builder/internal/handlers"
	"github.com/GregMSThompson/dashboard-builder/internal/response"
	"github.com/GregMSThompson/dashboard-builder/internal/router"
	"github.com/GregMSThompson/dashboard-builder/internal/services"
	"github.com/GregMSThompson/dashboard-builder/internal/store"
	"github.com/GregMSThompson/dashboard-builder/pkg/helpers"
	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

const cliFixture = `{
  "widgets": [
    {"id": "1", "title": "Intro", "type": "custom-text", "source": "Hello there", "width": 100, "height": 120, "order": 2}
  ],
  "dataStream": [
    {"content": {"sourceIdentifier": "table-1", "title": "Sales", "columns": ["region", "total"], "rows": [["EU", 10]]}}
  ]
}`

func startGateway(t *testing.T) string {
	t.Helper()
	t.Setenv("CONFIGFILE", "")
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(cliFixture), 0o644))

	ws, err := store.OpenDocumentStore(helpers.TestCtx(), path)
	require.NoError(t, err)
	log := logger.New("error", logger.NewTestHandler)
	srv := httptest.NewServer(router.NewRouter(&handlers.Deps{
		Log:             log,
		ResponseHandler: response.New(log),
		WidgetSvc:       services.NewWidgetService(ws, nil),
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, url, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(append([]string{"--api-url", url, "--log-level", "error", "--delay", "0"}, args...))
	err := cmd.ExecuteContext(helpers.TestCtx())
	return out.String(), errOut.String(), err
}

func TestListAddDelete(t *testing.T) {
	url := startGateway(t)

	out, _, err := run(t, url, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Intro")
	assert.Contains(t, out, "revision 0")

	out, _, err = run(t, url, "", "add", "--type", "data-table", "--source", "table-1", "--order", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget added successfully")

	out, _, err = run(t, url, "", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[1], "Data Table", "highest order first")

	out, _, err = run(t, url, "n\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to delete this widget?")
	assert.NotContains(t, out, "Widget deleted successfully")

	out, _, err = run(t, url, "", "delete", "--yes", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget deleted successfully")
}

func TestRender(t *testing.T) {
	url := startGateway(t)

	_, _, err := run(t, url, "", "add", "--type", "data-table", "--title", "Sales", "--source", "table-1")
	require.NoError(t, err)

	out, _, err := run(t, url, "", "render", "--layout", "grid")
	require.NoError(t, err)
	assert.Contains(t, out, "grid-cols-2 lg:grid-cols-3")
	assert.Contains(t, out, "Hello there")
	assert.Contains(t, out, "EU")
}

func TestAddRejectedByServer(t *testing.T) {
	url := startGateway(t)

	_, errOut, err := run(t, url, "", "add", "--type", "chart", "--source", "chart-1", "--width", "500")
	require.Error(t, err)
	assert.Contains(t, errOut, "Failed to add widget. Please try again later.")
}

func TestCatalogs(t *testing.T) {
	out, _, err := run(t, "http://127.0.0.1:0", "", "types")
	require.NoError(t, err)
	assert.Contains(t, out, "Chart Widget")

	out, _, err = run(t, "http://127.0.0.1:0", "", "layouts")
	require.NoError(t, err)
	assert.Contains(t, out, "3-columns")
}
