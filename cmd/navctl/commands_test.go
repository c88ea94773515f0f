package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/navcore/internal/catalog"
	"github.com/dgallion1/navcore/internal/flatten"
	"github.com/dgallion1/navcore/internal/secondary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuMD = "# Main\n" +
	"- [Outages](/outages)\n" +
	"  - [Map](/outages/map) `NC01`\n" +
	"  - [Report](/outages/report)\n" +
	"    - [Form](/outages/report/form)\n"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFlattenCommand(t *testing.T) {
	path := writeSource(t, "main.md", menuMD)

	out, _, err := run(t, "flatten", path, "--max-depth", "1")
	require.NoError(t, err)

	var nodes []*flatten.Node
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Subpages, 1, "NC01 item hidden without jurisdiction")
	assert.Equal(t, "/outages/report", nodes[0].Subpages[0].Page.Href)
	assert.Empty(t, nodes[0].Subpages[0].Subpages)

	out, _, err = run(t, "flatten", path, "-j", "nc01")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	assert.Len(t, nodes[0].Subpages, 2)
}

func TestFlattenCommandErrors(t *testing.T) {
	path := writeSource(t, "main.md", menuMD)

	_, _, err := run(t, "flatten", path, "-j", "ZZ01")
	assert.ErrorContains(t, err, "unknown jurisdiction")

	_, _, err = run(t, "flatten", filepath.Join(t.TempDir(), "notes.txt"))
	assert.Error(t, err)

	_, _, err = run(t, "flatten")
	assert.Error(t, err)
}

func TestSecondaryCommand(t *testing.T) {
	md := "- [Outages](/outages)\n  - [Map](/outages/map)\n"
	// Secondary navigation needs the CMS flag, so use JSON.
	js := `{"fields": {"items": [{"fields": {
		"Page": {"value": {"href": "/outages", "text": "Outages"}},
		"Jurisdictions": [],
		"Show In Secondary Nav": {"value": true}
	}}]}}`
	jsonPath := writeSource(t, "main.json", js)

	out, _, err := run(t, "secondary", jsonPath, "--path", "/outages/map")
	require.NoError(t, err)
	var res secondary.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Headline)
	assert.Equal(t, "/outages", res.Headline.Route)

	mdPath := writeSource(t, "main.md", md)
	out, _, err = run(t, "secondary", mdPath, "--path", "/outages")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Nil(t, res.Headline, "markdown items are not flagged for secondary nav")

	_, _, err = run(t, "secondary", jsonPath)
	assert.ErrorContains(t, err, "--path is required")
}

func TestSecondaryCommandMalformedJSON(t *testing.T) {
	path := writeSource(t, "bad.json", `{"fields": {"items": "nope"}}`)

	out, errOut, err := run(t, "secondary", path, "--path", "/x")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": [], "headline": null}`, out)
	assert.Contains(t, errOut, "secondary nav: decode component")
}

func TestSourcesCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.md"), []byte(menuMD), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "footer.csv"), []byte("level,text,href\n1,Contact,/contact\n"), 0o644))

	out, _, err := run(t, "sources", dir)
	require.NoError(t, err)

	var list []catalog.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "footer", list[0].Name)
	assert.Equal(t, 1, list[0].ItemCount)
	assert.Equal(t, "main", list[1].Name)
	assert.Equal(t, 4, list[1].ItemCount)
	assert.True(t, strings.HasSuffix(list[1].Path, "main.md"))
}
