package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/graphload/internal/graph"
	"github.com/vanshika/graphload/internal/service"
)

type harness struct {
	dir    string
	client *graph.MemoryClient
	opened []graph.Options
	stdout bytes.Buffer
	stderr bytes.Buffer
	app    *app
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir(), client: graph.NewMemoryClient()}
	h.app = newApp(&h.stdout, &h.stderr)
	h.app.openClient = func(_ context.Context, opts graph.Options) (graph.Client, error) {
		h.opened = append(h.opened, opts)
		return h.client, nil
	}
	h.write(t, "conn.yaml", "hosts: [db1, db2]\nport: 7688\nusername: neo4j\npassword: pw\n")
	return h
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	base := []string{"--env-file", filepath.Join(h.dir, "missing.env")}
	return execute(context.Background(), h.app, append(base, args...))
}

func idResult(id string) graph.Result {
	return graph.Result{Records: []graph.Record{{"id": id}}}
}

func TestImportVertices(t *testing.T) {
	h := newHarness(t)
	csv := h.write(t, "people.csv", "label,name\nperson,Alice\nperson,Bob\n")
	h.client.PushWriteResult(idResult("4:a:1"))
	h.client.PushWriteResult(idResult("4:a:2"))

	code := h.run("import", "vertices", filepath.Join(h.dir, "conn.yaml"), csv, "--workers", "1")

	require.Equal(t, ExitSuccess, code, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "succeeded: 2")
	assert.Len(t, h.client.WriteCalls(), 2)
	assert.True(t, h.client.Closed())
	require.Len(t, h.opened, 1)
	assert.Equal(t, []string{"db1", "db2"}, h.opened[0].Endpoints)
	assert.Equal(t, 7688, h.opened[0].Port)
}

func TestImportEdgesUnresolvedThenRerun(t *testing.T) {
	h := newHarness(t)
	csv := h.write(t, "knows.csv", "from,to,relationship\nAlice,Zed,knows\n")
	report := filepath.Join(h.dir, "report.json")

	h.client.PushReadResult(idResult("4:a:1"))
	h.client.PushReadResult(graph.Result{})

	code := h.run("import", "edges", filepath.Join(h.dir, "conn.yaml"), csv,
		"--match-property", "name", "--workers", "1", "--report-out", report)

	require.Equal(t, ExitRecordFailures, code, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "UNRESOLVED_ENDPOINT")
	assert.Empty(t, h.client.WriteCalls())

	file, err := os.Open(report)
	require.NoError(t, err)
	indices, err := service.ReadFailedIndices(file, service.KindEdges)
	file.Close()
	require.NoError(t, err)
	assert.Equal(t, []int{0}, indices)

	h.client.PushReadResult(idResult("4:a:1"))
	h.client.PushReadResult(idResult("4:a:9"))
	h.client.PushWriteResult(idResult("5:a:1"))

	code = h.run("import", "edges", filepath.Join(h.dir, "conn.yaml"), csv,
		"--match-property", "name", "--rerun", report)

	require.Equal(t, ExitSuccess, code, h.stderr.String())
	require.Len(t, h.client.WriteCalls(), 1)
	assert.Equal(t, "4:a:1", h.client.WriteCalls()[0].Params["from"])
	assert.Equal(t, "4:a:9", h.client.WriteCalls()[0].Params["to"])
}

func TestImportConnectionFailureAborts(t *testing.T) {
	h := newHarness(t)
	csv := h.write(t, "people.csv", "label\nperson\n")
	h.app.openClient = func(context.Context, graph.Options) (graph.Client, error) {
		return nil, graph.ConnectionFailure("connect", errors.New("connection refused"))
	}

	code := h.run("import", "vertices", filepath.Join(h.dir, "conn.yaml"), csv, "--max-attempts", "1")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, h.stdout.String(), "skipped:   1")
	assert.Contains(t, h.stderr.String(), "open graph session")
}

func TestImportArgumentErrors(t *testing.T) {
	h := newHarness(t)
	csv := h.write(t, "people.csv", "name\nAlice\n")
	conn := filepath.Join(h.dir, "conn.yaml")

	cases := map[string][]string{
		"missing args":       {"import", "vertices", conn},
		"missing descriptor": {"import", "vertices", filepath.Join(h.dir, "nope.yaml"), csv},
		"missing csv":        {"import", "vertices", conn, filepath.Join(h.dir, "nope.csv")},
		"missing label":      {"import", "vertices", conn, csv},
		"bad id function":    {"import", "vertices", conn, csv, "--id-function", "uuid"},
		"bad rerun":          {"import", "vertices", conn, csv, "--rerun", filepath.Join(h.dir, "nope.json")},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, ExitError, h.run(args...))
			assert.NotEmpty(t, h.stderr.String())
		})
	}
	assert.Empty(t, h.opened)
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCodeOf(nil))
	assert.Equal(t, ExitError, exitCodeOf(errors.New("boom")))
	wrapped := withExitCode(ExitRecordFailures, errors.New("2 of 3 records failed"))
	assert.Equal(t, ExitRecordFailures, exitCodeOf(wrapped))
	assert.EqualError(t, wrapped, "2 of 3 records failed")
}
