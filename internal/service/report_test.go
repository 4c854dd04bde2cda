package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/graphload/internal/domain"
)

func sampleReport() ImportReport {
	results := []domain.ElementResult{
		domain.Success(0, "v1"),
		domain.Failure(1, domain.KindUnresolvedEndpoint, errors.New(`to "Zed": edge endpoint not resolved`)),
		{Index: 2},
		domain.Failure(3, domain.KindConnectionError, errors.New("connection reset")),
	}
	results[3].Attempts = 3
	report := ImportReport{
		RunID:     "run-1",
		Kind:      KindEdges,
		Total:     4,
		StartedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}
	summarize(&report, results, allIndices(4))
	return report
}

func TestSummarizeCounts(t *testing.T) {
	report := sampleReport()
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, []int{1, 3}, report.FailedIndices())
	assert.False(t, report.OK())
}

func TestSummarizeOnlySelected(t *testing.T) {
	report := ImportReport{Total: 4}
	results := []domain.ElementResult{{Index: 0}, domain.Success(1, "v"), {Index: 2}, {Index: 3}}
	summarize(&report, results, []int{1})
	assert.Equal(t, 1, report.Succeeded)
	assert.Zero(t, report.Skipped)
	assert.True(t, report.OK())
}

func TestRenderListsFailures(t *testing.T) {
	var buf bytes.Buffer
	report := sampleReport()
	report.Aborted = ErrFailFastThreshold
	require.NoError(t, report.Render(&buf))

	out := buf.String()
	assert.Contains(t, out, "import edges")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "#1 UNRESOLVED_ENDPOINT")
	assert.Contains(t, out, "#3 CONNECTION_ERROR (3 attempts)")
	assert.Contains(t, out, ErrFailFastThreshold.Error())
	assert.Less(t, strings.Index(out, "#1"), strings.Index(out, "#3"))
}

func TestRenderOK(t *testing.T) {
	var buf bytes.Buffer
	report := ImportReport{RunID: "r", Kind: KindVertices, Attempted: 2, Succeeded: 2}
	require.NoError(t, report.Render(&buf))
	assert.Contains(t, buf.String(), "OK")
	assert.NotContains(t, buf.String(), "failures:")
}

func TestWriteJSONRoundTripsFailedIndices(t *testing.T) {
	var buf bytes.Buffer
	report := sampleReport()
	report.Aborted = errors.New("import interrupted: context canceled")
	require.NoError(t, report.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "edges", decoded["kind"])
	assert.Equal(t, float64(1500), decoded["durationMs"])
	assert.Equal(t, "import interrupted: context canceled", decoded["aborted"])
	failures := decoded["failures"].([]any)
	require.Len(t, failures, 2)
	assert.Equal(t, float64(3), failures[1].(map[string]any)["attempts"])

	indices, err := ReadFailedIndices(bytes.NewReader(buf.Bytes()), KindEdges)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, indices)
}

func TestReadFailedIndicesKindMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteJSON(&buf))
	_, err := ReadFailedIndices(&buf, KindVertices)
	assert.ErrorContains(t, err, "not vertices")
}

func TestReadFailedIndicesMalformed(t *testing.T) {
	_, err := ReadFailedIndices(strings.NewReader("{"), KindEdges)
	assert.ErrorContains(t, err, "decode report")
}
