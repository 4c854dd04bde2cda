package service

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanshika/graphload/internal/domain"
)

// RecordKind names the record set a run imported.
type RecordKind string

const (
	KindVertices RecordKind = "vertices"
	KindEdges    RecordKind = "edges"
)

// Failure describes one failed record.
type Failure struct {
	Index    int              `json:"index"`
	Kind     domain.ErrorKind `json:"kind"`
	Error    string           `json:"error"`
	Attempts int              `json:"attempts"`
}

// ImportReport aggregates the outcome of one run. Failures are ordered by
// input index so a re-run can target exactly those rows.
type ImportReport struct {
	RunID     string                 `json:"runId"`
	Kind      RecordKind             `json:"kind"`
	Total     int                    `json:"total"`
	Attempted int                    `json:"attempted"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Skipped   int                    `json:"skipped"`
	Failures  []Failure              `json:"failures"`
	Aborted   error                  `json:"-"`
	StartedAt time.Time              `json:"startedAt"`
	Duration  time.Duration          `json:"-"`
	Results   []domain.ElementResult `json:"-"`
}

// OK reports whether every selected record succeeded and the run was not aborted.
func (r ImportReport) OK() bool {
	return r.Aborted == nil && r.Failed == 0 && r.Skipped == 0
}

// FailedIndices returns the input positions of failed records in ascending order.
func (r ImportReport) FailedIndices() []int {
	indices := make([]int, 0, len(r.Failures))
	for _, f := range r.Failures {
		indices = append(indices, f.Index)
	}
	return indices
}

// summarize builds the report counters from the slot array, considering
// only the selected indices.
func summarize(report *ImportReport, results []domain.ElementResult, selected []int) {
	report.Results = results
	report.Failures = []Failure{}
	for _, idx := range selected {
		res := results[idx]
		switch res.Status {
		case domain.StatusSucceeded:
			report.Attempted++
			report.Succeeded++
		case domain.StatusFailed:
			report.Attempted++
			report.Failed++
			msg := ""
			if res.Err != nil {
				msg = res.Err.Error()
			}
			report.Failures = append(report.Failures, Failure{Index: idx, Kind: res.Kind, Error: msg, Attempts: res.Attempts})
		default:
			report.Skipped++
		}
	}
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Index < report.Failures[j].Index
	})
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Faint(true)
	abortedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Render writes a human-readable summary followed by one line per failure.
func (r ImportReport) Render(w io.Writer) error {
	var b strings.Builder

	status := okStyle.Render("OK")
	if !r.OK() {
		status = failStyle.Render("FAILED")
	}
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(fmt.Sprintf("import %s", r.Kind)), status)
	fmt.Fprintf(&b, "  run:       %s\n", r.RunID)
	fmt.Fprintf(&b, "  attempted: %d\n", r.Attempted)
	fmt.Fprintf(&b, "  succeeded: %d\n", r.Succeeded)
	fmt.Fprintf(&b, "  failed:    %d\n", r.Failed)
	if r.Skipped > 0 {
		fmt.Fprintf(&b, "  skipped:   %d\n", r.Skipped)
	}
	if r.Duration > 0 {
		fmt.Fprintf(&b, "  duration:  %s\n", r.Duration.Round(time.Millisecond))
	}
	if r.Aborted != nil {
		fmt.Fprintf(&b, "%s %v\n", abortedStyle.Render("aborted:"), r.Aborted)
	}
	if len(r.Failures) > 0 {
		b.WriteString(titleStyle.Render("failures:") + "\n")
		for _, f := range r.Failures {
			attempts := ""
			if f.Attempts > 1 {
				attempts = fmt.Sprintf(" (%d attempts)", f.Attempts)
			}
			fmt.Fprintf(&b, "  #%d %s%s %s\n", f.Index, f.Kind, attempts, detailStyle.Render(f.Error))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type reportJSON struct {
	ImportReport
	Aborted    string `json:"aborted,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// WriteJSON encodes the report for later re-runs.
func (r ImportReport) WriteJSON(w io.Writer) error {
	out := reportJSON{ImportReport: r, DurationMS: r.Duration.Milliseconds()}
	if r.Aborted != nil {
		out.Aborted = r.Aborted.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// ReadFailedIndices decodes a report written by WriteJSON and returns the
// indices of its failed records, checking the record kind matches.
func ReadFailedIndices(r io.Reader, kind RecordKind) ([]int, error) {
	var in struct {
		Kind     RecordKind `json:"kind"`
		Failures []Failure  `json:"failures"`
	}
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if in.Kind != kind {
		return nil, fmt.Errorf("report is for %s, not %s", in.Kind, kind)
	}
	indices := make([]int, 0, len(in.Failures))
	for _, f := range in.Failures {
		indices = append(indices, f.Index)
	}
	return indices, nil
}
