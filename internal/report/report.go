// Package report accumulates per-item outcomes for batch generation and
// frame preprocessing runs.
package report

import (
	"fmt"
	"io"
)

// Failure records one item that did not complete.
type Failure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report is the informational summary produced at the end of a batch run.
// Items are recorded in the order they were processed.
type Report struct {
	Succeeded    []string  `json:"succeeded"`
	Failed       []Failure `json:"failed"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
}

// AddSuccess records a completed item.
func (r *Report) AddSuccess(path string) {
	r.Succeeded = append(r.Succeeded, path)
	r.SuccessCount++
}

// AddFailure records a failed item and why it failed.
func (r *Report) AddFailure(path, reason string) {
	r.Failed = append(r.Failed, Failure{Path: path, Reason: reason})
	r.FailureCount++
}

// OK reports whether every item succeeded.
func (r *Report) OK() bool {
	return r.FailureCount == 0
}

// Total returns the number of items processed.
func (r *Report) Total() int {
	return r.SuccessCount + r.FailureCount
}

// ExitCode maps the report to a process exit status.
func (r *Report) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}

// Print writes a human-readable summary to w.
func (r *Report) Print(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "=== %s ===\n", title)
	fmt.Fprintf(w, "Succeeded: %d/%d\n", r.SuccessCount, r.Total())
	for _, p := range r.Succeeded {
		fmt.Fprintf(w, "  ✓ %s\n", p)
	}
	if r.FailureCount > 0 {
		fmt.Fprintf(w, "Failed: %d\n", r.FailureCount)
		for _, f := range r.Failed {
			fmt.Fprintf(w, "  ✗ %s: %s\n", f.Path, f.Reason)
		}
	}
}
