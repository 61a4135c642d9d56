// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package report accumulates per-phase execution statistics and renders them
as machine-readable JSON and a human-readable text summary.

The API is push-based: phases are opened and closed as the pipeline runs,
so a crash mid-run still leaves a partial report that the caller's failure
handler can flush before exiting.
*/
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/yomira-seeder/internal/platform/apperr"
	"github.com/taibuivan/yomira-seeder/pkg/uuidv7"
)

// Status is the terminal state of a phase.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Counts holds the per-phase record tallies.
type Counts struct {
	Processed int `json:"processed"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Warnings  int `json:"warnings"`
	Errors    int `json:"errors"`
}

// Issue is one recorded error with its reporting context.
type Issue struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Phase tracks one named pipeline phase.
type Phase struct {
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Counts    Counts     `json:"counts"`
	Issues    []Issue    `json:"issues,omitempty"`

	report *Report
}

// Report is the run-level accumulator.
//
// # Concurrency
//
// All mutating methods take the report lock, so phases can record errors
// from concurrent download workers safely.
type Report struct {
	RunID     string     `json:"run_id"`
	DryRun    bool       `json:"dry_run"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Phases    []*Phase   `json:"phases"`

	mu sync.Mutex
}

// New opens a report for a fresh run, stamped with a UUIDv7 run ID.
func New(dryRun bool) *Report {
	return &Report{
		RunID:     uuidv7.New(),
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}
}

// StartPhase opens a new named phase in running state.
func (r *Report) StartPhase(name string) *Phase {
	r.mu.Lock()
	defer r.mu.Unlock()

	phase := &Phase{
		Name:      name,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
		report:    r,
	}
	r.Phases = append(r.Phases, phase)
	return phase
}

// End closes the phase with the given terminal status.
func (p *Phase) End(status Status) {
	p.report.mu.Lock()
	defer p.report.mu.Unlock()

	now := time.Now().UTC()
	p.EndedAt = &now
	p.Status = status
}

// Add accumulates counts into the phase.
func (p *Phase) Add(delta Counts) {
	p.report.mu.Lock()
	defer p.report.mu.Unlock()

	p.Counts.Processed += delta.Processed
	p.Counts.Inserted += delta.Inserted
	p.Counts.Updated += delta.Updated
	p.Counts.Skipped += delta.Skipped
	p.Counts.Warnings += delta.Warnings
	p.Counts.Errors += delta.Errors
}

// RecordError appends an error issue and bumps the error count.
func (p *Phase) RecordError(err *apperr.AppError) {
	p.report.mu.Lock()
	defer p.report.mu.Unlock()

	p.Counts.Errors++
	p.Issues = append(p.Issues, issueFrom(err))
}

// RecordIssue appends an informational issue without touching the counts.
// Used for duplicate-skip conflicts, which are policy decisions rather than
// errors; their effect is already visible in the skipped count.
func (p *Phase) RecordIssue(code, message string, context map[string]any) {
	p.report.mu.Lock()
	defer p.report.mu.Unlock()

	p.Issues = append(p.Issues, Issue{Code: code, Message: message, Context: context})
}

// RecordWarning appends a warning-level issue and bumps the warning count.
func (p *Phase) RecordWarning(code, message string, context map[string]any) {
	p.report.mu.Lock()
	defer p.report.mu.Unlock()

	p.Counts.Warnings++
	p.Issues = append(p.Issues, Issue{Code: code, Message: message, Context: context})
}

// Finish stamps the report's end time.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	r.EndedAt = &now
}

// # Artifacts

// WriteJSON serializes the report to path as indented JSON.
func (r *Report) WriteJSON(path string) error {
	r.mu.Lock()
	data, err := json.MarshalIndent(r, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("report: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

// WriteText renders the human-readable report to path.
func (r *Report) WriteText(path string) error {
	if err := os.WriteFile(path, []byte(r.Render()), 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

// Render produces the human-readable report, suitable for terminal and CI
// log inspection.
func (r *Report) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder

	mode := "live"
	if r.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(&sb, "Seeding run %s (%s)\n", r.RunID, mode)
	fmt.Fprintf(&sb, "Started: %s\n", r.StartedAt.Format(time.RFC3339))
	if r.EndedAt != nil {
		fmt.Fprintf(&sb, "Ended:   %s (%.1fs)\n", r.EndedAt.Format(time.RFC3339), r.EndedAt.Sub(r.StartedAt).Seconds())
	}
	sb.WriteString("\n")

	var total Counts
	for _, p := range r.Phases {
		duration := ""
		if p.EndedAt != nil {
			duration = fmt.Sprintf(" in %.1fs", p.EndedAt.Sub(p.StartedAt).Seconds())
		}
		fmt.Fprintf(&sb, "[%s] %s%s\n", strings.ToUpper(string(p.Status)), p.Name, duration)
		fmt.Fprintf(&sb, "  processed=%d inserted=%d updated=%d skipped=%d warnings=%d errors=%d\n",
			p.Counts.Processed, p.Counts.Inserted, p.Counts.Updated,
			p.Counts.Skipped, p.Counts.Warnings, p.Counts.Errors,
		)

		for _, issue := range p.Issues {
			fmt.Fprintf(&sb, "  - %s: %s%s\n", issue.Code, issue.Message, renderContext(issue.Context))
		}

		total.Processed += p.Counts.Processed
		total.Inserted += p.Counts.Inserted
		total.Updated += p.Counts.Updated
		total.Skipped += p.Counts.Skipped
		total.Warnings += p.Counts.Warnings
		total.Errors += p.Counts.Errors
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Total: processed=%d inserted=%d updated=%d skipped=%d warnings=%d errors=%d\n",
		total.Processed, total.Inserted, total.Updated, total.Skipped, total.Warnings, total.Errors,
	)

	return sb.String()
}

// issueFrom converts an [apperr.AppError] into a report issue.
func issueFrom(err *apperr.AppError) Issue {
	issue := Issue{Code: err.Code, Message: err.Message, Context: err.Context}
	if len(err.Details) > 0 {
		if issue.Context == nil {
			issue.Context = make(map[string]any)
		}
		fields := make([]string, 0, len(err.Details))
		for _, d := range err.Details {
			fields = append(fields, d.Field+": "+d.Message)
		}
		issue.Context["fields"] = fields
	}
	return issue
}

// renderContext formats issue context as sorted key=value pairs.
func renderContext(context map[string]any) string {
	if len(context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(" (")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", k, context[k])
	}
	sb.WriteString(")")
	return sb.String()
}
