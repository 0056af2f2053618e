package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tristendillon/tenantize/core/models"
)

// Report collects the outcome of every target touched in one run.
type Report struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	DryRun     bool             `json:"dry_run"`
	Outcomes   []models.Outcome `json:"outcomes"`
}

func New(dryRun bool) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    dryRun,
		Outcomes:  []models.Outcome{},
	}
}

func (r *Report) Add(outcomes ...models.Outcome) {
	r.Outcomes = append(r.Outcomes, outcomes...)
}

func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Counts tallies outcomes per status. Every status is present.
func (r *Report) Counts() map[models.Status]int {
	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// Summary prints one line per target followed by the per-status counts.
func (r *Report) Summary(w io.Writer) {
	for _, o := range r.Outcomes {
		name := o.Target
		if o.Label != "" {
			name = fmt.Sprintf("%s (%s)", o.Label, o.Target)
		}
		line := fmt.Sprintf("%s %-10s %-18s %s", statusIcon(o.Status), o.Status, o.Kind, name)
		if o.Reason != "" {
			line += ": " + o.Reason
		}
		fmt.Fprintln(w, line)
		for _, note := range o.Notes {
			fmt.Fprintf(w, "    ⚠️  %s\n", note)
		}
	}

	counts := r.Counts()
	parts := make([]string, 0, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		parts = append(parts, fmt.Sprintf("%s: %d", s, counts[s]))
	}
	prefix := ""
	if r.DryRun {
		prefix = "[dry-run] "
	}
	fmt.Fprintf(w, "\n%s%d targets (%s)\n", prefix, len(r.Outcomes), strings.Join(parts, ", "))
}

func statusIcon(s models.Status) string {
	switch s {
	case models.StatusCreated, models.StatusModified:
		return "✅"
	case models.StatusSkipped:
		return "⏭️ "
	case models.StatusNotFound, models.StatusAmbiguous:
		return "⚠️ "
	default:
		return "❌"
	}
}

// WriteJSON writes the report to path, creating parent directories.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
