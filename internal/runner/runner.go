// Package runner orchestrates one batch run: evaluate every template
// against today, materialize each match, append the audit records.
//
// Templates are processed strictly sequentially. Sequence allocation is
// already serialized by the store's counter lock, so parallelism would
// buy nothing there, and the sequential loop keeps per-template failure
// isolation trivial: one template failing cannot corrupt another's
// result or abort the batch.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chstech1/osTicket-Task-Creator/internal/audit"
	"github.com/chstech1/osTicket-Task-Creator/internal/schedule"
	"github.com/chstech1/osTicket-Task-Creator/internal/store"
	"github.com/chstech1/osTicket-Task-Creator/internal/template"
)

// Clock supplies the batch date. The seam exists so tests can pin a
// fixed day.
type Clock interface {
	Today() time.Time
}

// SystemClock reports the current civil date in UTC.
type SystemClock struct{}

// Today implements Clock.
func (SystemClock) Today() time.Time { return schedule.Truncate(time.Now()) }

// Failure records one template whose materialization failed. The batch
// continues past it.
type Failure struct {
	TemplateID string
	Title      string
	Err        error
}

// Report aggregates the outcome of one batch run.
type Report struct {
	Today     time.Time
	Evaluated int
	Matched   int
	// Skipped counts templates with degenerate schedules (non-advancing
	// rule or iteration ceiling), logged as warnings.
	Skipped  int
	Created  []audit.Record
	Failures []Failure
}

// Failed reports whether at least one matched template failed to
// materialize. Drives the process exit code.
func (r *Report) Failed() bool { return len(r.Failures) > 0 }

// Runner drives the batch.
type Runner struct {
	store    *store.Store
	recorder *audit.Recorder
	clock    Clock
	log      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the batch date source.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// New creates a Runner over an opened store and audit recorder.
func New(st *store.Store, rec *audit.Recorder, opts ...Option) *Runner {
	r := &Runner{
		store:    st,
		recorder: rec,
		clock:    SystemClock{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one batch over the loaded templates. Failures inside a
// single template are caught at the template boundary and recorded in
// the report; they never abort the batch. The audit artifact is written
// once at the end for every success accumulated so far, even when later
// templates failed. The returned error covers only run-level problems
// (an unwritable audit artifact), not per-template failures.
func (r *Runner) Run(ctx context.Context, loaded *template.LoadResult) (*Report, error) {
	today := r.clock.Today()
	report := &Report{Today: today}
	r.log.Info("batch run starting", "today", schedule.FormatDate(today), "templates", len(loaded.Templates))

	for _, tpl := range loaded.Templates {
		report.Evaluated++
		r.log.Debug("evaluating template", "template", tpl.ID, "rule", tpl.Recurrence.Type)

		occ, err := tpl.Evaluate(today)
		if err != nil {
			if schedule.IsDegenerate(err) {
				// Misconfigured rule: observable, but treated as nothing
				// scheduled today.
				r.log.Warn("degenerate schedule, skipping", "template", tpl.ID, "error", err)
				report.Skipped++
				continue
			}
			report.Failures = append(report.Failures, Failure{TemplateID: tpl.ID, Title: tpl.Title, Err: err})
			r.log.Error("template evaluation failed", "template", tpl.ID, "error", err)
			continue
		}
		if occ == nil {
			r.log.Debug("no occurrence today", "template", tpl.ID)
			continue
		}

		report.Matched++
		r.log.Debug("occurrence matched",
			"template", tpl.ID,
			"due", schedule.FormatDate(occ.DueDate),
			"creation", schedule.FormatDate(occ.CreationDate))

		entry, err := r.materializeOne(ctx, tpl, loaded.ClientName(tpl.ClientID), occ)
		if err != nil {
			report.Failures = append(report.Failures, Failure{TemplateID: tpl.ID, Title: tpl.Title, Err: err})
			r.log.Error("materialization failed", "template", tpl.ID, "error", err)
			continue
		}
		report.Created = append(report.Created, *entry)
		r.log.Info("task created",
			"template", tpl.ID,
			"task", entry.TaskID,
			"due", entry.DueDate)
	}

	if err := r.recorder.Append(report.Created...); err != nil {
		return report, fmt.Errorf("write audit artifact: %w", err)
	}

	r.log.Info("batch run finished",
		"evaluated", report.Evaluated,
		"matched", report.Matched,
		"created", len(report.Created),
		"failed", len(report.Failures))
	return report, nil
}

// materializeOne is the per-template failure boundary. A panic inside
// the store write surfaces as an error here instead of taking down the
// batch; the store releases its connection via its own deferred
// rollback.
func (r *Runner) materializeOne(ctx context.Context, tpl template.Template, clientName string, occ *schedule.Occurrence) (entry *audit.Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("materialize %s: panic: %v", tpl.ID, p)
		}
	}()

	task, err := r.store.Materialize(ctx, tpl, occ.DueDate, occ.CreationDate)
	if err != nil {
		return nil, err
	}

	return &audit.Record{
		ID:           audit.NewID(),
		TaskID:       task.TaskID,
		TemplateID:   tpl.ID,
		Title:        tpl.Title,
		ClientName:   clientName,
		DueDate:      schedule.FormatDate(occ.DueDate),
		CreationDate: schedule.FormatDate(occ.CreationDate),
		Payload:      task,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
