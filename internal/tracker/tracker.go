// Package tracker correlates job lifecycle notifications into lineage
// events.
//
// Tracker decorates an existing notification sink: every call is forwarded
// to the wrapped sink unchanged, and model evaluations additionally produce
// START, COMPLETE, and FAIL events through an emitter. Emission failures
// are logged and swallowed so lineage reporting can never break a run.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leaplineage/internal/emitter"
	"github.com/leapstack-labs/leaplineage/pkg/core"
)

var _ core.Sink = (*Tracker)(nil)

// Tracker wraps a sink and emits lineage events for model evaluations.
type Tracker struct {
	wrapped core.Sink
	emitter *emitter.Emitter
	logger  *slog.Logger

	mu sync.Mutex
	// activeRuns maps job name to the run id of its in-flight
	// evaluation. An entry lives from StartJobEvaluation until the
	// matching Update or Fail consumes it.
	activeRuns map[string]string
	// currentJobs holds the jobs of the run announced by StartRun,
	// used to resolve parent references.
	currentJobs map[string]*core.Job
}

// New returns a Tracker decorating wrapped. The emitter must be non-nil;
// a nil logger discards log output.
func New(wrapped core.Sink, em *emitter.Emitter, logger *slog.Logger) (*Tracker, error) {
	if wrapped == nil {
		return nil, fmt.Errorf("tracker: wrapped sink is required")
	}
	if em == nil {
		return nil, fmt.Errorf("tracker: emitter is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		wrapped:     wrapped,
		emitter:     em,
		logger:      logger,
		activeRuns:  make(map[string]string),
		currentJobs: make(map[string]*core.Job),
	}, nil
}

// StartRun records the jobs of the run and forwards.
func (t *Tracker) StartRun(env string, jobs map[string]*core.Job) {
	t.mu.Lock()
	t.currentJobs = make(map[string]*core.Job, len(jobs))
	for name, job := range jobs {
		t.currentJobs[name] = job
	}
	t.mu.Unlock()

	t.wrapped.StartRun(env, jobs)
}

// StopRun clears the recorded jobs and forwards.
func (t *Tracker) StopRun(success bool) {
	t.mu.Lock()
	t.currentJobs = make(map[string]*core.Job)
	t.mu.Unlock()

	t.wrapped.StopRun(success)
}

// StartJobEvaluation assigns a fresh run id to the evaluation and emits a
// START event. Audit-only evaluations are forwarded without emission.
func (t *Tracker) StartJobEvaluation(job *core.Job, auditOnly bool) {
	defer t.wrapped.StartJobEvaluation(job, auditOnly)
	if job == nil || auditOnly {
		return
	}

	runID := uuid.NewString()

	t.mu.Lock()
	// A start for a job that is already in flight replaces the old
	// entry; the newest run wins and the old one never completes.
	t.activeRuns[job.Name] = runID
	jobs := t.currentJobs
	t.mu.Unlock()

	if err := t.emitter.EmitStart(context.Background(), job, runID, jobs); err != nil {
		t.logger.Warn("failed to emit start event",
			"job", job.Name,
			"run_id", runID,
			"error", err)
	}
}

// UpdateJobEvaluation closes out the evaluation's run: a COMPLETE event
// when all audits passed, a FAIL event otherwise. Updates for jobs with no
// active run are forwarded without emission.
func (t *Tracker) UpdateJobEvaluation(job *core.Job, interval core.Interval, batchIndex int, durationMS int64, auditsPassed, auditsFailed int) {
	defer t.wrapped.UpdateJobEvaluation(job, interval, batchIndex, durationMS, auditsPassed, auditsFailed)
	if job == nil {
		return
	}

	t.mu.Lock()
	runID, ok := t.activeRuns[job.Name]
	if ok {
		delete(t.activeRuns, job.Name)
	}
	jobs := t.currentJobs
	t.mu.Unlock()
	if !ok {
		return
	}

	ctx := context.Background()
	if auditsFailed > 0 {
		msg := fmt.Sprintf("%d audit(s) failed", auditsFailed)
		if err := t.emitter.EmitFail(ctx, job, runID, msg); err != nil {
			t.logger.Warn("failed to emit fail event",
				"job", job.Name,
				"run_id", runID,
				"error", err)
		}
		return
	}

	if err := t.emitter.EmitComplete(ctx, job, runID, interval, durationMS, jobs); err != nil {
		t.logger.Warn("failed to emit complete event",
			"job", job.Name,
			"run_id", runID,
			"error", err)
	}
}

// FailJobEvaluation emits a FAIL event for the evaluation's run. Failures
// for jobs with no active run are forwarded without emission.
func (t *Tracker) FailJobEvaluation(job *core.Job, evalErr error) {
	defer t.wrapped.FailJobEvaluation(job, evalErr)
	if job == nil {
		return
	}

	t.mu.Lock()
	runID, ok := t.activeRuns[job.Name]
	if ok {
		delete(t.activeRuns, job.Name)
	}
	t.mu.Unlock()
	if !ok {
		return
	}

	msg := "evaluation failed"
	if evalErr != nil {
		msg = evalErr.Error()
	}
	if err := t.emitter.EmitFail(context.Background(), job, runID, msg); err != nil {
		t.logger.Warn("failed to emit fail event",
			"job", job.Name,
			"run_id", runID,
			"error", err)
	}
}

// LogWarning forwards to the wrapped sink.
func (t *Tracker) LogWarning(msg string) {
	t.wrapped.LogWarning(msg)
}

// LogError forwards to the wrapped sink.
func (t *Tracker) LogError(msg string) {
	t.wrapped.LogError(msg)
}
