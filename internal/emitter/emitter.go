// Package emitter assembles lineage events for job runs and hands them to
// a transport.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leaplineage/internal/datasets"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	tree "github.com/leapstack-labs/leaplineage/pkg/lineage"
)

// Producer identifies this adapter in every emitted event.
const Producer = "https://github.com/leapstack-labs/leaplineage"

// AdapterVersion is stamped into event facets.
const AdapterVersion = "0.1.0"

const (
	processingTypeBatch = "BATCH"
	integrationName     = "LEAPSQL"
	engineName          = "LeapSQL"

	jobTypeModel = "MODEL"
	jobTypeAudit = "AUDIT"
)

// Transport delivers a built event to a catalog backend.
type Transport interface {
	Emit(ctx context.Context, ev *core.Event) error
}

// Config configures an Emitter.
type Config struct {
	// Namespace qualifies every dataset and job name.
	Namespace string
	Transport Transport
	// Builder resolves per-column dependency trees. May be nil, in
	// which case COMPLETE events carry no column lineage.
	Builder tree.Builder
	Logger  *slog.Logger
	// EngineVersion is the version of the engine driving the run.
	EngineVersion string
}

// Emitter builds START, COMPLETE, and FAIL events for job runs.
type Emitter struct {
	namespace     string
	transport     Transport
	builder       tree.Builder
	logger        *slog.Logger
	engineVersion string

	now func() time.Time
}

// New returns an Emitter. The transport must be non-nil.
func New(cfg Config) (*Emitter, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("emitter: transport is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Emitter{
		namespace:     cfg.Namespace,
		transport:     cfg.Transport,
		builder:       cfg.Builder,
		logger:        logger,
		engineVersion: cfg.EngineVersion,
		now:           time.Now,
	}, nil
}

// EmitStart emits a START event for the job. jobs maps job names to the
// jobs of the current run, used to resolve parent references to their
// materialized view names.
func (e *Emitter) EmitStart(ctx context.Context, job *core.Job, runID string, jobs map[string]*core.Job) error {
	ev := e.base(core.EventStart, job, runID)
	out := datasets.Output(job, e.namespace)
	ev.Output = &out
	ev.Inputs = datasets.Inputs(job, e.namespace, jobs)
	return e.emit(ctx, ev)
}

// EmitComplete emits a COMPLETE event carrying the processed interval,
// run duration, and column-level lineage for every declared parent.
func (e *Emitter) EmitComplete(ctx context.Context, job *core.Job, runID string, interval core.Interval, durationMS int64, jobs map[string]*core.Job) error {
	ev := e.base(core.EventComplete, job, runID)
	ev.DurationMS = durationMS
	out := datasets.Output(job, e.namespace)
	ev.Output = &out
	ev.Inputs = datasets.Inputs(job, e.namespace, jobs)

	for _, p := range job.Parents {
		ev.ColumnLineage = append(ev.ColumnLineage,
			datasets.ColumnLineage(job, p.Name, e.namespace, e.builder)...)
	}
	if !interval.Start.IsZero() {
		e.logger.Debug("emitting completion",
			"job", job.Name,
			"interval_start", interval.Start,
			"interval_end", interval.End)
	}
	return e.emit(ctx, ev)
}

// EmitFail emits a FAIL event carrying the failure message.
func (e *Emitter) EmitFail(ctx context.Context, job *core.Job, runID, errMsg string) error {
	ev := e.base(core.EventFail, job, runID)
	ev.Error = errMsg
	return e.emit(ctx, ev)
}

func (e *Emitter) base(typ core.EventType, job *core.Job, runID string) *core.Event {
	return &core.Event{
		Type:      typ,
		EventTime: e.now().UTC(),
		RunID:     runID,
		Job:       core.JobName{Namespace: e.namespace, Name: job.Name},
		Facets:    e.facets(job),
		Producer:  Producer,
	}
}

func (e *Emitter) facets(job *core.Job) core.Facets {
	f := core.Facets{
		ProcessingType: processingTypeBatch,
		Integration:    integrationName,
		EngineName:     engineName,
		EngineVersion:  e.engineVersion,
		AdapterVersion: AdapterVersion,
	}
	if job.IsModel {
		f.JobType = jobTypeModel
	} else {
		f.JobType = jobTypeAudit
	}
	if job.Model != nil {
		f.Query = job.Model.Query
		if job.Model.FilePath != "" {
			f.SourceURL = "file://" + job.Model.FilePath
		}
	}
	return f
}

func (e *Emitter) emit(ctx context.Context, ev *core.Event) error {
	if err := e.transport.Emit(ctx, ev); err != nil {
		return fmt.Errorf("emit %s event for %s: %w", ev.Type, ev.Job.Name, err)
	}
	return nil
}
