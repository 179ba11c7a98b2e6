package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaplineage/internal/emitter"
	"github.com/leapstack-labs/leaplineage/internal/testutil"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	tree "github.com/leapstack-labs/leaplineage/pkg/lineage"
)

// recorderSink records every forwarded call so tests can assert that the
// tracker is transparent to the sink it wraps.
type recorderSink struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorderSink) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorderSink) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorderSink) StartRun(string, map[string]*core.Job) { r.record("StartRun") }
func (r *recorderSink) StopRun(bool)                          { r.record("StopRun") }
func (r *recorderSink) StartJobEvaluation(*core.Job, bool)    { r.record("StartJobEvaluation") }
func (r *recorderSink) FailJobEvaluation(*core.Job, error)    { r.record("FailJobEvaluation") }
func (r *recorderSink) LogWarning(string)                     { r.record("LogWarning") }
func (r *recorderSink) LogError(string)                       { r.record("LogError") }

func (r *recorderSink) UpdateJobEvaluation(*core.Job, core.Interval, int, int64, int, int) {
	r.record("UpdateJobEvaluation")
}

type stubTransport struct {
	mu     sync.Mutex
	events []*core.Event
	err    error
}

func (s *stubTransport) Emit(_ context.Context, ev *core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *stubTransport) emitted() []*core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*core.Event(nil), s.events...)
}

func salesJob() *core.Job {
	return &core.Job{
		Name:    "analytics.sales",
		View:    core.TableName{Schema: "analytics", Table: "sales"},
		IsModel: true,
		Model: &core.Model{
			Name: "analytics.sales",
			Columns: []core.ColumnDef{
				{Name: "total", Type: "DECIMAL"},
			},
		},
		Parents: []core.JobRef{{Name: "analytics.orders"}},
	}
}

func ordersJob() *core.Job {
	return &core.Job{
		Name:    "analytics.orders",
		View:    core.TableName{Schema: "analytics", Table: "orders"},
		IsModel: true,
		Model:   &core.Model{Name: "analytics.orders"},
	}
}

func salesBuilder() tree.Builder {
	b := tree.NewStaticBuilder()
	b.Add("analytics.sales", "total", &tree.Node{
		Name: "total",
		Downstream: []*tree.Node{
			{Name: "orders.amount", Expression: "analytics.orders AS orders"},
		},
	})
	return b
}

func newTestTracker(t *testing.T, sink core.Sink, transport emitter.Transport, b tree.Builder) *Tracker {
	t.Helper()
	em, err := emitter.New(emitter.Config{
		Namespace: "demo_pg",
		Transport: transport,
		Builder:   b,
		Logger:    testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	tr, err := New(sink, em, testutil.NewTestLogger(t))
	require.NoError(t, err)
	return tr
}

func TestNewRequiresDependencies(t *testing.T) {
	em, err := emitter.New(emitter.Config{Transport: &stubTransport{}})
	require.NoError(t, err)

	_, err = New(nil, em, nil)
	assert.Error(t, err)

	_, err = New(&recorderSink{}, nil, nil)
	assert.Error(t, err)
}

func TestEvaluationLifecycle(t *testing.T) {
	sink := &recorderSink{}
	transport := &stubTransport{}
	tr := newTestTracker(t, sink, transport, salesBuilder())

	jobs := map[string]*core.Job{
		"analytics.sales":  salesJob(),
		"analytics.orders": ordersJob(),
	}
	tr.StartRun("prod", jobs)
	tr.StartJobEvaluation(salesJob(), false)
	tr.UpdateJobEvaluation(salesJob(), core.Interval{
		Start: time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}, 0, 1250, 2, 0)
	tr.StopRun(true)

	events := transport.emitted()
	require.Len(t, events, 2)

	start, complete := events[0], events[1]
	assert.Equal(t, core.EventStart, start.Type)
	assert.Equal(t, core.EventComplete, complete.Type)
	// Both events belong to the same run.
	assert.NotEmpty(t, start.RunID)
	assert.Equal(t, start.RunID, complete.RunID)
	assert.Equal(t, int64(1250), complete.DurationMS)

	assert.Equal(t, &core.Dataset{Namespace: "demo_pg", Name: "analytics.sales"}, complete.Output)
	assert.Equal(t, []core.Dataset{{Namespace: "demo_pg", Name: "analytics.orders"}}, complete.Inputs)
	require.Len(t, complete.ColumnLineage, 1)
	assert.Equal(t, core.ColumnLineage{
		FromColumns: []string{"demo_pg.analytics.orders.amount"},
		ToColumn:    "demo_pg.analytics.sales.total",
	}, complete.ColumnLineage[0])

	assert.Equal(t, []string{"StartRun", "StartJobEvaluation", "UpdateJobEvaluation", "StopRun"}, sink.recorded())
}

func TestEachEvaluationGetsFreshRunID(t *testing.T) {
	transport := &stubTransport{}
	tr := newTestTracker(t, &recorderSink{}, transport, nil)

	tr.StartJobEvaluation(salesJob(), false)
	tr.UpdateJobEvaluation(salesJob(), core.Interval{}, 0, 10, 0, 0)
	tr.StartJobEvaluation(salesJob(), false)
	tr.UpdateJobEvaluation(salesJob(), core.Interval{}, 0, 10, 0, 0)

	events := transport.emitted()
	require.Len(t, events, 4)
	assert.Equal(t, events[0].RunID, events[1].RunID)
	assert.Equal(t, events[2].RunID, events[3].RunID)
	assert.NotEqual(t, events[0].RunID, events[2].RunID)
}

func TestAuditFailureEmitsFail(t *testing.T) {
	transport := &stubTransport{}
	tr := newTestTracker(t, &recorderSink{}, transport, nil)

	tr.StartJobEvaluation(salesJob(), false)
	tr.UpdateJobEvaluation(salesJob(), core.Interval{}, 0, 10, 1, 2)

	events := transport.emitted()
	require.Len(t, events, 2)
	assert.Equal(t, core.EventFail, events[1].Type)
	assert.Equal(t, "2 audit(s) failed", events[1].Error)
	assert.Equal(t, events[0].RunID, events[1].RunID)
}

func TestFailJobEvaluation(t *testing.T) {
	transport := &stubTransport{}
	tr := newTestTracker(t, &recorderSink{}, transport, nil)

	tr.StartJobEvaluation(salesJob(), false)
	tr.FailJobEvaluation(salesJob(), errors.New("division by zero"))

	events := transport.emitted()
	require.Len(t, events, 2)
	assert.Equal(t, core.EventFail, events[1].Type)
	assert.Equal(t, "division by zero", events[1].Error)
	assert.Equal(t, events[0].RunID, events[1].RunID)

	// The run is consumed: a second failure emits nothing.
	tr.FailJobEvaluation(salesJob(), errors.New("again"))
	assert.Len(t, transport.emitted(), 2)
}

func TestAuditOnlyEvaluationSkipsEmission(t *testing.T) {
	sink := &recorderSink{}
	transport := &stubTransport{}
	tr := newTestTracker(t, sink, transport, nil)

	tr.StartJobEvaluation(salesJob(), true)

	assert.Empty(t, transport.emitted())
	assert.Equal(t, []string{"StartJobEvaluation"}, sink.recorded())
}

func TestUpdateWithoutActiveRunForwardsOnly(t *testing.T) {
	sink := &recorderSink{}
	transport := &stubTransport{}
	tr := newTestTracker(t, sink, transport, nil)

	tr.UpdateJobEvaluation(salesJob(), core.Interval{}, 0, 10, 1, 0)
	tr.FailJobEvaluation(salesJob(), errors.New("boom"))

	assert.Empty(t, transport.emitted())
	assert.Equal(t, []string{"UpdateJobEvaluation", "FailJobEvaluation"}, sink.recorded())
}

// A second start before the first run closes replaces the active run:
// the newest run id wins and the first run never completes.
func TestReentrantStartReplacesActiveRun(t *testing.T) {
	transport := &stubTransport{}
	tr := newTestTracker(t, &recorderSink{}, transport, nil)

	tr.StartJobEvaluation(salesJob(), false)
	tr.StartJobEvaluation(salesJob(), false)
	tr.UpdateJobEvaluation(salesJob(), core.Interval{}, 0, 10, 0, 0)

	events := transport.emitted()
	require.Len(t, events, 3)
	assert.Equal(t, core.EventStart, events[0].Type)
	assert.Equal(t, core.EventStart, events[1].Type)
	assert.Equal(t, core.EventComplete, events[2].Type)
	assert.NotEqual(t, events[0].RunID, events[1].RunID)
	assert.Equal(t, events[1].RunID, events[2].RunID)
}

func TestTransportFailureDoesNotBreakForwarding(t *testing.T) {
	sink := &recorderSink{}
	transport := &stubTransport{err: errors.New("connection refused")}
	tr := newTestTracker(t, sink, transport, nil)

	tr.StartRun("prod", nil)
	tr.StartJobEvaluation(salesJob(), false)
	tr.UpdateJobEvaluation(salesJob(), core.Interval{}, 0, 10, 0, 0)
	tr.FailJobEvaluation(salesJob(), errors.New("boom"))
	tr.StopRun(false)

	// Every call reaches the wrapped sink exactly once.
	assert.Equal(t, []string{
		"StartRun",
		"StartJobEvaluation",
		"UpdateJobEvaluation",
		"FailJobEvaluation",
		"StopRun",
	}, sink.recorded())
}

func TestLogForwarding(t *testing.T) {
	sink := &recorderSink{}
	tr := newTestTracker(t, sink, &stubTransport{}, nil)

	tr.LogWarning("watch out")
	tr.LogError("it broke")

	assert.Equal(t, []string{"LogWarning", "LogError"}, sink.recorded())
}

func TestStopRunClearsJobs(t *testing.T) {
	transport := &stubTransport{}
	tr := newTestTracker(t, &recorderSink{}, transport, nil)

	orders := ordersJob()
	orders.View = core.TableName{Catalog: "warehouse", Schema: "analytics", Table: "orders"}
	tr.StartRun("prod", map[string]*core.Job{"analytics.orders": orders})

	tr.StartJobEvaluation(salesJob(), false)
	tr.UpdateJobEvaluation(salesJob(), core.Interval{}, 0, 10, 0, 0)
	tr.StopRun(true)

	// Parents no longer resolve to view names after the run stops.
	tr.StartJobEvaluation(salesJob(), false)

	events := transport.emitted()
	require.Len(t, events, 3)
	assert.Equal(t, []core.Dataset{{Namespace: "demo_pg", Name: "warehouse.analytics.orders"}}, events[0].Inputs)
	assert.Equal(t, []core.Dataset{{Namespace: "demo_pg", Name: "analytics.orders"}}, events[2].Inputs)
}
