package core

// Sink receives lifecycle notifications from the pipeline engine.
//
// The engine calls Sink methods synchronously from whichever goroutine
// evaluates the job; implementations must not block for long and must
// tolerate concurrent calls for different jobs. Decorators that wrap a Sink
// must implement every method and forward by default, so that the engine
// sees the wrapped sink's full behavior for anything the decorator does not
// explicitly intercept.
type Sink interface {
	// StartRun announces a new run over the given job graph, keyed by
	// job name. The map is read-only for the receiver.
	StartRun(env string, jobs map[string]*Job)

	// StopRun announces the end of the current run.
	StopRun(success bool)

	// StartJobEvaluation is called when a job begins evaluating.
	// auditOnly runs execute audits without materializing new data.
	StartJobEvaluation(job *Job, auditOnly bool)

	// UpdateJobEvaluation reports a finished evaluation batch together
	// with its audit results.
	UpdateJobEvaluation(job *Job, interval Interval, batchIndex int, durationMS int64, auditsPassed, auditsFailed int)

	// FailJobEvaluation is called when a job evaluation errors.
	FailJobEvaluation(job *Job, err error)

	// LogWarning surfaces an engine warning to the user.
	LogWarning(msg string)

	// LogError surfaces an engine error to the user.
	LogError(msg string)
}
