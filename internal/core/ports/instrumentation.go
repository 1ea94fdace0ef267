package ports

// Instrumentation receives engine-level counters. The engine calls it
// on the hot paths, so implementations must be cheap and non-blocking.
type Instrumentation interface {
	MessageIngested()
	ViewerCountObserved(count int, valid bool)
	SnapshotWritten()
	CaptureFinished(failed bool)
	RecordAppended(kind string)
}

// NopInstrumentation is used when no metrics backend is configured.
type NopInstrumentation struct{}

func (NopInstrumentation) MessageIngested() {}
func (NopInstrumentation) ViewerCountObserved(int, bool) {}
func (NopInstrumentation) SnapshotWritten() {}
func (NopInstrumentation) CaptureFinished(bool) {}
func (NopInstrumentation) RecordAppended(string) {}
