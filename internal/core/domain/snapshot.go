package domain

import "time"

// WindowCounts is a read-only view over the rolling counting windows at
// a single instant.
type WindowCounts struct {
	MessagesPerSecond int
	MessagesPerMinute int
	UniquePerSecond   int
	UniquePerMinute   int
	TotalMessages     int
	UniqueTotal       int
}

// TopChatter is one entry of the ranked participant list.
type TopChatter struct {
	SenderID   string
	SenderName string
	Count      int
}

// CaptureResult is the outcome of one capture attempt. Exactly one of
// Path or Err is meaningful; Embedded is an optional base64 thumbnail
// present only on success when embedding is enabled.
type CaptureResult struct {
	Timestamp time.Time
	Path      string
	Embedded  string
	Err       string
}

// Failed reports whether the capture attempt produced an error.
func (c CaptureResult) Failed() bool {
	return c.Err != ""
}

// Snapshot is one per-tick immutable summary of the session state.
// ViewerCount is nil when no observation is currently retained.
type Snapshot struct {
	Timestamp   time.Time
	ViewerCount *int
	Counts      WindowCounts
	TopChatters []TopChatter
	Screenshot  *CaptureResult
}
