package domain

import "time"

// ChatMessageEvent is a single chat message delivered by the ingestion
// port. Ordering is by arrival; upstream timestamps are informational.
type ChatMessageEvent struct {
	SenderID   string
	SenderName string
	Text       string
	ReceivedAt time.Time
}

// ViewerCountEvent is a viewer-count observation. Only the most recent
// observation is retained. Valid is false when the upstream source
// could not produce a count, which clears the retained value.
type ViewerCountEvent struct {
	Count      int
	Valid      bool
	ReceivedAt time.Time
}
