package ports

import "kickpulse/internal/core/domain"

// SessionRecorder is the durable, append-only sink for session
// records. Appends are acknowledged only after the record has been
// flushed; an error is terminal for the run. Implementations must
// serialize concurrent appends.
type SessionRecorder interface {
	RecordSessionStart(session domain.Session) error
	RecordMessage(event domain.ChatMessageEvent) error
	RecordSnapshot(snapshot domain.Snapshot) error
}
