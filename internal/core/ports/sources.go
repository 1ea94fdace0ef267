package ports

import (
	"context"

	"kickpulse/internal/core/domain"
)

// EventSink receives ingested events. Implementations must tolerate
// concurrent calls; delivery order within one source is preserved.
type EventSink interface {
	HandleChatMessage(event domain.ChatMessageEvent)
	HandleViewerCount(event domain.ViewerCountEvent)
}

// ChatSource delivers chat messages and viewer-count observations to a
// sink until the context is cancelled. Delivery is best-effort arrival
// order with no guarantee across reconnects; duplicate events after a
// reconnect are delivered as-is.
type ChatSource interface {
	Run(ctx context.Context, sink EventSink) error
}
