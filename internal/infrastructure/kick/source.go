package kick

import (
	"context"

	"kickpulse/internal/core/ports"
)

// Source combines the chat websocket client with the optional
// viewer-count poller into one ingestion port.
type Source struct {
	chat   *ChatClient
	poller *ViewerPoller // nil for chatroom-id-only sessions
}

func NewSource(chat *ChatClient, poller *ViewerPoller) *Source {
	return &Source{chat: chat, poller: poller}
}

// Run delivers events until the context is cancelled or the chat
// connection is irrecoverably lost.
func (s *Source) Run(ctx context.Context, sink ports.EventSink) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() {
		errs <- s.chat.Run(runCtx, sink)
	}()
	if s.poller != nil {
		go func() {
			errs <- s.poller.Run(runCtx, sink)
		}()
	}

	err := <-errs
	cancel()
	if s.poller != nil {
		<-errs
	}
	return err
}
