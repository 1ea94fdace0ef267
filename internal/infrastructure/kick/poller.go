package kick

import (
	"context"
	"time"

	"kickpulse/internal/core/domain"
	"kickpulse/internal/core/ports"
	"kickpulse/pkg/circuitbreaker"

	"go.uber.org/zap"
)

// ViewerPoller periodically re-fetches the channel's viewer count and
// delivers it as a last-write-wins observation. A circuit breaker
// keeps a down Kick API from being hammered; while the breaker is open
// the retained count degrades to unknown.
type ViewerPoller struct {
	resolver *Resolver
	channel  string
	interval time.Duration
	breaker  *circuitbreaker.CircuitBreaker
	logger   *zap.SugaredLogger
}

func NewViewerPoller(resolver *Resolver, channel string, interval time.Duration, logger *zap.SugaredLogger) *ViewerPoller {
	breaker := circuitbreaker.New(circuitbreaker.DefaultConfig())
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warnw("viewer poll circuit breaker state change", "from", from, "to", to)
	})
	return &ViewerPoller{
		resolver: resolver,
		channel:  channel,
		interval: interval,
		breaker:  breaker,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. Poll failures are never
// fatal; they clear the retained viewer count.
func (p *ViewerPoller) Run(ctx context.Context, sink ports.EventSink) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, sink)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx, sink)
		}
	}
}

func (p *ViewerPoller) poll(ctx context.Context, sink ports.EventSink) {
	var count *int
	err := p.breaker.Execute(func() error {
		fetched, err := p.resolver.FetchViewerCount(ctx, p.channel)
		if err != nil {
			return err
		}
		count = fetched
		return nil
	})

	event := domain.ViewerCountEvent{ReceivedAt: time.Now().UTC()}
	switch {
	case err != nil:
		if ctx.Err() == nil {
			p.logger.Warnw("viewer count poll failed", "channel", p.channel, "error", err)
		}
	case count != nil:
		event.Count = *count
		event.Valid = true
	}
	sink.HandleViewerCount(event)
}
