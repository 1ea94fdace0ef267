package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"kickpulse/internal/core/domain"
	"kickpulse/internal/core/ports"
	"kickpulse/pkg/tracing"

	"go.uber.org/zap"
)

// Engine owns one monitored session end to end: it consumes the chat
// source, folds events into the aggregation state, persists message
// records, and drives the snapshot scheduler and capture coordinator.
// One engine instance monitors exactly one channel.
type Engine struct {
	session     domain.Session
	source      ports.ChatSource
	recorder    ports.SessionRecorder
	aggregator  *WindowAggregator
	talkers     *TopTalkers
	scheduler   *SnapshotScheduler
	coordinator *CaptureCoordinator // nil when captures are disabled
	instr       ports.Instrumentation
	logger      *zap.SugaredLogger

	lastActivity atomic.Int64 // unix nanos of the most recent chat message

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	fatalErr error
}

func NewEngine(
	session domain.Session,
	source ports.ChatSource,
	recorder ports.SessionRecorder,
	coordinator *CaptureCoordinator,
	schedulerCfg SchedulerConfig,
	instr ports.Instrumentation,
	logger *zap.SugaredLogger,
) *Engine {
	if instr == nil {
		instr = ports.NopInstrumentation{}
	}
	e := &Engine{
		session:     session,
		source:      source,
		recorder:    recorder,
		aggregator:  NewWindowAggregator(),
		talkers:     NewTopTalkers(),
		coordinator: coordinator,
		instr:       instr,
		logger:      logger,
	}
	e.scheduler = NewSnapshotScheduler(
		schedulerCfg, e.aggregator, e.talkers, coordinator,
		recorder, instr, e.LastActivity, logger,
	)
	return e
}

// Session returns the immutable session descriptor.
func (e *Engine) Session() domain.Session {
	return e.session
}

// LastActivity returns the arrival time of the most recent chat
// message, or the session start when none has arrived yet.
func (e *Engine) LastActivity() time.Time {
	nanos := e.lastActivity.Load()
	if nanos == 0 {
		return e.session.StartedAt
	}
	return time.Unix(0, nanos)
}

// Stats reports the current window counts, top talkers and retained
// viewer count. The counts read triggers window eviction.
func (e *Engine) Stats() (domain.WindowCounts, []domain.TopChatter, *int) {
	counts := e.aggregator.SnapshotCounts(time.Now())
	top := e.talkers.Top(topChatterCount)
	var viewers *int
	if count, ok := e.aggregator.LastViewerCount(); ok {
		viewers = &count
	}
	return counts, top, viewers
}

// Running reports whether the engine is between Run start and the end
// of its shutdown sequence.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Stop requests a shutdown of a running engine. Safe to call from any
// goroutine; returns immediately.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run blocks until a stop condition fires, the context is cancelled,
// or a terminal error occurs. Shutdown order: stop ingestion and
// ticks, let any in-flight capture finish or time out, then return
// with no further appends pending, so the caller can close the log.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return domain.ErrSessionRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.running = true
	e.cancel = cancel
	e.mu.Unlock()

	defer func() {
		cancel()
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	runCtx, span := tracing.StartSpan(runCtx, "session.run")
	defer span.End()
	tracing.AddSpanAttributes(runCtx,
		tracing.ChannelKey.String(e.session.ChannelName),
		tracing.SessionIDKey.String(string(e.session.ID)),
	)

	if err := e.recorder.RecordSessionStart(e.session); err != nil {
		return fmt.Errorf("append session start: %w", err)
	}
	e.instr.RecordAppended(domain.RecordTypeSessionStart)

	e.logger.Infow("session started",
		"session_id", e.session.ID,
		"channel", e.session.ChannelName,
		"chatroom_id", e.session.ChatroomID,
	)

	if e.coordinator != nil {
		e.coordinator.Start()
	}

	schedulerDone := make(chan error, 1)
	go func() {
		schedulerDone <- e.scheduler.Run(runCtx)
	}()

	sourceDone := make(chan error, 1)
	go func() {
		sourceDone <- e.source.Run(runCtx, e)
	}()

	var runErr error
	select {
	case err := <-schedulerDone:
		runErr = err
		cancel()
		e.drainSource(sourceDone)
	case err := <-sourceDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("chat source: %w", err)
		}
		cancel()
		e.scheduler.Stop()
		if err := <-schedulerDone; err != nil && runErr == nil {
			runErr = err
		}
		// source already returned
	}

	if e.coordinator != nil {
		e.coordinator.Stop()
	}

	e.mu.Lock()
	if runErr == nil {
		runErr = e.fatalErr
	}
	e.mu.Unlock()

	if runErr != nil {
		tracing.RecordError(runCtx, runErr)
	}
	e.logger.Infow("session stopped", "session_id", e.session.ID, "error", runErr)
	return runErr
}

func (e *Engine) drainSource(sourceDone <-chan error) {
	if err := <-sourceDone; err != nil && !errors.Is(err, context.Canceled) {
		e.logger.Warnw("chat source exited with error during shutdown", "error", err)
	}
}

// HandleChatMessage folds one chat event into the aggregation state
// and appends its message record. Implements ports.EventSink.
func (e *Engine) HandleChatMessage(event domain.ChatMessageEvent) {
	e.lastActivity.Store(event.ReceivedAt.UnixNano())
	e.aggregator.RecordMessage(event)
	e.talkers.RecordMessage(event.SenderID, event.SenderName)
	e.instr.MessageIngested()

	if err := e.recorder.RecordMessage(event); err != nil {
		e.fail(fmt.Errorf("append message: %w", err))
		return
	}
	e.instr.RecordAppended(domain.RecordTypeMessage)
}

// HandleViewerCount replaces the retained viewer count. Implements
// ports.EventSink.
func (e *Engine) HandleViewerCount(event domain.ViewerCountEvent) {
	e.aggregator.RecordViewerCount(event)
	e.instr.ViewerCountObserved(event.Count, event.Valid)
}

// fail records the first terminal error and triggers shutdown. A run
// cannot continue without a durable log.
func (e *Engine) fail(err error) {
	e.mu.Lock()
	if e.fatalErr == nil {
		e.fatalErr = err
	}
	cancel := e.cancel
	e.mu.Unlock()

	e.logger.Errorw("terminal error, stopping session", "error", err)
	if cancel != nil {
		cancel()
	}
}
