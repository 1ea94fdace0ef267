package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kickpulse/internal/core/domain"
	"kickpulse/internal/core/ports"
	"kickpulse/pkg/utils"

	"go.uber.org/zap"
)

// SchedulerState is the lifecycle state of a SnapshotScheduler.
type SchedulerState int

const (
	SchedulerIdle SchedulerState = iota
	SchedulerRunning
	SchedulerStopped
)

func (s SchedulerState) String() string {
	switch s {
	case SchedulerIdle:
		return "idle"
	case SchedulerRunning:
		return "running"
	case SchedulerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const topChatterCount = 3

// SchedulerConfig controls the snapshot cadence and the stop
// conditions.
type SchedulerConfig struct {
	Interval    time.Duration // snapshot cadence, default 1s
	MaxDuration time.Duration // stop after this much run time, 0 = unlimited
	Inactivity  time.Duration // stop after this long without a chat message, 0 = disabled
}

// SnapshotScheduler fires a recurring tick decoupled from event
// arrival. Each tick assembles one immutable snapshot from the
// aggregator, the top-talker table, the retained viewer count and the
// latest capture result, and appends it to the session log. Tick
// processing is synchronous: a tick that is due while the previous one
// is still being processed is deferred, never run concurrently.
type SnapshotScheduler struct {
	cfg          SchedulerConfig
	aggregator   *WindowAggregator
	talkers      *TopTalkers
	coordinator  *CaptureCoordinator // nil when captures are disabled
	recorder     ports.SessionRecorder
	instr        ports.Instrumentation
	lastActivity func() time.Time
	logger       *zap.SugaredLogger

	mu       sync.Mutex
	state    SchedulerState
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSnapshotScheduler(
	cfg SchedulerConfig,
	aggregator *WindowAggregator,
	talkers *TopTalkers,
	coordinator *CaptureCoordinator,
	recorder ports.SessionRecorder,
	instr ports.Instrumentation,
	lastActivity func() time.Time,
	logger *zap.SugaredLogger,
) *SnapshotScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if instr == nil {
		instr = ports.NopInstrumentation{}
	}
	return &SnapshotScheduler{
		cfg:          cfg,
		aggregator:   aggregator,
		talkers:      talkers,
		coordinator:  coordinator,
		recorder:     recorder,
		instr:        instr,
		lastActivity: lastActivity,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *SnapshotScheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop requests the scheduler to stop after the current tick.
func (s *SnapshotScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Run fires ticks until a stop condition fires or the context is
// cancelled. It returns nil on a clean stop and the append error when
// a snapshot could not be persisted; persistence failure is terminal
// for the run.
func (s *SnapshotScheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != SchedulerIdle {
		s.mu.Unlock()
		return fmt.Errorf("snapshot scheduler: %w", domain.ErrSessionRunning)
	}
	s.state = SchedulerRunning
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = SchedulerStopped
		s.mu.Unlock()
	}()

	start := time.Now()
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopChan:
			return nil
		case <-ticker.C:
			now := time.Now()
			if err := s.tick(now); err != nil {
				return err
			}
			if s.cfg.Inactivity > 0 && s.lastActivity != nil {
				if idle := now.Sub(s.lastActivity()); idle >= s.cfg.Inactivity {
					s.logger.Infow("stopping after inactivity", "idle", utils.FormatDuration(idle))
					return nil
				}
			}
			if s.cfg.MaxDuration > 0 && time.Since(start) >= s.cfg.MaxDuration {
				s.logger.Infow("stopping after max duration", "duration", utils.FormatDuration(time.Since(start)))
				return nil
			}
		}
	}
}

// tick assembles and persists one snapshot, then signals the capture
// coordinator when per-snapshot captures are active.
func (s *SnapshotScheduler) tick(now time.Time) error {
	counts := s.aggregator.SnapshotCounts(now)
	top := s.talkers.Top(topChatterCount)

	snapshot := domain.Snapshot{
		Timestamp:   now.UTC(),
		Counts:      counts,
		TopChatters: top,
	}
	if viewers, ok := s.aggregator.LastViewerCount(); ok {
		snapshot.ViewerCount = &viewers
	}
	if s.coordinator != nil {
		snapshot.Screenshot = s.coordinator.Latest()
	}

	if err := s.recorder.RecordSnapshot(snapshot); err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	s.instr.RecordAppended(domain.RecordTypeSnapshot)
	s.instr.SnapshotWritten()

	if s.coordinator != nil && s.coordinator.cfg.OnSnapshot {
		s.coordinator.Trigger()
	}
	return nil
}
