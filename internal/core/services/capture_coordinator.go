package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"kickpulse/internal/core/domain"
	"kickpulse/internal/core/ports"
	"kickpulse/pkg/tracing"
	"kickpulse/pkg/utils"

	"go.uber.org/zap"
)

// CaptureConfig controls how and when stream frames are captured.
type CaptureConfig struct {
	StreamURL    string
	Dir          string
	Format       string // jpg or png
	FilePrefix   string
	Interval     time.Duration // fixed-interval trigger, 0 disables
	OnSnapshot   bool          // trigger on every snapshot tick
	Timeout      time.Duration // hard timeout per attempt
	MaxArtifacts int           // retention bound, 0 disables deletion
	Embed        bool          // inline base64 thumbnail into snapshots
	EmbedWidth   int
}

// CaptureCoordinator schedules capture attempts from a fixed-interval
// timer, from snapshot ticks, or both. Attempts are single-flight: a
// trigger arriving while a capture is running is dropped. A failed
// attempt is recorded in the latest result and never aborts the run.
type CaptureCoordinator struct {
	cfg      CaptureConfig
	capturer ports.Capturer
	instr    ports.Instrumentation
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	latest   *domain.CaptureResult
	retained []string
	inFlight bool
	seq      atomic.Uint64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewCaptureCoordinator(cfg CaptureConfig, capturer ports.Capturer, instr ports.Instrumentation, logger *zap.SugaredLogger) *CaptureCoordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Format == "" {
		cfg.Format = "jpg"
	}
	if instr == nil {
		instr = ports.NopInstrumentation{}
	}
	return &CaptureCoordinator{
		cfg:      cfg,
		capturer: capturer,
		instr:    instr,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the fixed-interval trigger loop when configured. The
// on-snapshot trigger is driven externally via Trigger.
func (c *CaptureCoordinator) Start() {
	if c.cfg.Interval <= 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Trigger()
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Trigger requests one capture attempt. Non-blocking: the attempt runs
// on its own goroutine with its own timeout, and the trigger is
// dropped when an attempt is already in flight or the coordinator is
// stopped.
func (c *CaptureCoordinator) Trigger() {
	select {
	case <-c.stopChan:
		return
	default:
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.capture()
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()
}

// Latest returns the most recent capture result, or nil when no
// attempt has completed yet.
func (c *CaptureCoordinator) Latest() *domain.CaptureResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return nil
	}
	result := *c.latest
	return &result
}

// Stop stops the interval trigger and waits for any in-flight attempt
// to finish or hit its timeout.
func (c *CaptureCoordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
}

// capture performs one attempt. It deliberately does not inherit the
// engine context: an in-flight capture finishes or times out on its
// own even while the engine is shutting down.
func (c *CaptureCoordinator) capture() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "capture.frame")
	defer span.End()

	// the sequence number keeps paths distinct when two attempts land
	// in the same second
	destPath := filepath.Join(c.cfg.Dir, fmt.Sprintf("%s-%s-%03d.%s",
		c.cfg.FilePrefix, utils.Timestamp(time.Now()), c.seq.Add(1), c.cfg.Format))

	result := domain.CaptureResult{Timestamp: time.Now().UTC()}
	if err := c.capturer.Capture(ctx, c.cfg.StreamURL, destPath); err != nil {
		result.Err = err.Error()
		tracing.RecordError(ctx, err)
		c.logger.Warnw("capture failed", "dest", destPath, "error", err)
	} else {
		result.Path = destPath
		if c.cfg.Embed {
			if thumb, err := c.capturer.EncodeThumbnail(ctx, destPath, c.cfg.EmbedWidth); err != nil {
				c.logger.Warnw("thumbnail encode failed", "path", destPath, "error", err)
			} else {
				result.Embedded = base64.StdEncoding.EncodeToString(thumb)
			}
		}
	}

	c.mu.Lock()
	c.latest = &result
	var expired []string
	if !result.Failed() && c.cfg.MaxArtifacts > 0 {
		c.retained = append(c.retained, result.Path)
		for len(c.retained) > c.cfg.MaxArtifacts {
			expired = append(expired, c.retained[0])
			c.retained = c.retained[1:]
		}
	}
	c.mu.Unlock()

	for _, path := range expired {
		if err := os.Remove(path); err != nil {
			c.logger.Warnw("failed to delete expired screenshot", "path", path, "error", err)
		}
	}

	c.instr.CaptureFinished(result.Failed())
}
