package sessionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"kickpulse/internal/core/domain"
	apperrors "kickpulse/pkg/errors"
)

// WriterConfig controls the session log file.
type WriterConfig struct {
	Path  string
	Fsync bool // fsync after every append instead of only flushing
}

// Writer is the single sequential writer behind the append-only
// session log: one JSON object per line, flushed before the append is
// acknowledged. Concurrent callers are serialized; records are never
// rewritten or reordered.
type Writer struct {
	cfg WriterConfig

	mu     sync.Mutex
	file   *os.File
	closed bool
}

// NewWriter creates the log file, truncating an existing one.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeLogWrite, "failed to create session log")
	}
	return &Writer{cfg: cfg, file: file}, nil
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.cfg.Path
}

// RecordSessionStart appends the session header. Must be the first
// record of the log.
func (w *Writer) RecordSessionStart(session domain.Session) error {
	return w.append(domain.NewSessionStartRecord(session))
}

// RecordMessage appends one message record in arrival order.
func (w *Writer) RecordMessage(event domain.ChatMessageEvent) error {
	return w.append(domain.NewMessageRecord(event))
}

// RecordSnapshot appends one snapshot record in tick order.
func (w *Writer) RecordSnapshot(snapshot domain.Snapshot) error {
	return w.append(domain.NewSnapshotRecord(snapshot))
}

func (w *Writer) append(record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeLogWrite, "failed to encode record")
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("append record: %w", domain.ErrLogClosed)
	}
	if _, err := w.file.Write(data); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeLogWrite, "failed to append record")
	}
	if w.cfg.Fsync {
		if err := w.file.Sync(); err != nil {
			return apperrors.WrapError(err, apperrors.ErrCodeLogWrite, "failed to sync session log")
		}
	}
	return nil
}

// Close flushes and closes the log. Appends after Close fail with
// ErrLogClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return apperrors.WrapError(err, apperrors.ErrCodeLogWrite, "failed to sync session log")
	}
	return w.file.Close()
}
