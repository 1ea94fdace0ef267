package services

import (
	"sync"
	"time"

	"kickpulse/internal/core/domain"
)

type windowEntry struct {
	at     time.Time
	sender string
}

// slidingWindow is a time-ordered queue of message arrivals with a
// reference-counted sender membership map, so count and unique queries
// stay O(1) after eviction.
type slidingWindow struct {
	size    time.Duration
	entries []windowEntry
	members map[string]int
}

func newSlidingWindow(size time.Duration) *slidingWindow {
	return &slidingWindow{
		size:    size,
		members: make(map[string]int),
	}
}

func (w *slidingWindow) add(sender string, at time.Time) {
	w.entries = append(w.entries, windowEntry{at: at, sender: sender})
	w.members[sender]++
}

// evict pops entries strictly older than the window size, so the
// queue afterwards covers exactly [now-size, now).
func (w *slidingWindow) evict(now time.Time) {
	cutoff := now.Add(-w.size)
	i := 0
	for i < len(w.entries) && w.entries[i].at.Before(cutoff) {
		sender := w.entries[i].sender
		if w.members[sender] <= 1 {
			delete(w.members, sender)
		} else {
			w.members[sender]--
		}
		i++
	}
	if i > 0 {
		w.entries = w.entries[i:]
		if len(w.entries) == 0 {
			w.entries = nil
		}
	}
}

func (w *slidingWindow) count() int  { return len(w.entries) }
func (w *slidingWindow) unique() int { return len(w.members) }

// WindowAggregator owns the rolling 1-second and 60-second counting
// windows, the lifetime totals and the last retained viewer count.
// All methods are safe for concurrent use; reads that compute window
// counts also evict aged entries, so every access takes the exclusive
// lock.
type WindowAggregator struct {
	mu sync.Mutex

	second *slidingWindow
	minute *slidingWindow

	totalMessages int
	seenSenders   map[string]struct{}

	viewerCount      int
	viewerCountValid bool
}

func NewWindowAggregator() *WindowAggregator {
	return &WindowAggregator{
		second:      newSlidingWindow(time.Second),
		minute:      newSlidingWindow(time.Minute),
		seenSenders: make(map[string]struct{}),
	}
}

// RecordMessage folds one chat event into both windows and the
// lifetime totals. O(1) amortized.
func (a *WindowAggregator) RecordMessage(event domain.ChatMessageEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.second.add(event.SenderID, event.ReceivedAt)
	a.minute.add(event.SenderID, event.ReceivedAt)
	a.totalMessages++
	a.seenSenders[event.SenderID] = struct{}{}
}

// RecordViewerCount replaces the retained viewer count. Last write
// wins; an invalid observation clears the value.
func (a *WindowAggregator) RecordViewerCount(event domain.ViewerCountEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.viewerCount = event.Count
	a.viewerCountValid = event.Valid
}

// SnapshotCounts evicts aged entries from both windows and returns the
// current counts. This is a mutating read.
func (a *WindowAggregator) SnapshotCounts(now time.Time) domain.WindowCounts {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.second.evict(now)
	a.minute.evict(now)

	return domain.WindowCounts{
		MessagesPerSecond: a.second.count(),
		MessagesPerMinute: a.minute.count(),
		UniquePerSecond:   a.second.unique(),
		UniquePerMinute:   a.minute.unique(),
		TotalMessages:     a.totalMessages,
		UniqueTotal:       len(a.seenSenders),
	}
}

// LastViewerCount returns the retained viewer count, if any.
func (a *WindowAggregator) LastViewerCount() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewerCount, a.viewerCountValid
}
