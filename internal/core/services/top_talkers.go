package services

import (
	"sort"
	"sync"

	"kickpulse/internal/core/domain"
)

type talkerEntry struct {
	name  string
	count int
	seq   int // first-seen insertion order, breaks ranking ties
}

// TopTalkers tracks cumulative per-sender message counts for the
// lifetime of a session. Counts are monotonically non-decreasing and
// never evicted; the display name follows the last seen event for a
// sender id.
type TopTalkers struct {
	mu      sync.Mutex
	talkers map[string]*talkerEntry
	nextSeq int
}

func NewTopTalkers() *TopTalkers {
	return &TopTalkers{
		talkers: make(map[string]*talkerEntry),
	}
}

// RecordMessage increments the cumulative count for a sender.
func (t *TopTalkers) RecordMessage(senderID, senderName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.talkers[senderID]
	if !ok {
		entry = &talkerEntry{seq: t.nextSeq}
		t.nextSeq++
		t.talkers[senderID] = entry
	}
	entry.name = senderName
	entry.count++
}

// Top returns the n senders with the highest cumulative counts, ties
// broken by earliest first appearance. Recomputes the full ranking;
// talker tables are small relative to the snapshot cadence.
func (t *TopTalkers) Top(n int) []domain.TopChatter {
	t.mu.Lock()
	defer t.mu.Unlock()

	type ranked struct {
		id    string
		entry *talkerEntry
	}
	all := make([]ranked, 0, len(t.talkers))
	for id, entry := range t.talkers {
		all = append(all, ranked{id: id, entry: entry})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].entry.count != all[j].entry.count {
			return all[i].entry.count > all[j].entry.count
		}
		return all[i].entry.seq < all[j].entry.seq
	})

	if n > len(all) {
		n = len(all)
	}
	top := make([]domain.TopChatter, 0, n)
	for _, r := range all[:n] {
		top = append(top, domain.TopChatter{
			SenderID:   r.id,
			SenderName: r.entry.name,
			Count:      r.entry.count,
		})
	}
	return top
}
