package core

import (
	"slices"
	"sync"

	"github.com/dkeye/Chatter/internal/domain"
)

// RoomLog is the bounded, ordered message log of a single room. All mutations
// go through one mutex so concurrent senders never interleave eviction
// decisions. It never touches transport resources.
type RoomLog struct {
	mu       sync.Mutex
	capacity int
	entries  []*domain.Message
	byID     map[string]*domain.Message
}

func NewRoomLog(capacity int) *RoomLog {
	return &RoomLog{
		capacity: capacity,
		byID:     make(map[string]*domain.Message),
	}
}

// Append adds msg at the tail and evicts from the head while the log exceeds
// its capacity. It returns the ids of evicted messages so the owner can drop
// any cross-room bookkeeping for them.
func (l *RoomLog) Append(msg *domain.Message) (evicted []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, msg)
	l.byID[msg.ID] = msg
	for len(l.entries) > l.capacity {
		old := l.entries[0]
		delete(l.byID, old.ID)
		evicted = append(evicted, old.ID)
		l.entries[0] = nil
		l.entries = l.entries[1:]
	}
	return evicted
}

func (l *RoomLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Recent returns copies of the up-to-limit newest messages, oldest first.
func (l *RoomLog) Recent(limit int) []domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := 0
	if limit >= 0 && len(l.entries) > limit {
		start = len(l.entries) - limit
	}
	out := make([]domain.Message, 0, len(l.entries)-start)
	for _, m := range l.entries[start:] {
		out = append(out, m.Clone())
	}
	return out
}

// AddReaction unions who into the reaction set for emoji on the addressed
// message. Unknown ids are absorbed silently: the message may have been
// evicted while the reaction was in flight. The returned snapshot is only
// meaningful when changed is true.
func (l *RoomLog) AddReaction(id string, who domain.Identity, emoji string) (snap domain.Message, changed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg, ok := l.byID[id]
	if !ok {
		return domain.Message{}, false
	}
	if slices.Contains(msg.Reactions[emoji], who) {
		return domain.Message{}, false
	}
	msg.Reactions[emoji] = append(msg.Reactions[emoji], who)
	return msg.Clone(), true
}

// MarkRead unions who into the message's readBy set. Monotonic: the set never
// shrinks. Same silent no-op rules as AddReaction.
func (l *RoomLog) MarkRead(id string, who domain.Identity) (snap domain.Message, changed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg, ok := l.byID[id]
	if !ok {
		return domain.Message{}, false
	}
	if slices.Contains(msg.ReadBy, who) {
		return domain.Message{}, false
	}
	msg.ReadBy = append(msg.ReadBy, who)
	return msg.Clone(), true
}
