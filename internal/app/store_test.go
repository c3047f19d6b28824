package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Chatter/internal/domain"
)

func mustMessage(t *testing.T, room domain.RoomName, sender domain.Identity, text string) *domain.Message {
	t.Helper()
	msg, err := domain.NewMessage(room, sender, text, nil)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	return msg
}

type fakeArchive struct {
	mu    sync.Mutex
	saved map[string]domain.Message
	seed  map[domain.RoomName][]domain.Message
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{
		saved: make(map[string]domain.Message),
		seed:  make(map[domain.RoomName][]domain.Message),
	}
}

func (a *fakeArchive) Save(msg domain.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved[msg.ID] = msg
	return nil
}

func (a *fakeArchive) Recent(room domain.RoomName, limit int) ([]domain.Message, error) {
	msgs := a.seed[room]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (a *fakeArchive) Rooms() ([]domain.RoomName, error) {
	out := make([]domain.RoomName, 0, len(a.seed))
	for room := range a.seed {
		out = append(out, room)
	}
	return out, nil
}

func TestRoomStore_AppendCreatesRoomLazily(t *testing.T) {
	s := NewRoomStore(1000, nil)
	if rooms := s.Rooms(); len(rooms) != 0 {
		t.Fatalf("Rooms() = %v, want empty", rooms)
	}

	stored := s.Append(mustMessage(t, "global", "alice", "hi"))
	if stored.ID == "" || stored.Timestamp <= 0 {
		t.Errorf("stored message missing id or timestamp: %+v", stored)
	}
	if len(stored.ReadBy) != 1 || stored.ReadBy[0] != "alice" {
		t.Errorf("ReadBy = %v, want [alice]", stored.ReadBy)
	}
	if len(stored.Reactions) != 0 {
		t.Errorf("Reactions = %v, want empty", stored.Reactions)
	}
	if rooms := s.Rooms(); len(rooms) != 1 || rooms[0] != "global" {
		t.Errorf("Rooms() = %v, want [global]", rooms)
	}
}

func TestRoomStore_CapacityAndEvictedIndex(t *testing.T) {
	s := NewRoomStore(3, nil)
	first := s.Append(mustMessage(t, "x", "alice", "first"))
	for i := 0; i < 3; i++ {
		s.Append(mustMessage(t, "x", "alice", fmt.Sprintf("msg %d", i)))
	}

	if got := s.Len("x"); got != 3 {
		t.Fatalf("Len(x) = %d, want 3", got)
	}

	// The evicted message is no longer addressable.
	if _, changed := s.AddReaction(first.ID, "bob", "👍"); changed {
		t.Error("AddReaction() on evicted message should be a no-op")
	}
	if _, changed := s.MarkRead(first.ID, "bob"); changed {
		t.Error("MarkRead() on evicted message should be a no-op")
	}
}

func TestRoomStore_RecentHistory(t *testing.T) {
	s := NewRoomStore(1000, nil)
	for i := 0; i < 60; i++ {
		msg := mustMessage(t, "y", "alice", fmt.Sprintf("msg %d", i))
		msg.Timestamp = int64(i + 1)
		s.Append(msg)
	}

	history := s.RecentHistory("y", 50)
	if len(history) != 50 {
		t.Fatalf("RecentHistory() returned %d, want 50", len(history))
	}
	if history[0].Text != "msg 10" || history[49].Text != "msg 59" {
		t.Errorf("history spans %q..%q, want msg 10..msg 59", history[0].Text, history[49].Text)
	}

	if got := s.RecentHistory("never-seen", 50); len(got) != 0 {
		t.Errorf("RecentHistory() for unknown room = %v, want empty", got)
	}
}

func TestRoomStore_RoomsAreIndependent(t *testing.T) {
	s := NewRoomStore(2, nil)
	s.Append(mustMessage(t, "a", "alice", "in a"))
	for i := 0; i < 5; i++ {
		s.Append(mustMessage(t, "b", "bob", fmt.Sprintf("flood %d", i)))
	}

	// Flooding room b never evicts room a.
	if got := s.Len("a"); got != 1 {
		t.Errorf("Len(a) = %d, want 1", got)
	}
	if got := s.Len("b"); got != 2 {
		t.Errorf("Len(b) = %d, want 2", got)
	}
}

func TestRoomStore_AnnotationsAddressableAcrossRooms(t *testing.T) {
	s := NewRoomStore(1000, nil)
	inA := s.Append(mustMessage(t, "a", "alice", "in a"))
	s.Append(mustMessage(t, "b", "bob", "in b"))

	snap, changed := s.AddReaction(inA.ID, "bob", "🎉")
	if !changed {
		t.Fatal("AddReaction() should find the message by id alone")
	}
	if snap.Room != "a" {
		t.Errorf("snapshot room = %q, want a", snap.Room)
	}
}

func TestRoomStore_ArchiveHook(t *testing.T) {
	ar := newFakeArchive()
	s := NewRoomStore(1000, ar)

	stored := s.Append(mustMessage(t, "global", "alice", "hi"))
	if _, ok := ar.saved[stored.ID]; !ok {
		t.Fatal("Append() should save to the archive")
	}

	s.MarkRead(stored.ID, "bob")
	if got := ar.saved[stored.ID]; len(got.ReadBy) != 2 {
		t.Errorf("archived ReadBy = %v, want sender plus reader", got.ReadBy)
	}
}

func TestRoomStore_Rehydrate(t *testing.T) {
	ar := newFakeArchive()
	for i := 0; i < 3; i++ {
		msg := mustMessage(t, "global", "alice", fmt.Sprintf("old %d", i))
		msg.Timestamp = int64(i + 1)
		ar.seed["global"] = append(ar.seed["global"], *msg)
	}

	s := NewRoomStore(1000, ar)
	if err := s.Rehydrate(); err != nil {
		t.Fatalf("Rehydrate() error = %v", err)
	}

	history := s.RecentHistory("global", 50)
	if len(history) != 3 {
		t.Fatalf("RecentHistory() after rehydrate = %d messages, want 3", len(history))
	}
	if history[0].Text != "old 0" {
		t.Errorf("oldest rehydrated = %q, want old 0", history[0].Text)
	}

	// Rehydrated messages stay addressable for annotations.
	if _, changed := s.MarkRead(history[0].ID, "bob"); !changed {
		t.Error("MarkRead() on a rehydrated message should succeed")
	}
}
