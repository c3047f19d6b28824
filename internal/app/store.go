package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chatter/internal/core"
	"github.com/dkeye/Chatter/internal/domain"
)

// Archive is the optional durable backing for room logs. The in-memory
// bounded log stays authoritative; archive failures are logged and dropped.
type Archive interface {
	Save(msg domain.Message) error
	Recent(room domain.RoomName, limit int) ([]domain.Message, error)
	Rooms() ([]domain.RoomName, error)
}

// RoomStore owns one bounded log per room. Logs are created lazily; the store
// lock only guards the room map and the message-id index, each log serializes
// its own mutations, so traffic in one room never stalls another.
type RoomStore struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomName]*core.RoomLog
	roomByID map[string]domain.RoomName
	capacity int
	archive  Archive
}

func NewRoomStore(capacity int, archive Archive) *RoomStore {
	return &RoomStore{
		rooms:    make(map[domain.RoomName]*core.RoomLog),
		roomByID: make(map[string]domain.RoomName),
		capacity: capacity,
		archive:  archive,
	}
}

// Rehydrate seeds the in-memory logs from the archive, newest capacity
// messages per room. Called once at startup, before any traffic.
func (s *RoomStore) Rehydrate() error {
	if s.archive == nil {
		return nil
	}
	rooms, err := s.archive.Rooms()
	if err != nil {
		return err
	}
	for _, room := range rooms {
		msgs, err := s.archive.Recent(room, s.capacity)
		if err != nil {
			return err
		}
		rl := s.logFor(room)
		s.mu.Lock()
		for i := range msgs {
			m := msgs[i]
			rl.Append(&m)
			s.roomByID[m.ID] = room
		}
		s.mu.Unlock()
		log.Info().Str("module", "app.store").Str("room", string(room)).Int("messages", len(msgs)).Msg("rehydrated room")
	}
	return nil
}

// Append assigns msg to the tail of its room's log, evicting from the head
// once the log exceeds capacity, and returns the stored snapshot.
func (s *RoomStore) Append(msg *domain.Message) domain.Message {
	rl := s.logFor(msg.Room)
	evicted := rl.Append(msg)
	s.mu.Lock()
	s.roomByID[msg.ID] = msg.Room
	for _, id := range evicted {
		delete(s.roomByID, id)
	}
	s.mu.Unlock()
	s.save(*msg)
	return msg.Clone()
}

// RecentHistory returns up to limit newest messages of room, oldest first.
// The limit is independent of log capacity: join-time reads cap the payload
// for new joiners even though the log holds far more.
func (s *RoomStore) RecentHistory(room domain.RoomName, limit int) []domain.Message {
	s.mu.RLock()
	rl, ok := s.rooms[room]
	s.mu.RUnlock()
	if !ok {
		return []domain.Message{}
	}
	return rl.Recent(limit)
}

// AddReaction is an idempotent union-insert into the emoji's reaction set.
// Unknown or evicted message ids are absorbed silently.
func (s *RoomStore) AddReaction(messageID string, who domain.Identity, emoji string) (domain.Message, bool) {
	rl, ok := s.logOf(messageID)
	if !ok {
		return domain.Message{}, false
	}
	snap, changed := rl.AddReaction(messageID, who, emoji)
	if changed {
		s.save(snap)
	}
	return snap, changed
}

// MarkRead is an idempotent union-insert into the message's readBy set.
func (s *RoomStore) MarkRead(messageID string, who domain.Identity) (domain.Message, bool) {
	rl, ok := s.logOf(messageID)
	if !ok {
		return domain.Message{}, false
	}
	snap, changed := rl.MarkRead(messageID, who)
	if changed {
		s.save(snap)
	}
	return snap, changed
}

// Rooms lists rooms that have stored at least one message.
func (s *RoomStore) Rooms() []domain.RoomName {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RoomName, 0, len(s.rooms))
	for room := range s.rooms {
		out = append(out, room)
	}
	return out
}

func (s *RoomStore) Len(room domain.RoomName) int {
	s.mu.RLock()
	rl, ok := s.rooms[room]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return rl.Len()
}

func (s *RoomStore) logFor(room domain.RoomName) *core.RoomLog {
	s.mu.RLock()
	rl, ok := s.rooms[room]
	s.mu.RUnlock()
	if ok {
		return rl
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rl, ok = s.rooms[room]; ok {
		return rl
	}
	rl = core.NewRoomLog(s.capacity)
	s.rooms[room] = rl
	return rl
}

func (s *RoomStore) logOf(messageID string) (*core.RoomLog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.roomByID[messageID]
	if !ok {
		return nil, false
	}
	rl, ok := s.rooms[room]
	return rl, ok
}

func (s *RoomStore) save(msg domain.Message) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(msg); err != nil {
		log.Error().Err(err).Str("module", "app.store").Str("id", msg.ID).Msg("archive save failed")
	}
}
