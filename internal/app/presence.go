package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chatter/internal/core"
	"github.com/dkeye/Chatter/internal/domain"
)

type presenceKey struct {
	Room     domain.RoomName
	Identity domain.Identity
}

// PresenceTracker holds ephemeral typing state per (room, identity). The
// state lives outside the room store: it is never persisted and never appears
// in history. A janitor expires flags whose stop signal got lost, so a missed
// toggle or disconnect cannot wedge the indicator.
type PresenceTracker struct {
	mu     sync.Mutex
	typing map[presenceKey]time.Time
	cast   *Broadcaster
	ttl    time.Duration
}

// NewPresenceTracker builds a tracker; ttl <= 0 disables idle expiry.
func NewPresenceTracker(cast *Broadcaster, ttl time.Duration) *PresenceTracker {
	return &PresenceTracker{
		typing: make(map[presenceKey]time.Time),
		cast:   cast,
		ttl:    ttl,
	}
}

// SetTyping records the flag and fans it out to the room, excluding the actor.
func (p *PresenceTracker) SetTyping(room domain.RoomName, from core.SessionID, identity domain.Identity, isTyping bool) {
	key := presenceKey{Room: room, Identity: identity}
	p.mu.Lock()
	if isTyping {
		p.typing[key] = time.Now()
	} else {
		delete(p.typing, key)
	}
	p.mu.Unlock()
	p.cast.Typing(room, from, identity, isTyping)
}

// IsTyping reports the current flag for (room, identity).
func (p *PresenceTracker) IsTyping(room domain.RoomName, identity domain.Identity) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.typing[presenceKey{Room: room, Identity: identity}]
	return ok
}

// Clear drops every typing flag the identity holds, without fanout. Used on
// deregister so a vanished connection leaves no stale indicator behind.
func (p *PresenceTracker) Clear(identity domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key := range p.typing {
		if key.Identity == identity {
			delete(p.typing, key)
		}
	}
}

// Run sweeps expired flags until ctx is done. Expired flags fan out a
// cleared typing event to the whole room; the actor's session is unknown by
// then, so nobody is excluded.
func (p *PresenceTracker) Run(ctx context.Context) {
	if p.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(p.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, key := range p.expire(now) {
				log.Debug().Str("module", "app.presence").Str("room", string(key.Room)).Str("identity", string(key.Identity)).Msg("typing flag expired")
				p.cast.Typing(key.Room, "", key.Identity, false)
			}
		}
	}
}

func (p *PresenceTracker) expire(now time.Time) []presenceKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []presenceKey
	for key, since := range p.typing {
		if now.Sub(since) >= p.ttl {
			delete(p.typing, key)
			out = append(out, key)
		}
	}
	return out
}
