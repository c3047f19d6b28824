package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Chatter/internal/core"
	"github.com/dkeye/Chatter/internal/domain"
)

var errSendFailed = errors.New("send failed")

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errSendFailed
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	for i, f := range c.frames {
		out[i] = []byte(f)
	}
	return out
}

func memberIDs(members []MemberSnap) map[core.SessionID]bool {
	out := make(map[core.SessionID]bool, len(members))
	for _, m := range members {
		out[m.SID] = true
	}
	return out
}

func TestRegistry_RegisterJoinsGlobal(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "alice", &fakeConn{})

	members := r.MembersOf(domain.GlobalRoom)
	if len(members) != 1 || members[0].SID != "s1" || members[0].Identity != "alice" {
		t.Fatalf("MembersOf(global) = %+v, want s1/alice", members)
	}
	if current, _ := r.CurrentRoom("s1"); current != domain.GlobalRoom {
		t.Errorf("CurrentRoom = %q, want global", current)
	}
}

func TestRegistry_JoinLeave(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "alice", &fakeConn{})
	r.Register("s2", "bob", &fakeConn{})

	if !r.Join("s1", "go") {
		t.Fatal("Join() on a registered session returned false")
	}
	// Join is a no-op when already joined.
	r.Join("s1", "go")

	members := memberIDs(r.MembersOf("go"))
	if len(members) != 1 || !members["s1"] {
		t.Fatalf("MembersOf(go) = %v, want {s1}", members)
	}
	if current, _ := r.CurrentRoom("s1"); current != "go" {
		t.Errorf("CurrentRoom = %q, want go", current)
	}

	r.Leave("s1", "go")
	if got := r.MembersOf("go"); len(got) != 0 {
		t.Errorf("MembersOf(go) after leave = %v, want empty", got)
	}
	if current, _ := r.CurrentRoom("s1"); current != domain.GlobalRoom {
		t.Errorf("CurrentRoom after leave = %q, want global", current)
	}

	// Leaving a room never joined is a no-op.
	r.Leave("s2", "go")
}

func TestRegistry_JoinUnknownSession(t *testing.T) {
	r := NewRegistry()
	if r.Join("ghost", "go") {
		t.Error("Join() for an unknown session should return false")
	}
}

func TestRegistry_DeregisterCleansIndex(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "alice", &fakeConn{})
	r.Join("s1", "go")
	r.Join("s1", "random")

	r.Deregister("s1")

	for _, room := range []domain.RoomName{domain.GlobalRoom, "go", "random"} {
		if got := r.MembersOf(room); len(got) != 0 {
			t.Errorf("MembersOf(%s) after deregister = %v, want empty", room, got)
		}
	}
	if _, ok := r.IdentityOf("s1"); ok {
		t.Error("IdentityOf() should fail after deregister")
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistry_DeregisterUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	// A handshake that failed before registration still calls deregister.
	r.Deregister("never-registered")
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistry_DuplicateIdentitiesStayIndependent(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "alice", &fakeConn{})
	r.Register("s2", "alice", &fakeConn{})
	r.Join("s1", "go")

	members := memberIDs(r.MembersOf("go"))
	if len(members) != 1 || !members["s1"] {
		t.Errorf("MembersOf(go) = %v, want only s1; sessions must not merge by identity", members)
	}

	r.Deregister("s1")
	if _, ok := r.IdentityOf("s2"); !ok {
		t.Error("deregistering one session must not touch the other")
	}
}

func TestRegistry_RoomsOf(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", "alice", &fakeConn{})
	r.Join("s1", "go")

	rooms := r.RoomsOf("s1")
	if len(rooms) != 2 {
		t.Fatalf("RoomsOf() = %v, want 2 rooms", rooms)
	}
	seen := map[domain.RoomName]bool{}
	for _, room := range rooms {
		seen[room] = true
	}
	if !seen[domain.GlobalRoom] || !seen["go"] {
		t.Errorf("RoomsOf() = %v, want global and go", rooms)
	}
}
