package archive

import (
	"fmt"
	"testing"

	"github.com/dkeye/Chatter/internal/domain"
)

func openTestArchive(t *testing.T) *SQLite {
	t.Helper()
	ar, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { ar.Close() })
	return ar
}

func mustMessage(t *testing.T, room domain.RoomName, text string) *domain.Message {
	t.Helper()
	msg, err := domain.NewMessage(room, "alice", text, nil)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	return msg
}

func TestSQLite_SaveAndRecent(t *testing.T) {
	ar := openTestArchive(t)

	for i := 0; i < 5; i++ {
		msg := mustMessage(t, "global", fmt.Sprintf("msg %d", i))
		msg.Timestamp = int64(i + 1)
		if err := ar.Save(*msg); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := ar.Recent("global", 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() returned %d, want 3", len(got))
	}
	if got[0].Text != "msg 2" || got[2].Text != "msg 4" {
		t.Errorf("Recent() spans %q..%q, want msg 2..msg 4 oldest-first", got[0].Text, got[2].Text)
	}
}

func TestSQLite_RoundTripPreservesFields(t *testing.T) {
	ar := openTestArchive(t)

	file := &domain.File{Name: "cat.png", URL: "/uploads/cat.png", MimeType: "image/png"}
	msg, err := domain.NewMessage("files", "alice", "", file)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	msg.ReadBy = []domain.Identity{"alice", "bob"}
	msg.Reactions = map[string][]domain.Identity{"👍": {"bob"}}
	if err := ar.Save(*msg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := ar.Recent("files", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent() returned %d, want 1", len(got))
	}
	back := got[0]
	if back.File == nil || back.File.Name != "cat.png" || back.File.MimeType != "image/png" {
		t.Errorf("file = %+v", back.File)
	}
	if len(back.ReadBy) != 2 {
		t.Errorf("readBy = %v", back.ReadBy)
	}
	if who := back.Reactions["👍"]; len(who) != 1 || who[0] != "bob" {
		t.Errorf("reactions = %v", back.Reactions)
	}
}

func TestSQLite_SaveIsUpsert(t *testing.T) {
	ar := openTestArchive(t)

	msg := mustMessage(t, "global", "hi")
	if err := ar.Save(*msg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	msg.ReadBy = append(msg.ReadBy, "bob")
	if err := ar.Save(*msg); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := ar.Recent("global", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("upsert produced %d rows, want 1", len(got))
	}
	if len(got[0].ReadBy) != 2 {
		t.Errorf("readBy = %v, want updated set", got[0].ReadBy)
	}
}

func TestSQLite_Rooms(t *testing.T) {
	ar := openTestArchive(t)

	for _, room := range []domain.RoomName{"a", "a", "b"} {
		if err := ar.Save(*mustMessage(t, room, "x")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	rooms, err := ar.Rooms()
	if err != nil {
		t.Fatalf("Rooms() error = %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("Rooms() = %v, want [a b]", rooms)
	}
}
