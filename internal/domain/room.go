package domain

import (
	"errors"
	"strings"
)

type RoomName string

// GlobalRoom is joined automatically on registration.
const GlobalRoom RoomName = "global"

const MaxRoomNameLen = 36

var ErrRoomNameEmpty = errors.New("room name empty")

// NewRoomName trims and bounds a requested room name. Rooms are created
// implicitly on first join or append, so there is no "not found" case.
func NewRoomName(raw string) (RoomName, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrRoomNameEmpty
	}
	if len(raw) > MaxRoomNameLen {
		raw = raw[:MaxRoomNameLen]
	}
	return RoomName(raw), nil
}
