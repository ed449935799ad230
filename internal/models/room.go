package models

import (
	"fmt"
	"strconv"
	"strings"
)

type Room struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CreateRoomRequest struct {
	Name string `json:"name"`
}

const privateRoomPrefix = "private_"

// PrivateRoomName returns the canonical 1:1 room name for a pair of user IDs.
// The lower ID always comes first so both participants derive the same name.
func PrivateRoomName(a, b int) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s%d_%d", privateRoomPrefix, a, b)
}

// IsPrivateRoom reports whether name follows the private_<idA>_<idB> convention.
func IsPrivateRoom(name string) bool {
	return strings.HasPrefix(name, privateRoomPrefix)
}

// PrivateRoomParticipants parses the two user IDs out of a private room name.
// Returns false for group rooms or malformed names.
func PrivateRoomParticipants(name string) (int, int, bool) {
	if !strings.HasPrefix(name, privateRoomPrefix) {
		return 0, 0, false
	}
	parts := strings.SplitN(name[len(privateRoomPrefix):], "_", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}
