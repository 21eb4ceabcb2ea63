package models

// Room is one room (or device group) reported by the backend for a location.
// IsDefault marks system-created rooms that the UI never renders as headers.
type Room struct {
	RoomID    string `json:"room_id"`
	RoomName  string `json:"room_name"`
	IsDefault bool   `json:"is_default"`
}

// CountUserRooms returns the number of rooms the UI is expected to render,
// i.e. rooms with is_default == false.
func CountUserRooms(rooms []Room) int {
	count := 0
	for _, r := range rooms {
		if !r.IsDefault {
			count++
		}
	}
	return count
}
