package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/veritas/internal/models"
)

// FetchRooms retrieves the rooms for a location. The backend has produced
// three shapes for this payload over time and all are tolerated:
//
//   - an object with a "rooms" array of room objects
//   - a bare array of room objects
//   - an object with only a comma-separated "room_ids" string
//
// Room objects without an explicit is_default=false are treated as
// system-default rooms and excluded from the user-room count.
func (c *Client) FetchRooms(ctx context.Context, locationID string) ([]models.Room, error) {
	data, err := c.getData(ctx, fmt.Sprintf("/v1/location/device/%s/all", locationID))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	// Bare array shape
	var list []map[string]interface{}
	if err := json.Unmarshal(data, &list); err == nil {
		return roomsFromList(list), nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("unexpected rooms payload for %s: %w", locationID, err)
	}

	// Object-with-rooms shape
	if rawRooms, ok := obj["rooms"].([]interface{}); ok {
		entries := make([]map[string]interface{}, 0, len(rawRooms))
		for _, r := range rawRooms {
			if entry, ok := r.(map[string]interface{}); ok {
				entries = append(entries, entry)
			}
		}
		if len(entries) > 0 {
			return roomsFromList(entries), nil
		}
	}

	// Comma-separated fallback shape: every listed id is a user room
	if csv := stringField(obj, "room_ids"); strings.TrimSpace(csv) != "" {
		var rooms []models.Room
		for _, id := range strings.Split(csv, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			rooms = append(rooms, models.Room{RoomID: id, IsDefault: false})
		}
		return rooms, nil
	}

	return nil, nil
}

func roomsFromList(entries []map[string]interface{}) []models.Room {
	rooms := make([]models.Room, 0, len(entries))
	for _, entry := range entries {
		room := models.Room{
			RoomID:   stringField(entry, "room_id"),
			RoomName: stringField(entry, "room_name"),
			// Absent is_default counts as default: only an explicit
			// false marks a user-created room
			IsDefault: true,
		}
		if room.RoomID == "" {
			room.RoomID = stringField(entry, "device_id")
		}
		if room.RoomName == "" {
			room.RoomName = stringField(entry, "device_name")
		}
		if isDefault, ok := entry["is_default"].(bool); ok {
			room.IsDefault = isDefault
		}
		rooms = append(rooms, room)
	}
	return rooms
}
