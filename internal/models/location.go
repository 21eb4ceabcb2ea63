package models

// Location is one selectable location as reported by the backend.
// SortID is the canonical ordering key: the UI radio list renders locations
// in ascending SortID order, and the engine addresses radio buttons by index
// into that order.
type Location struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	CountryID    string `json:"country_id"`
	TimezoneID   string `json:"timezone_id"`
	SortID       int    `json:"sort_id"`
}

// UserProfile holds the account identity fetched once per run
type UserProfile struct {
	Name    string `json:"name"`
	EmailID string `json:"email_id"`
}
