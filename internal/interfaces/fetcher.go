package interfaces

import (
	"context"

	"github.com/ternarybob/veritas/internal/models"
)

// Fetcher is the capability contract over the backend REST API. All methods
// return authoritative values; none of them retries (the backend is assumed
// reliable relative to the UI).
type Fetcher interface {
	// FetchLocations returns all locations sorted by sort_id ascending,
	// stable on ties. The order is load-bearing: the engine addresses UI
	// radio buttons positionally against it.
	FetchLocations(ctx context.Context) ([]models.Location, error)

	// FetchUserProfile returns the account identity
	FetchUserProfile(ctx context.Context) (*models.UserProfile, error)

	// FetchSettingsBundle issues the independent per-location settings
	// fetches. Individual failures are recorded inside the bundle; the
	// returned error is non-nil only when the bundle itself could not be
	// assembled.
	FetchSettingsBundle(ctx context.Context, loc models.Location) (*models.SettingsBundle, error)

	// FetchPreference returns the preference sub-record for one location
	FetchPreference(ctx context.Context, locationID string) (map[string]interface{}, error)

	// FetchRooms returns the rooms for a location, tolerating the several
	// response shapes the backend produces
	FetchRooms(ctx context.Context, locationID string) ([]models.Room, error)
}
