package api

import (
	"context"
	"fmt"

	"github.com/ternarybob/veritas/internal/models"
)

// FetchSettingsBundle issues the independent per-location GETs that make up a
// settings bundle. Each call failure is caught individually and stored as an
// error marker under that sub-record's key; the function never aborts early.
// Partial bundles are valid and expected.
func (c *Client) FetchSettingsBundle(ctx context.Context, loc models.Location) (*models.SettingsBundle, error) {
	endpoints := []struct {
		path string
		key  models.SubRecordKey
	}{
		{fmt.Sprintf("/v1/location/%s/settings", loc.LocationID), models.SubLocationSettings},
		{fmt.Sprintf("/v1/location/%s/get", loc.LocationID), models.SubLocationDetail},
		{"/v1/company-codes/gettimezone", models.SubCompanyTimezones},
		{"/v1/location/get", models.SubAllLocations},
		{fmt.Sprintf("/v1/company-v2/get/%s", loc.CountryID), models.SubCompanyDetail},
		{fmt.Sprintf("/v1/timezone/get/%s", loc.TimezoneID), models.SubTimezoneDetail},
		{fmt.Sprintf("/v1/location/preference/%s/get", loc.LocationID), models.SubPreferenceDetail},
	}

	bundle := models.NewSettingsBundle(loc.LocationID)

	for _, ep := range endpoints {
		obj, err := c.getObject(ctx, ep.path)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn().
					Str("sub_record", string(ep.key)).
					Str("endpoint", ep.path).
					Err(err).
					Msg("Settings sub-record fetch failed, continuing with partial bundle")
			}
			bundle.SetError(ep.key, err)
			continue
		}
		bundle.SetRecord(ep.key, obj)
	}

	return bundle, nil
}

// FetchPreference retrieves the preference sub-record alone, used by the
// notification pass which does not need a full bundle per location
func (c *Client) FetchPreference(ctx context.Context, locationID string) (map[string]interface{}, error) {
	return c.getObject(ctx, fmt.Sprintf("/v1/location/preference/%s/get", locationID))
}
