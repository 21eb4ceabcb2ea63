package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/veritas/internal/models"
)

// FetchLocations retrieves all locations and returns them sorted by sort_id
// ascending, stable on ties. This ordering is load-bearing: the UI radio list
// renders in the same order and the engine addresses the Nth radio button by
// index into this slice.
func (c *Client) FetchLocations(ctx context.Context) ([]models.Location, error) {
	data, err := c.getData(ctx, "/v1/location/get")
	if err != nil {
		return nil, err
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unexpected locations payload: %w", err)
	}

	locations := make([]models.Location, 0, len(raw))
	for _, obj := range raw {
		loc := models.Location{
			LocationID:   strings.TrimSpace(stringField(obj, "location_id")),
			LocationName: strings.TrimSpace(stringField(obj, "location_name")),
			CountryID:    stringField(obj, "country_id"),
			TimezoneID:   stringField(obj, "timezone_id"),
		}
		// The backend has shipped both spellings of the ordering key
		if n, ok := intField(obj, "sortid"); ok {
			loc.SortID = n
		} else if n, ok := intField(obj, "sort_id"); ok {
			loc.SortID = n
		}
		locations = append(locations, loc)
	}

	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].SortID < locations[j].SortID
	})

	if c.logger != nil {
		names := make([]string, len(locations))
		for i, loc := range locations {
			names[i] = loc.LocationName
		}
		c.logger.Debug().Strs("locations", names).Msg("Fetched sorted location list")
	}

	return locations, nil
}

// FetchUserProfile retrieves the account identity for the profile pass
func (c *Client) FetchUserProfile(ctx context.Context) (*models.UserProfile, error) {
	obj, err := c.getObject(ctx, "/v1/user/details")
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{
		Name:    strings.TrimSpace(stringField(obj, "name")),
		EmailID: strings.TrimSpace(stringField(obj, "email_id")),
	}, nil
}
