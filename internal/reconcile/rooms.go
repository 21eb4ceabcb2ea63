package reconcile

import (
	"context"
	"strconv"

	"github.com/ternarybob/veritas/internal/models"
)

// RunRooms reconciles the per-location room count: the backend's user-created
// rooms (is_default false) against the rendered expansion-panel headers on
// the devices screen. Count-based only; no identity is assumed between API
// room entries and DOM panels. Each rendered header is then clicked through
// to confirm it expands.
func (e *Engine) RunRooms(ctx context.Context) error {
	locations, err := e.loadLocations(ctx)
	if err != nil {
		return err
	}

	for i, loc := range locations {
		e.runRoomsContext(ctx, i, loc)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (e *Engine) runRoomsContext(ctx context.Context, index int, loc models.Location) {
	if err := e.selectLocation(ctx, index); err != nil {
		e.report.ContextAbandoned(loc.LocationName, err)
		return
	}

	rooms, err := e.fetcher.FetchRooms(ctx, loc.LocationID)
	if err != nil {
		e.report.ContextAbandoned(loc.LocationName, err)
		return
	}
	apiCount := models.CountUserRooms(rooms)

	if err := e.navigate(ctx, navButtonHome, navButtonDevices); err != nil {
		e.report.ContextAbandoned(loc.LocationName, err)
		return
	}

	result := models.ComparisonResult{
		Context:  loc.LocationName,
		Field:    "room_count",
		Expected: strconv.Itoa(apiCount),
	}

	uiCount, err := e.browser.Count(ctx, roomHeaders)
	if err != nil {
		result.Outcome = models.OutcomeNotFound
		result.Err = err
		e.report.Record(result)
		e.report.ContextDone(loc.LocationName)
		return
	}
	result.Observed = strconv.Itoa(uiCount)

	if apiCount == uiCount {
		result.Outcome = models.OutcomeMatch
	} else {
		result.Outcome = models.OutcomeMismatch
	}
	e.report.Record(result)

	// Expand each rendered room; a header that will not expand is logged,
	// not fatal to the pass
	for idx := 0; idx < uiCount; idx++ {
		if err := e.browser.Click(ctx, roomHeaderAt(idx)); err != nil {
			e.logger.Warn().
				Str("location", loc.LocationName).
				Int("room", idx+1).
				Err(err).
				Msg("Failed to expand room panel")
		}
	}

	if err := e.navigate(ctx, navButtonHome); err != nil {
		e.logger.Warn().Str("location", loc.LocationName).Err(err).Msg("Failed to return home after rooms pass")
	}

	e.report.ContextDone(loc.LocationName)
}
