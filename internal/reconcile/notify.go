package reconcile

import (
	"context"
	"strconv"

	"github.com/ternarybob/veritas/internal/decode"
	"github.com/ternarybob/veritas/internal/models"
)

// RunNotify reconciles the app-notify toggle for every location: select each
// location in turn, fetch its preference record, and compare the decoded
// enabled flag against the settings-screen toggle state.
func (e *Engine) RunNotify(ctx context.Context) error {
	locations, err := e.loadLocations(ctx)
	if err != nil {
		return err
	}

	for i, loc := range locations {
		e.runNotifyContext(ctx, i, loc)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (e *Engine) runNotifyContext(ctx context.Context, index int, loc models.Location) {
	if err := e.selectLocation(ctx, index); err != nil {
		e.report.ContextAbandoned(loc.LocationName, err)
		return
	}

	preference, err := e.fetcher.FetchPreference(ctx, loc.LocationID)
	if err != nil {
		e.report.ContextAbandoned(loc.LocationName, err)
		return
	}

	if err := e.navigate(ctx, navButtonHome, navButtonSettings); err != nil {
		e.report.ContextAbandoned(loc.LocationName, err)
		return
	}

	result := models.ComparisonResult{Context: loc.LocationName, Field: "app_notify_toggle"}

	raw, ok := preference["app_notify"].(string)
	if !ok {
		result.Outcome = models.OutcomeDecodeError
		result.Err = &decode.FieldError{Field: "app_notify", Reason: "missing from preference record"}
		e.report.Record(result)
		e.report.ContextDone(loc.LocationName)
		return
	}
	expected := decode.FlagEnabled(raw)
	result.Expected = strconv.FormatBool(expected)

	observed, err := e.readToggle(ctx, notifyToggleInput, notifyToggleHost)
	if err != nil {
		result.Outcome = models.OutcomeNotFound
		result.Err = err
		e.report.Record(result)
		e.report.ContextDone(loc.LocationName)
		return
	}
	result.Observed = strconv.FormatBool(observed)

	if expected == observed {
		result.Outcome = models.OutcomeMatch
	} else {
		result.Outcome = models.OutcomeMismatch
	}
	e.report.Record(result)
	e.report.ContextDone(loc.LocationName)
}
