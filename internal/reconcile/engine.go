// Package reconcile drives the UI/API comparison passes: it selects a UI
// context, fetches the authoritative record for it, extracts and decodes each
// tracked field, and records the outcome. All UI addressing is positional
// against the sorted location list, guarded by an explicit rendered-order
// contract check.
package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/veritas/internal/decode"
	"github.com/ternarybob/veritas/internal/interfaces"
	"github.com/ternarybob/veritas/internal/models"
)

// OrderContractError reports a violation of the rendered-order contract: the
// UI location list did not render in sorted sort_id order. Every positional
// selection after such a violation would silently target the wrong location,
// so the run fails loudly instead.
type OrderContractError struct {
	Index    int
	Expected string
	Rendered string
}

func (e *OrderContractError) Error() string {
	return fmt.Sprintf("location list order contract violated at index %d: expected %q, rendered %q",
		e.Index, e.Expected, e.Rendered)
}

// Engine orchestrates the reconciliation passes over the browser and fetcher
// capabilities
type Engine struct {
	browser interfaces.Browser
	fetcher interfaces.Fetcher
	logger  arbor.ILogger
	report  *Reporter

	locations []models.Location
}

// NewEngine creates an engine bound to one browser session and one fetcher
func NewEngine(b interfaces.Browser, f interfaces.Fetcher, logger arbor.ILogger, report *Reporter) *Engine {
	return &Engine{
		browser: b,
		fetcher: f,
		logger:  logger,
		report:  report,
	}
}

// loadLocations fetches the sorted location list once per run
func (e *Engine) loadLocations(ctx context.Context) ([]models.Location, error) {
	if e.locations != nil {
		return e.locations, nil
	}
	locs, err := e.fetcher.FetchLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}
	e.locations = locs
	return locs, nil
}

// EnterDashboard takes the freshly logged-in session past the location
// chooser: verify the rendered list against the sorted API list (when the
// locations check is enabled), select the first location, and continue to
// the dashboard.
func (e *Engine) EnterDashboard(ctx context.Context, verifyOrder bool) error {
	locations, err := e.loadLocations(ctx)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		return fmt.Errorf("no locations returned for this account")
	}

	if verifyOrder {
		if err := e.verifyLocationOrder(ctx, locations); err != nil {
			return err
		}
	} else {
		e.logger.Debug().Msg("Location list order check disabled, skipping")
	}

	if err := e.browser.ClickNth(ctx, locationRadioButtons, 0); err != nil {
		return fmt.Errorf("failed to select initial location: %w", err)
	}
	return e.browser.Do(ctx, func(ctx context.Context) error {
		return e.browser.Click(ctx, locationNextButton)
	}, interfaces.WaitSettled)
}

// verifyLocationOrder asserts the rendered-order contract: the location
// chooser must render names in exactly the sorted sort_id order the fetcher
// returned, and every fetched location must be present.
func (e *Engine) verifyLocationOrder(ctx context.Context, locations []models.Location) error {
	for _, loc := range locations {
		if err := e.browser.WaitVisible(ctx, locationListEntry(loc.LocationName)); err != nil {
			return fmt.Errorf("location %q missing from UI list: %w", loc.LocationName, err)
		}
	}

	html, err := e.browser.OuterHTML(ctx, locationListContainer)
	if err != nil {
		return fmt.Errorf("failed to snapshot location list: %w", err)
	}
	rendered, err := renderedLocationNames(html)
	if err != nil {
		return err
	}

	for i, loc := range locations {
		if i >= len(rendered) {
			return &OrderContractError{Index: i, Expected: loc.LocationName, Rendered: ""}
		}
		if rendered[i] != loc.LocationName {
			return &OrderContractError{Index: i, Expected: loc.LocationName, Rendered: rendered[i]}
		}
	}

	e.logger.Info().Int("locations", len(locations)).Msg("Location list order contract verified")
	return nil
}

// renderedLocationNames extracts the location names from a list container
// snapshot in document order
func renderedLocationNames(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse location list snapshot: %w", err)
	}
	var names []string
	doc.Find("div.scroll-text").Each(func(_ int, s *goquery.Selection) {
		names = append(names, strings.TrimSpace(s.Text()))
	})
	return names, nil
}

// RunSettings reconciles the per-location settings screen for every location
func (e *Engine) RunSettings(ctx context.Context) error {
	locations, err := e.loadLocations(ctx)
	if err != nil {
		return err
	}

	if err := e.navigate(ctx, navButtonHome, navButtonSettings); err != nil {
		return err
	}
	if err := e.browser.Do(ctx, func(ctx context.Context) error {
		return e.browser.Click(ctx, locationSettingTab)
	}, interfaces.WaitURLChanged); err != nil {
		return fmt.Errorf("failed to open location settings: %w", err)
	}

	// Presence sweep before drilling into any row
	for _, loc := range locations {
		if err := e.browser.WaitVisible(ctx, locationSettingRow(loc.LocationName)); err != nil {
			e.logger.Warn().Str("location", loc.LocationName).Msg("Location missing from settings list")
		}
	}

	for _, loc := range locations {
		e.runSettingsContext(ctx, loc)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// runSettingsContext reconciles one location's settings screen. Context-level
// failures abandon this location only; the caller advances to the next.
func (e *Engine) runSettingsContext(ctx context.Context, loc models.Location) {
	row := locationSettingRow(loc.LocationName)

	if err := e.browser.Do(ctx, func(ctx context.Context) error {
		return e.browser.Click(ctx, row)
	}, interfaces.WaitURLChanged); err != nil {
		e.report.ContextAbandoned(loc.LocationName, err)
		return
	}

	bundle, err := e.fetcher.FetchSettingsBundle(ctx, loc)
	if err != nil {
		e.report.ContextAbandoned(loc.LocationName, err)
		e.returnToList(ctx, row)
		return
	}
	for key, fetchErr := range bundle.Errors {
		e.logger.Warn().
			Str("location", loc.LocationName).
			Str("sub_record", string(key)).
			Err(fetchErr).
			Msg("Settings sub-record unavailable, dependent fields will report decode errors")
	}

	for _, field := range settingsFields {
		e.compareField(ctx, loc.LocationName, field, bundle)
	}

	e.report.ContextDone(loc.LocationName)
	e.returnToList(ctx, row)
}

// returnToList navigates back to the settings list and waits for the row that
// was just visited to render again
func (e *Engine) returnToList(ctx context.Context, row string) {
	if err := e.browser.Back(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("Back navigation failed")
		return
	}
	if err := e.browser.WaitVisible(ctx, row); err != nil {
		e.logger.Warn().Str("locator", row).Msg("Settings list did not re-render after back navigation")
	}
}

// compareField extracts, decodes, and compares one field, recording exactly
// one result. A missing UI element or decode failure never aborts the
// remaining fields of the context.
func (e *Engine) compareField(ctx context.Context, contextName string, f fieldSpec, b *models.SettingsBundle) {
	result := models.ComparisonResult{Context: contextName, Field: f.Name}

	if f.Kind == extractToggle {
		e.compareToggle(ctx, result, f, b)
		return
	}

	expected, err := f.Decode(b)
	if err != nil {
		result.Outcome = models.OutcomeDecodeError
		result.Err = err
		e.report.Record(result)
		return
	}
	result.Expected = expected

	locator := f.Locator
	if f.Kind == extractExpectedPresence {
		locator = f.LocatorFor(expected)
	}

	var observed string
	switch f.Kind {
	case extractInputValue:
		observed, err = e.browser.InputValue(ctx, locator)
	default:
		observed, err = e.browser.Text(ctx, locator)
	}
	if err != nil {
		result.Outcome = models.OutcomeNotFound
		result.Err = err
		e.report.Record(result)
		return
	}
	result.Observed = strings.TrimSpace(observed)

	if valuesEqual(result.Expected, result.Observed, f.FoldCase) {
		result.Outcome = models.OutcomeMatch
	} else {
		result.Outcome = models.OutcomeMismatch
	}
	e.report.Record(result)
}

// compareToggle reconciles a boolean toggle: the decoded backend flag against
// the tri-sourced UI enabled predicate
func (e *Engine) compareToggle(ctx context.Context, result models.ComparisonResult, f fieldSpec, b *models.SettingsBundle) {
	expected, err := f.DecodeFlag(b)
	if err != nil {
		result.Outcome = models.OutcomeDecodeError
		result.Err = err
		e.report.Record(result)
		return
	}
	result.Expected = strconv.FormatBool(expected)

	observed, err := e.readToggle(ctx, f.Locator, f.ClassLocator)
	if err != nil {
		result.Outcome = models.OutcomeNotFound
		result.Err = err
		e.report.Record(result)
		return
	}
	result.Observed = strconv.FormatBool(observed)

	if expected == observed {
		result.Outcome = models.OutcomeMatch
	} else {
		result.Outcome = models.OutcomeMismatch
	}
	e.report.Record(result)
}

// readToggle reads the UI enabled state of a slide toggle: aria-checked on
// the input, checked class marker on its host element, OR-combined
func (e *Engine) readToggle(ctx context.Context, inputLocator, classLocator string) (bool, error) {
	aria, _, err := e.browser.Attribute(ctx, inputLocator, "aria-checked")
	if err != nil {
		return false, err
	}
	classes, _, err := e.browser.Attribute(ctx, classLocator, "class")
	if err != nil {
		return false, err
	}
	return decode.ToggleEnabled(aria, classes), nil
}

// navigate clicks a sequence of nav rail buttons, settling after each
func (e *Engine) navigate(ctx context.Context, locators ...string) error {
	for _, locator := range locators {
		loc := locator
		if err := e.browser.Do(ctx, func(ctx context.Context) error {
			return e.browser.Click(ctx, loc)
		}, interfaces.WaitSettled); err != nil {
			return fmt.Errorf("navigation via %s failed: %w", loc, err)
		}
	}
	return nil
}

// selectLocation opens the profile menu and selects the index-th location
// radio, positionally against the sorted list
func (e *Engine) selectLocation(ctx context.Context, index int) error {
	if err := e.browser.Click(ctx, profileMenuTrigger); err != nil {
		return fmt.Errorf("failed to open profile menu: %w", err)
	}
	if err := e.browser.ClickNth(ctx, locationRadioButtons, index); err != nil {
		return fmt.Errorf("failed to select location radio %d: %w", index, err)
	}
	return e.browser.Await(ctx, interfaces.WaitNetworkIdle)
}

func valuesEqual(expected, observed string, foldCase bool) bool {
	expected = strings.TrimSpace(expected)
	observed = strings.TrimSpace(observed)
	if foldCase {
		return strings.EqualFold(expected, observed)
	}
	return expected == observed
}
