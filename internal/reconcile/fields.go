package reconcile

import (
	"github.com/ternarybob/veritas/internal/decode"
	"github.com/ternarybob/veritas/internal/models"
)

// extractKind selects how a field's observed value is read from the page
type extractKind int

const (
	// extractInputValue reads an input's value (placeholder fallback)
	extractInputValue extractKind = iota
	// extractText reads an element's trimmed text content
	extractText
	// extractExpectedPresence builds the locator from the decoded expected
	// value; finding the element at all is the match
	extractExpectedPresence
	// extractToggle reads aria-checked plus the checked class marker and
	// compares against a decoded boolean flag
	extractToggle
)

// fieldSpec is one row of the reconciliation field table: where a field lives
// on screen, how to read it, and how to decode its authoritative value
type fieldSpec struct {
	Name    string
	Kind    extractKind
	Locator string
	// LocatorFor derives the locator from the expected value for
	// presence-style fields
	LocatorFor func(expected string) string
	// ClassLocator is the element carrying the checked class marker for
	// toggle fields (the input itself carries aria-checked)
	ClassLocator string

	Decode     func(*models.SettingsBundle) (string, error)
	DecodeFlag func(*models.SettingsBundle) (bool, error)

	// FoldCase compares case-insensitively (dropdown labels vary in casing)
	FoldCase bool
}

// settingsFields is the per-location field table, in the order the settings
// screen lays them out
var settingsFields = []fieldSpec{
	{
		Name:    "location_name",
		Kind:    extractInputValue,
		Locator: settingsLocationNameInput,
		Decode:  decode.LocationName,
	},
	{
		Name:       "country_name",
		Kind:       extractExpectedPresence,
		LocatorFor: countryLabelFor,
		Decode:     decode.CountryName,
	},
	{
		Name:    "timezone",
		Kind:    extractText,
		Locator: settingsTimezoneLabel,
		Decode:  decode.TimezoneLabel,
	},
	{
		Name:    "energy_cost_per_kwh",
		Kind:    extractInputValue,
		Locator: settingsEnergyCostInput,
		Decode:  decode.EnergyCost,
	},
	{
		Name:    "feed_in_tariff",
		Kind:    extractInputValue,
		Locator: settingsFeedInInput,
		Decode:  decode.FeedInTariff,
	},
	{
		Name:    "trees_per_kwh",
		Kind:    extractInputValue,
		Locator: settingsTreesInput,
		Decode:  decode.TreesPerKWh,
	},
	{
		Name:         "hc_date_toggle",
		Kind:         extractToggle,
		Locator:      settingsHCDateToggle,
		ClassLocator: settingsHCDateToggleLabel,
		DecodeFlag:   decode.HCDateEnabled,
	},
	{
		Name:    "temperature_unit",
		Kind:    extractText,
		Locator: settingsTempSelect,
		Decode:  decode.TemperatureUnit,
	},
	{
		Name:     "savings_type",
		Kind:     extractText,
		Locator:  settingsSavingsSelect,
		Decode:   decode.SavingsType,
		FoldCase: true,
	},
	{
		Name:       "cost_display",
		Kind:       extractExpectedPresence,
		LocatorFor: costLabelFor,
		Decode:     decode.CostDisplay,
	},
	{
		Name:     "fuel_unit",
		Kind:     extractText,
		Locator:  settingsFuelSelect,
		Decode:   decode.FuelUnit,
		FoldCase: true,
	},
	{
		Name:    "device_state_retain",
		Kind:    extractText,
		Locator: settingsRetainSelect,
		Decode:  decode.DeviceStateRetain,
	},
}
