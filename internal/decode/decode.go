// Package decode translates raw backend field encodings into the exact
// values a user sees rendered in the UI. Backend composite fields pack
// several logical values into one string with a reserved delimiter; each rule
// here knows the position contract for its field and nothing else.
//
// Every rule is total: a missing sub-record, absent field, or malformed
// composite yields a *FieldError rather than a panic, and no rule mutates
// its input.
package decode

import (
	"fmt"
	"strings"

	"github.com/ternarybob/veritas/internal/models"
)

const (
	// CompositeDelimiter is the primary reserved sequence in packed fields
	CompositeDelimiter = "$$"
	// SubDelimiter is the single-character variant used by env_in
	SubDelimiter = "$"
)

// Display labels the UI renders for coded values
const (
	LabelCO2        = "CO₂"
	LabelTrees      = "Trees"
	LabelCelsius    = "°C"
	LabelFahrenheit = "°F"
	LabelLitres     = "Litres"
	LabelGallons    = "Gallons"

	// DefaultTreesPerKWh substitutes a zero-valued trees rate
	DefaultTreesPerKWh = "0.04"
	// DefaultRetainMode is shown when the preference mode is null
	DefaultRetainMode = "5 sec"
)

// FieldError reports a decode failure for one field
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Field, e.Reason)
}

func missing(field, key string) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf("source key %q not available", key)}
}

func malformed(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// LocationName returns the trimmed location display name
func LocationName(b *models.SettingsBundle) (string, error) {
	raw, ok := b.Field(models.SubLocationDetail, "location_name")
	if !ok {
		return "", missing("location_name", "location_get.location_name")
	}
	return strings.TrimSpace(raw), nil
}

// CountryName returns the trimmed company/country display name
func CountryName(b *models.SettingsBundle) (string, error) {
	raw, ok := b.Field(models.SubCompanyDetail, "name")
	if !ok {
		return "", missing("country_name", "company_v2_get.name")
	}
	return strings.TrimSpace(raw), nil
}

// TimezoneLabel renders the composed "{name} ({gmtOffsetName})" label
func TimezoneLabel(b *models.SettingsBundle) (string, error) {
	name, ok := b.Field(models.SubTimezoneDetail, "name")
	if !ok {
		return "", missing("timezone_label", "timezone_get.name")
	}
	offset, ok := b.Field(models.SubTimezoneDetail, "gmtOffsetName")
	if !ok {
		return "", missing("timezone_label", "timezone_get.gmtOffsetName")
	}
	return fmt.Sprintf("%s (%s)", strings.TrimSpace(name), strings.TrimSpace(offset)), nil
}

// EnergyCost extracts the cost-per-kWh component of energy_in (index 2)
func EnergyCost(b *models.SettingsBundle) (string, error) {
	raw, ok := b.Field(models.SubLocationSettings, "energy_in")
	if !ok {
		return "", missing("energy_cost", "location_settings.energy_in")
	}
	parts := strings.Split(raw, CompositeDelimiter)
	if len(parts) < 3 {
		return "", malformed("energy_cost", fmt.Sprintf("energy_in has %d parts, need at least 3", len(parts)))
	}
	return strings.TrimSpace(parts[2]), nil
}

// FeedInTariff extracts the last component of energy_in
func FeedInTariff(b *models.SettingsBundle) (string, error) {
	raw, ok := b.Field(models.SubLocationSettings, "energy_in")
	if !ok {
		return "", missing("feed_in_tariff", "location_settings.energy_in")
	}
	parts := strings.Split(raw, CompositeDelimiter)
	return strings.TrimSpace(parts[len(parts)-1]), nil
}

// TreesPerKWh extracts the trees rate from env_in. A value without the
// delimiter is used whole. Zero-valued rates render as the fixed default.
func TreesPerKWh(b *models.SettingsBundle) (string, error) {
	raw, ok := b.Field(models.SubLocationSettings, "env_in")
	if !ok {
		return "", missing("trees_per_kwh", "location_settings.env_in")
	}
	value := raw
	if strings.Contains(raw, SubDelimiter) {
		parts := strings.Split(raw, SubDelimiter)
		value = parts[len(parts)-1]
	}
	value = strings.TrimSpace(value)
	switch value {
	case "0", "0.0", "0.00":
		return DefaultTreesPerKWh, nil
	}
	return value, nil
}

// SavingsType maps the leading env_in component to its dropdown label
func SavingsType(b *models.SettingsBundle) (string, error) {
	raw, ok := b.Field(models.SubLocationSettings, "env_in")
	if !ok {
		return "", missing("savings_type", "location_settings.env_in")
	}
	first := strings.Split(raw, SubDelimiter)[0]
	if strings.TrimSpace(first) == "0" {
		return LabelCO2, nil
	}
	return LabelTrees, nil
}

// TemperatureUnit maps temp_in to its dropdown label
func TemperatureUnit(b *models.SettingsBundle) (string, error) {
	raw, ok := b.Field(models.SubLocationSettings, "temp_in")
	if !ok {
		return "", missing("temperature_unit", "location_settings.temp_in")
	}
	if strings.TrimSpace(raw) == "0" {
		return LabelFahrenheit, nil
	}
	return LabelCelsius, nil
}

// FuelUnit maps funit_in to its dropdown label
func FuelUnit(b *models.SettingsBundle) (string, error) {
	raw, ok := b.Field(models.SubLocationSettings, "funit_in")
	if !ok {
		return "", missing("fuel_unit", "location_settings.funit_in")
	}
	if strings.TrimSpace(raw) == "0" {
		return LabelLitres, nil
	}
	return LabelGallons, nil
}

// CostDisplay returns the raw cost_in label for exact text matching
func CostDisplay(b *models.SettingsBundle) (string, error) {
	raw, ok := b.Field(models.SubLocationSettings, "cost_in")
	if !ok {
		return "", missing("cost_display", "location_settings.cost_in")
	}
	return strings.TrimSpace(raw), nil
}

// DeviceStateRetain renders the preference mode as "{seconds} sec". A present
// but null mode renders the default; a missing preference sub-record or a
// record without the field at all is a decode failure.
func DeviceStateRetain(b *models.SettingsBundle) (string, error) {
	if !b.FieldPresent(models.SubPreferenceDetail, "mode") {
		return "", missing("device_state_retain", "location_preference_get.mode")
	}
	raw, ok := b.Field(models.SubPreferenceDetail, "mode")
	if !ok {
		return DefaultRetainMode, nil
	}
	first := strings.Split(raw, CompositeDelimiter)[0]
	return strings.TrimSpace(first) + " sec", nil
}

// HCDateEnabled reports whether the hc_date toggle should render enabled
func HCDateEnabled(b *models.SettingsBundle) (bool, error) {
	raw, ok := b.Field(models.SubLocationSettings, "hc_date")
	if !ok {
		return false, missing("hc_date", "location_settings.hc_date")
	}
	return FlagEnabled(raw), nil
}

// AppNotifyEnabled reports whether the app_notify toggle should render enabled
func AppNotifyEnabled(b *models.SettingsBundle) (bool, error) {
	raw, ok := b.Field(models.SubPreferenceDetail, "app_notify")
	if !ok {
		return false, missing("app_notify", "location_preference_get.app_notify")
	}
	return FlagEnabled(raw), nil
}

// FlagEnabled decodes the leading enabled-flag component of a composite
// toggle field: "1" means enabled, anything else disabled.
func FlagEnabled(composite string) bool {
	return strings.Split(composite, CompositeDelimiter)[0] == "1"
}

// ToggleEnabled is the tri-sourced UI toggle predicate: a toggle counts as
// enabled when the aria-checked attribute says true OR the checked class
// marker is present. Either signal alone is authoritative for "on"; both
// source call sites agree on the OR semantics.
func ToggleEnabled(ariaChecked, classes string) bool {
	if strings.EqualFold(strings.TrimSpace(ariaChecked), "true") {
		return true
	}
	return strings.Contains(classes, "mat-checked")
}
