package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/veritas/internal/models"
)

func bundleWith(key models.SubRecordKey, data map[string]interface{}) *models.SettingsBundle {
	b := models.NewSettingsBundle("loc-1")
	b.SetRecord(key, data)
	return b
}

func settingsBundle(fields map[string]interface{}) *models.SettingsBundle {
	return bundleWith(models.SubLocationSettings, fields)
}

func TestEnergyCost(t *testing.T) {
	b := settingsBundle(map[string]interface{}{"energy_in": "a$$b$$c"})
	got, err := EnergyCost(b)
	require.NoError(t, err)
	assert.Equal(t, "c", got)
}

func TestEnergyCostShortComposite(t *testing.T) {
	b := settingsBundle(map[string]interface{}{"energy_in": "a$$b"})
	_, err := EnergyCost(b)
	require.Error(t, err)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "energy_cost", fieldErr.Field)
}

func TestFeedInTariffTakesLast(t *testing.T) {
	b := settingsBundle(map[string]interface{}{"energy_in": "a$$b$$c"})
	got, err := FeedInTariff(b)
	require.NoError(t, err)
	assert.Equal(t, "c", got)

	b = settingsBundle(map[string]interface{}{"energy_in": "1$$off$$0.25$$0.10"})
	got, err = FeedInTariff(b)
	require.NoError(t, err)
	assert.Equal(t, "0.10", got)
}

func TestTreesPerKWh(t *testing.T) {
	tests := []struct {
		name   string
		envIn  string
		expect string
	}{
		{"zero substitutes default", "1$0", DefaultTreesPerKWh},
		{"zero decimal substitutes default", "1$0.00", DefaultTreesPerKWh},
		{"non-zero passes through", "1$0.5", "0.5"},
		{"no delimiter uses whole value", "0.7", "0.7"},
		{"bare zero substitutes default", "0", DefaultTreesPerKWh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := settingsBundle(map[string]interface{}{"env_in": tt.envIn})
			got, err := TreesPerKWh(b)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestSavingsType(t *testing.T) {
	b := settingsBundle(map[string]interface{}{"env_in": "0$x"})
	got, err := SavingsType(b)
	require.NoError(t, err)
	assert.Equal(t, LabelCO2, got)

	b = settingsBundle(map[string]interface{}{"env_in": "1$x"})
	got, err = SavingsType(b)
	require.NoError(t, err)
	assert.Equal(t, LabelTrees, got)
}

func TestTemperatureUnit(t *testing.T) {
	b := settingsBundle(map[string]interface{}{"temp_in": "0"})
	got, err := TemperatureUnit(b)
	require.NoError(t, err)
	assert.Equal(t, LabelFahrenheit, got)

	b = settingsBundle(map[string]interface{}{"temp_in": "1"})
	got, err = TemperatureUnit(b)
	require.NoError(t, err)
	assert.Equal(t, LabelCelsius, got)
}

func TestFuelUnit(t *testing.T) {
	b := settingsBundle(map[string]interface{}{"funit_in": "0"})
	got, err := FuelUnit(b)
	require.NoError(t, err)
	assert.Equal(t, LabelLitres, got)

	b = settingsBundle(map[string]interface{}{"funit_in": "1"})
	got, err = FuelUnit(b)
	require.NoError(t, err)
	assert.Equal(t, LabelGallons, got)
}

func TestTimezoneLabel(t *testing.T) {
	b := bundleWith(models.SubTimezoneDetail, map[string]interface{}{
		"name":          "Asia/Kolkata",
		"gmtOffsetName": "UTC+05:30",
	})
	got, err := TimezoneLabel(b)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata (UTC+05:30)", got)
}

func TestDeviceStateRetain(t *testing.T) {
	b := bundleWith(models.SubPreferenceDetail, map[string]interface{}{"mode": "10$$fast"})
	got, err := DeviceStateRetain(b)
	require.NoError(t, err)
	assert.Equal(t, "10 sec", got)
}

func TestDeviceStateRetainNullModeDefaults(t *testing.T) {
	b := bundleWith(models.SubPreferenceDetail, map[string]interface{}{"mode": nil})
	got, err := DeviceStateRetain(b)
	require.NoError(t, err)
	assert.Equal(t, DefaultRetainMode, got)
}

func TestDeviceStateRetainMissingRecordFails(t *testing.T) {
	b := models.NewSettingsBundle("loc-1")
	_, err := DeviceStateRetain(b)
	require.Error(t, err)
}

func TestDeviceStateRetainAbsentModeFieldFails(t *testing.T) {
	b := bundleWith(models.SubPreferenceDetail, map[string]interface{}{"app_notify": "1$$x"})
	_, err := DeviceStateRetain(b)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "device_state_retain", fieldErr.Field)
}

func TestToggleFlags(t *testing.T) {
	b := settingsBundle(map[string]interface{}{"hc_date": "1$$2024-01-01"})
	enabled, err := HCDateEnabled(b)
	require.NoError(t, err)
	assert.True(t, enabled)

	b = settingsBundle(map[string]interface{}{"hc_date": "0$$2024-01-01"})
	enabled, err = HCDateEnabled(b)
	require.NoError(t, err)
	assert.False(t, enabled)

	b = bundleWith(models.SubPreferenceDetail, map[string]interface{}{"app_notify": "1$$x"})
	enabled, err = AppNotifyEnabled(b)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestToggleEnabledORSemantics(t *testing.T) {
	assert.True(t, ToggleEnabled("true", ""))
	assert.True(t, ToggleEnabled("false", "mat-slide-toggle mat-checked"))
	assert.True(t, ToggleEnabled("true", "mat-checked"))
	assert.False(t, ToggleEnabled("false", ""))
	assert.False(t, ToggleEnabled("", "mat-slide-toggle"))
}

func TestRulesAreTotalOnEmptyBundle(t *testing.T) {
	b := models.NewSettingsBundle("loc-1")

	stringRules := map[string]func(*models.SettingsBundle) (string, error){
		"location_name":    LocationName,
		"country_name":     CountryName,
		"timezone_label":   TimezoneLabel,
		"energy_cost":      EnergyCost,
		"feed_in_tariff":   FeedInTariff,
		"trees_per_kwh":    TreesPerKWh,
		"savings_type":     SavingsType,
		"temperature_unit": TemperatureUnit,
		"fuel_unit":        FuelUnit,
		"cost_display":     CostDisplay,
		"device_retain":    DeviceStateRetain,
	}

	for name, rule := range stringRules {
		t.Run(name, func(t *testing.T) {
			_, err := rule(b)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr, "rule must fail with FieldError, not panic")
		})
	}
}

func TestTrimming(t *testing.T) {
	b := bundleWith(models.SubLocationDetail, map[string]interface{}{"location_name": "  Home  "})
	got, err := LocationName(b)
	require.NoError(t, err)
	assert.Equal(t, "Home", got)
}
