package models

// SubRecordKey names one of the independent endpoints that feed a
// SettingsBundle. Keys mirror the backend endpoint they come from.
type SubRecordKey string

const (
	SubLocationSettings SubRecordKey = "location_settings"       // /v1/location/{id}/settings
	SubLocationDetail   SubRecordKey = "location_get"            // /v1/location/{id}/get
	SubCompanyTimezones SubRecordKey = "company_codes_timezone"  // /v1/company-codes/gettimezone
	SubAllLocations     SubRecordKey = "location_get_all"        // /v1/location/get
	SubCompanyDetail    SubRecordKey = "company_v2_get"          // /v1/company-v2/get/{country_id}
	SubTimezoneDetail   SubRecordKey = "timezone_get"            // /v1/timezone/get/{timezone_id}
	SubPreferenceDetail SubRecordKey = "location_preference_get" // /v1/location/preference/{id}/get
)

// AllSubRecordKeys lists every sub-record a full bundle carries
var AllSubRecordKeys = []SubRecordKey{
	SubLocationSettings,
	SubLocationDetail,
	SubCompanyTimezones,
	SubAllLocations,
	SubCompanyDetail,
	SubTimezoneDetail,
	SubPreferenceDetail,
}

// SettingsBundle aggregates the per-location sub-records. Each sub-record may
// independently be missing; a fetch failure is recorded under Errors for that
// key only and never invalidates the rest of the bundle.
type SettingsBundle struct {
	LocationID string
	Records    map[SubRecordKey]map[string]interface{}
	Errors     map[SubRecordKey]error
}

// NewSettingsBundle creates an empty bundle for a location
func NewSettingsBundle(locationID string) *SettingsBundle {
	return &SettingsBundle{
		LocationID: locationID,
		Records:    make(map[SubRecordKey]map[string]interface{}),
		Errors:     make(map[SubRecordKey]error),
	}
}

// SetRecord stores the decoded "data" object for a sub-record
func (b *SettingsBundle) SetRecord(key SubRecordKey, data map[string]interface{}) {
	b.Records[key] = data
}

// SetError marks a sub-record as failed
func (b *SettingsBundle) SetError(key SubRecordKey, err error) {
	b.Errors[key] = err
}

// HasRecord reports whether a sub-record fetched successfully
func (b *SettingsBundle) HasRecord(key SubRecordKey) bool {
	_, ok := b.Records[key]
	return ok
}

// Field returns the string value of a field inside a sub-record. The second
// return is false when the sub-record is missing, the field is absent, or the
// value is null or not a string.
func (b *SettingsBundle) Field(key SubRecordKey, field string) (string, bool) {
	record, ok := b.Records[key]
	if !ok {
		return "", false
	}
	raw, ok := record[field]
	if !ok || raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// FieldPresent reports whether a field exists in a sub-record, even when its
// value is null. Used by rules that default on null rather than fail.
func (b *SettingsBundle) FieldPresent(key SubRecordKey, field string) bool {
	record, ok := b.Records[key]
	if !ok {
		return false
	}
	_, ok = record[field]
	return ok
}
