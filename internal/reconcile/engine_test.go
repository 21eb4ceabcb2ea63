package reconcile

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/veritas/internal/browser"
	"github.com/ternarybob/veritas/internal/common"
	"github.com/ternarybob/veritas/internal/interfaces"
	"github.com/ternarybob/veritas/internal/models"
)

// mockBrowser answers locator reads from fixed maps and records every click
// in order
type mockBrowser struct {
	clicks []string

	texts      map[string]string
	inputs     map[string]string
	attributes map[string]string
	counts     map[string]int
	html       map[string]string
	missing    map[string]bool

	clickErr map[string]error
	url      string
}

func newMockBrowser() *mockBrowser {
	return &mockBrowser{
		texts:      map[string]string{},
		inputs:     map[string]string{},
		attributes: map[string]string{},
		counts:     map[string]int{},
		html:       map[string]string{},
		missing:    map[string]bool{},
		clickErr:   map[string]error{},
		url:        "https://app.example.com/",
	}
}

func (m *mockBrowser) Navigate(ctx context.Context, url string) error { m.url = url; return nil }
func (m *mockBrowser) CurrentURL(ctx context.Context) (string, error) { return m.url, nil }
func (m *mockBrowser) Await(ctx context.Context, kind interfaces.WaitKind) error { return nil }

func (m *mockBrowser) Do(ctx context.Context, action func(context.Context) error, mode interfaces.WaitMode) error {
	return action(ctx)
}

func (m *mockBrowser) Click(ctx context.Context, locator string) error {
	if err, ok := m.clickErr[locator]; ok {
		return err
	}
	m.clicks = append(m.clicks, locator)
	return nil
}

func (m *mockBrowser) ClickNth(ctx context.Context, locator string, index int) error {
	m.clicks = append(m.clicks, fmt.Sprintf("%s[%d]", locator, index+1))
	return nil
}

func (m *mockBrowser) Type(ctx context.Context, locator, text string) error { return nil }

func (m *mockBrowser) WaitVisible(ctx context.Context, locator string) error {
	if m.missing[locator] {
		return &browser.NotFoundError{Locator: locator}
	}
	return nil
}

func (m *mockBrowser) Text(ctx context.Context, locator string) (string, error) {
	if m.missing[locator] {
		return "", &browser.NotFoundError{Locator: locator}
	}
	return m.texts[locator], nil
}

func (m *mockBrowser) InputValue(ctx context.Context, locator string) (string, error) {
	if m.missing[locator] {
		return "", &browser.NotFoundError{Locator: locator}
	}
	return m.inputs[locator], nil
}

func (m *mockBrowser) Attribute(ctx context.Context, locator, name string) (string, bool, error) {
	if m.missing[locator] {
		return "", false, &browser.NotFoundError{Locator: locator}
	}
	v, ok := m.attributes[locator+"@"+name]
	return v, ok, nil
}

func (m *mockBrowser) OuterHTML(ctx context.Context, locator string) (string, error) {
	if h, ok := m.html[locator]; ok {
		return h, nil
	}
	return "", &browser.NotFoundError{Locator: locator}
}

func (m *mockBrowser) Count(ctx context.Context, locator string) (int, error) {
	return m.counts[locator], nil
}

func (m *mockBrowser) Evaluate(ctx context.Context, expr string, out interface{}) error { return nil }
func (m *mockBrowser) Back(ctx context.Context) error                                  { return nil }

// mockFetcher serves canned records
type mockFetcher struct {
	locations []models.Location
	profile   *models.UserProfile
	bundles   map[string]*models.SettingsBundle
	bundleErr map[string]error
	prefs     map[string]map[string]interface{}
	rooms     map[string][]models.Room
	locsErr   error
}

func (m *mockFetcher) FetchLocations(ctx context.Context) ([]models.Location, error) {
	return m.locations, m.locsErr
}

func (m *mockFetcher) FetchUserProfile(ctx context.Context) (*models.UserProfile, error) {
	return m.profile, nil
}

func (m *mockFetcher) FetchSettingsBundle(ctx context.Context, loc models.Location) (*models.SettingsBundle, error) {
	if err, ok := m.bundleErr[loc.LocationID]; ok {
		return nil, err
	}
	return m.bundles[loc.LocationID], nil
}

func (m *mockFetcher) FetchPreference(ctx context.Context, locationID string) (map[string]interface{}, error) {
	return m.prefs[locationID], nil
}

func (m *mockFetcher) FetchRooms(ctx context.Context, locationID string) ([]models.Room, error) {
	return m.rooms[locationID], nil
}

func sortedTestLocations() []models.Location {
	// Already in sort_id order, as the real fetcher guarantees
	return []models.Location{
		{LocationID: "id-1", LocationName: "Alpha", CountryID: "c1", TimezoneID: "t1", SortID: 1},
		{LocationID: "id-2", LocationName: "Beta", CountryID: "c1", TimezoneID: "t1", SortID: 2},
		{LocationID: "id-3", LocationName: "Gamma", CountryID: "c1", TimezoneID: "t1", SortID: 3},
	}
}

func listHTML(names ...string) string {
	var sb strings.Builder
	sb.WriteString("<mat-radio-group>")
	for _, n := range names {
		sb.WriteString(`<div class="scroll-text">` + n + `</div>`)
	}
	sb.WriteString("</mat-radio-group>")
	return sb.String()
}

func fullBundle(locationID, name string) *models.SettingsBundle {
	b := models.NewSettingsBundle(locationID)
	b.SetRecord(models.SubLocationDetail, map[string]interface{}{"location_name": name})
	b.SetRecord(models.SubCompanyDetail, map[string]interface{}{"name": "Australia"})
	b.SetRecord(models.SubTimezoneDetail, map[string]interface{}{
		"name": "AEST", "gmtOffsetName": "UTC+10:00",
	})
	b.SetRecord(models.SubLocationSettings, map[string]interface{}{
		"energy_in": "1$$flat$$0.25$$0.10",
		"env_in":    "0$0.5",
		"temp_in":   "1",
		"funit_in":  "0",
		"cost_in":   "AUD",
		"hc_date":   "1$$2024",
	})
	b.SetRecord(models.SubPreferenceDetail, map[string]interface{}{
		"mode": "5$$x", "app_notify": "1$$on",
	})
	return b
}

// wireSettingsScreen makes the mock browser render exactly what fullBundle
// decodes to
func wireSettingsScreen(m *mockBrowser, name string) {
	m.inputs[settingsLocationNameInput] = name
	m.texts[countryLabelFor("Australia")] = "Australia"
	m.texts[settingsTimezoneLabel] = "AEST (UTC+10:00)"
	m.inputs[settingsEnergyCostInput] = "0.25"
	m.inputs[settingsFeedInInput] = "0.10"
	m.inputs[settingsTreesInput] = "0.5"
	m.texts[settingsTempSelect] = "°C"
	m.texts[settingsSavingsSelect] = "CO₂"
	m.texts[costLabelFor("AUD")] = "AUD"
	m.texts[settingsFuelSelect] = "Litres"
	m.texts[settingsRetainSelect] = "5 sec"
	m.attributes[settingsHCDateToggle+"@aria-checked"] = "true"
	m.attributes[settingsHCDateToggleLabel+"@class"] = "mat-slide-toggle-label mat-checked"
}

func newTestEngine(b *mockBrowser, f *mockFetcher) (*Engine, *Reporter) {
	logger := common.GetLogger()
	report := NewReporter("run_test", logger)
	return NewEngine(b, f, logger, report), report
}

func TestEnterDashboard_VerifiesOrderAndSelectsFirst(t *testing.T) {
	locs := sortedTestLocations()
	b := newMockBrowser()
	b.html[locationListContainer] = listHTML("Alpha", "Beta", "Gamma")
	f := &mockFetcher{locations: locs}

	engine, _ := newTestEngine(b, f)
	err := engine.EnterDashboard(context.Background(), true)

	require.NoError(t, err)
	require.NotEmpty(t, b.clicks)
	assert.Equal(t, locationRadioButtons+"[1]", b.clicks[0])
}

func TestEnterDashboard_OrderContractViolationFailsLoudly(t *testing.T) {
	locs := sortedTestLocations()
	b := newMockBrowser()
	b.html[locationListContainer] = listHTML("Beta", "Alpha", "Gamma")
	f := &mockFetcher{locations: locs}

	engine, _ := newTestEngine(b, f)
	err := engine.EnterDashboard(context.Background(), true)

	require.Error(t, err)
	var contract *OrderContractError
	require.ErrorAs(t, err, &contract)
	assert.Equal(t, 0, contract.Index)
	assert.Equal(t, "Alpha", contract.Expected)
	assert.Equal(t, "Beta", contract.Rendered)
	assert.Empty(t, b.clicks)
}

func TestEnterDashboard_MissingLocationFailsLoudly(t *testing.T) {
	locs := sortedTestLocations()
	b := newMockBrowser()
	b.html[locationListContainer] = listHTML("Alpha", "Beta")
	b.missing[locationListEntry("Gamma")] = true
	f := &mockFetcher{locations: locs}

	engine, _ := newTestEngine(b, f)
	err := engine.EnterDashboard(context.Background(), true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gamma")
}

func TestEnterDashboard_OrderCheckDisabledSkipsContract(t *testing.T) {
	locs := sortedTestLocations()
	b := newMockBrowser()
	b.html[locationListContainer] = listHTML("Beta", "Alpha", "Gamma")
	f := &mockFetcher{locations: locs}

	engine, _ := newTestEngine(b, f)
	err := engine.EnterDashboard(context.Background(), false)

	require.NoError(t, err)
	require.NotEmpty(t, b.clicks)
	assert.Equal(t, locationRadioButtons+"[1]", b.clicks[0])
}

func TestRunSettings_VisitsLocationsInSortedOrder(t *testing.T) {
	locs := sortedTestLocations()
	b := newMockBrowser()
	f := &mockFetcher{
		locations: locs,
		bundles: map[string]*models.SettingsBundle{
			"id-1": fullBundle("id-1", "Alpha"),
			"id-2": fullBundle("id-2", "Beta"),
			"id-3": fullBundle("id-3", "Gamma"),
		},
	}
	wireSettingsScreen(b, "Alpha")

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunSettings(context.Background()))

	var rowClicks []string
	for _, c := range b.clicks {
		if strings.Contains(c, "contains(text()") {
			rowClicks = append(rowClicks, c)
		}
	}
	assert.Equal(t, []string{
		locationSettingRow("Alpha"),
		locationSettingRow("Beta"),
		locationSettingRow("Gamma"),
	}, rowClicks)
	assert.Equal(t, 3, report.Summary().Contexts)
}

func TestRunSettings_AllFieldsMatch(t *testing.T) {
	locs := sortedTestLocations()[:1]
	b := newMockBrowser()
	wireSettingsScreen(b, "Alpha")
	f := &mockFetcher{
		locations: locs,
		bundles:   map[string]*models.SettingsBundle{"id-1": fullBundle("id-1", "Alpha")},
	}

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunSettings(context.Background()))

	s := report.Summary()
	assert.Equal(t, len(settingsFields), s.Match)
	assert.Zero(t, s.Mismatch)
	assert.Zero(t, s.NotFound)
	assert.Zero(t, s.DecodeErrors)
}

func TestRunSettings_MissingFieldContinuesRemaining(t *testing.T) {
	locs := sortedTestLocations()[:1]
	b := newMockBrowser()
	wireSettingsScreen(b, "Alpha")
	b.missing[settingsTimezoneLabel] = true
	f := &mockFetcher{
		locations: locs,
		bundles:   map[string]*models.SettingsBundle{"id-1": fullBundle("id-1", "Alpha")},
	}

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunSettings(context.Background()))

	s := report.Summary()
	assert.Equal(t, 1, s.NotFound)
	assert.Equal(t, len(settingsFields)-1, s.Match)
	assert.Equal(t, len(settingsFields), s.Total())
	assert.Equal(t, 1, s.Contexts)
}

func TestRunSettings_BundleTransportFailureAbandonsContextOnly(t *testing.T) {
	locs := sortedTestLocations()
	b := newMockBrowser()
	wireSettingsScreen(b, "Alpha")
	f := &mockFetcher{
		locations: locs,
		bundles: map[string]*models.SettingsBundle{
			"id-1": fullBundle("id-1", "Alpha"),
			"id-3": fullBundle("id-3", "Gamma"),
		},
		bundleErr: map[string]error{
			"id-2": fmt.Errorf("transport failure"),
		},
	}

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunSettings(context.Background()))

	s := report.Summary()
	assert.Equal(t, 2, s.Contexts)
	assert.Equal(t, 1, s.Abandoned)
}

func TestRunSettings_PartialBundleReportsDecodeErrorsForMissingSubRecords(t *testing.T) {
	locs := sortedTestLocations()[:1]
	b := newMockBrowser()
	wireSettingsScreen(b, "Alpha")

	bundle := fullBundle("id-1", "Alpha")
	delete(bundle.Records, models.SubTimezoneDetail)
	bundle.SetError(models.SubTimezoneDetail, fmt.Errorf("status 500"))

	f := &mockFetcher{
		locations: locs,
		bundles:   map[string]*models.SettingsBundle{"id-1": bundle},
	}

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunSettings(context.Background()))

	s := report.Summary()
	assert.Equal(t, 1, s.DecodeErrors)
	assert.Equal(t, len(settingsFields)-1, s.Match)
	assert.Equal(t, 1, s.Contexts)
}

func TestRunProfile_MatchesNameAndEmail(t *testing.T) {
	b := newMockBrowser()
	b.inputs[profileNameInput] = "Jordan Smith"
	b.texts[profileEmailLabel] = "jordan@example.com"
	f := &mockFetcher{
		locations: sortedTestLocations(),
		profile:   &models.UserProfile{Name: "Jordan Smith", EmailID: "jordan@example.com"},
	}

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunProfile(context.Background()))

	s := report.Summary()
	assert.Equal(t, 2, s.Match)
	assert.Zero(t, s.Mismatch)

	// The rail walk crosses energy, home and security before settings
	require.GreaterOrEqual(t, len(b.clicks), 5)
	assert.Equal(t, []string{navButtonEnergy, navButtonHome, navButtonSecurity, navButtonSettings, profileTab}, b.clicks[:5])
}

func TestRunProfile_EmailMismatchRecorded(t *testing.T) {
	b := newMockBrowser()
	b.inputs[profileNameInput] = "Jordan Smith"
	b.texts[profileEmailLabel] = "other@example.com"
	f := &mockFetcher{
		locations: sortedTestLocations(),
		profile:   &models.UserProfile{Name: "Jordan Smith", EmailID: "jordan@example.com"},
	}

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunProfile(context.Background()))

	s := report.Summary()
	assert.Equal(t, 1, s.Match)
	assert.Equal(t, 1, s.Mismatch)
}

func TestRunNotify_ComparesTogglePerLocation(t *testing.T) {
	locs := sortedTestLocations()[:2]
	b := newMockBrowser()
	b.attributes[notifyToggleInput+"@aria-checked"] = "false"
	b.attributes[notifyToggleHost+"@class"] = "mat-slide-toggle mat-checked"
	f := &mockFetcher{
		locations: locs,
		prefs: map[string]map[string]interface{}{
			"id-1": {"app_notify": "1$$x"}, // enabled, UI enabled via class -> match
			"id-2": {"app_notify": "0$$x"}, // disabled, UI enabled -> mismatch
		},
	}

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunNotify(context.Background()))

	s := report.Summary()
	assert.Equal(t, 1, s.Match)
	assert.Equal(t, 1, s.Mismatch)
	assert.Equal(t, 2, s.Contexts)
}

func TestRunNotify_MissingPreferenceFieldIsDecodeError(t *testing.T) {
	locs := sortedTestLocations()[:1]
	b := newMockBrowser()
	f := &mockFetcher{
		locations: locs,
		prefs:     map[string]map[string]interface{}{"id-1": {}},
	}

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunNotify(context.Background()))

	assert.Equal(t, 1, report.Summary().DecodeErrors)
}

func TestRunRooms_CountComparison(t *testing.T) {
	locs := sortedTestLocations()[:2]
	b := newMockBrowser()
	b.counts[roomHeaders] = 2
	f := &mockFetcher{
		locations: locs,
		rooms: map[string][]models.Room{
			"id-1": {
				{RoomID: "r1", RoomName: "Kitchen", IsDefault: false},
				{RoomID: "r2", RoomName: "Garage", IsDefault: false},
				{RoomID: "r3", RoomName: "System", IsDefault: true},
			},
			"id-2": {
				{RoomID: "r4", RoomName: "Office", IsDefault: false},
			},
		},
	}

	engine, report := newTestEngine(b, f)
	require.NoError(t, engine.RunRooms(context.Background()))

	s := report.Summary()
	// id-1: 2 user rooms vs 2 headers -> match; id-2: 1 vs 2 -> mismatch
	assert.Equal(t, 1, s.Match)
	assert.Equal(t, 1, s.Mismatch)
	assert.Equal(t, 2, s.Contexts)

	var headerClicks int
	for _, c := range b.clicks {
		if strings.Contains(c, "mat-expansion-panel-header") {
			headerClicks++
		}
	}
	assert.Equal(t, 4, headerClicks)
}

func TestRenderedLocationNames_DocumentOrder(t *testing.T) {
	names, err := renderedLocationNames(listHTML("One", " Two ", "Three"))
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two", "Three"}, names)
}
