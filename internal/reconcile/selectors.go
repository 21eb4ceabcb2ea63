package reconcile

import "fmt"

// Locators into the application UI. These are addresses into an external
// surface, kept in one place so layout changes touch nothing else.
const (
	// Location chooser rendered after login
	locationListContainer = "mat-radio-group"
	locationRadioButtons  = "(//span[@class='mat-radio-outer-circle'])"
	locationNextButton    = ".mat-button-wrapper"

	// Profile menu trigger in the top bar
	profileMenuTrigger = "#Icon_awesome-user-circle"

	// Left navigation rail buttons, positionally addressed
	navButtonHome     = "(//button[@class='mat-tooltip-trigger py-3 optsel'])[1]"
	navButtonDevices  = "(//button[@class='mat-tooltip-trigger py-3 optsel'])[2]"
	navButtonSecurity = "(//button[@class='mat-tooltip-trigger py-3 optsel'])[4]"
	navButtonSettings = "(//button[@class='mat-tooltip-trigger py-3 optsel'])[5]"
	navButtonEnergy   = "//button[.//mat-icon[@data-mat-icon-name='energy_line']]"

	// Settings screen tabs
	profileTab         = "//div[@routerlink='./profile']"
	locationSettingTab = "//div[@routerlink='./locationsetting']"

	// Profile screen
	profileNameInput    = "//input[@type='text']"
	profileAvatarCircle = "//*[name()='circle' and @id='Ellipse_210']"
	profileEmailLabel   = "div.col-6.en mat-label"

	// Location settings detail screen
	settingsLocationNameInput = "//div[@class='abc']//div[1]//div[2]//input[1]"
	settingsTimezoneLabel     = "//div[7]//div[2]"
	settingsEnergyCostInput   = "//div[8]//div[2]//input[1]"
	settingsFeedInInput       = "//div[11]//div[2]//input[1]"
	settingsTreesInput        = "(//input[@class='ng-untouched ng-pristine ng-valid'])[5]"
	settingsTempSelect        = "(//div[contains(@class,'mat-select-trigger')])[1]"
	settingsSavingsSelect     = "(//div[contains(@class,'mat-select-trigger')])[2]"
	settingsFuelSelect        = "(//div[contains(@class,'mat-select-trigger')])[3]"
	settingsRetainSelect      = "(//div[contains(@class,'mat-select-trigger')])[4]"
	settingsHCDateToggle      = "//input[contains(@id,'mat-slide-toggle') and @type='checkbox']"
	settingsHCDateToggleLabel = "//input[contains(@id,'mat-slide-toggle') and @type='checkbox']/ancestor::label"

	// Notification toggle on the settings screen
	notifyToggleInput = "//mat-slide-toggle//input[@type='checkbox']"
	notifyToggleHost  = "(//mat-slide-toggle)[1]"

	// Device/room expansion panels
	roomHeaders = "//mat-expansion-panel-header[starts-with(@id,'mat-expansion-panel-header')]"
)

// locationListEntry matches a location by its rendered name in the chooser
func locationListEntry(name string) string {
	return fmt.Sprintf("//div[@class='scroll-text'][normalize-space()='%s']", name)
}

// locationSettingRow matches a location's row on the location-settings tab
func locationSettingRow(name string) string {
	return fmt.Sprintf("(//div[contains(text(),'%s')])[1]", name)
}

// countryLabelFor matches the rendered country text exactly
func countryLabelFor(name string) string {
	return fmt.Sprintf("//div[normalize-space()='%s']", name)
}

// costLabelFor matches the cost-display mat-label by its text
func costLabelFor(text string) string {
	return fmt.Sprintf("(//mat-label[contains(text(),'%s')])[1]", text)
}

func roomHeaderAt(index int) string {
	return fmt.Sprintf("(%s)[%d]", roomHeaders, index+1)
}
