package relister

import (
	"time"

	"gumtree-relister/browser"
)

const (
	signInURL        = "https://www.gumtree.com/signin"
	myAdsURL         = "https://www.gumtree.com/my/ads"
	defaultPostAdURL = "https://www.gumtree.com/post-ad"
)

// Element wait budgets. Every wait is bounded; a timeout means "not found"
// and never blocks the run indefinitely.
const (
	waitDefault     = 10 * time.Second
	waitShort       = 5 * time.Second
	waitCookie      = 5 * time.Second
	waitLoginMarker = 15 * time.Second
	waitLoginError  = 3 * time.Second
	waitFormMarker  = 15 * time.Second
	waitField       = 5 * time.Second
	waitCheckButton = 3 * time.Second
	countProbe      = 3 * time.Second
)

// Settle pauses, mirroring the page's own async behaviour (postcode lookup,
// image processing, post-submit redirects).
const (
	retryDelay     = 5 * time.Second
	postcodeSettle = time.Second
	menuOpenSettle = time.Second
	checkSettle    = 2 * time.Second
	uploadSettle   = 2 * time.Second
	submitSettle   = 5 * time.Second
	deleteSettle   = 3 * time.Second
	reloadSettle   = 2 * time.Second
	confirmSettle  = 3 * time.Second
)

// Diagnostic snapshot labels.
const (
	snapDeleteButton = "error_delete_button"
	snapCreateForm   = "error_create_form"
	snapSubmitButton = "error_submit_button"
	snapUncertain    = "uncertain_creation"
	snapCreation     = "error_creation"
)

// Sign-in page.
var (
	locCookieAccept  = browser.CSS("#onetrust-accept-btn-handler")
	locEmailField    = browser.CSS("#email")
	locPasswordField = browser.CSS("#password")
	locSignInButton  = browser.XPath(`//button[contains(text(), 'Sign in')]`)
	locAccountLink   = browser.XPath(`//a[contains(@href, '/my/ads')]`)
	locLoginError    = browser.XPath(`//div[contains(@class, 'error') or contains(@class, 'alert')]`)
)

// My-ads page. The three delete locators form the fallback chain: a direct
// button on the first listing, a delete option behind its overflow menu, or
// an icon button identified by aria-label.
var (
	locAdsContainer  = browser.CSS(".my-items-list")
	locAdItems       = browser.XPath(`//div[contains(@class, 'my-items-list')]/div[contains(@class, 'item')]`)
	locDirectDelete  = browser.XPath(`//div[contains(@class, 'my-items-list')]/div[contains(@class, 'item')][1]//button[contains(text(), 'Delete') or contains(text(), 'Remove')]`)
	locItemMenu      = browser.XPath(`//div[contains(@class, 'my-items-list')]/div[contains(@class, 'item')][1]//button[contains(@class, 'menu') or contains(@class, 'dropdown') or contains(@aria-label, 'menu')]`)
	locMenuDelete    = browser.XPath(`//button[contains(text(), 'Delete') or contains(text(), 'Remove')]`)
	locAriaDelete    = browser.XPath(`//div[contains(@class, 'my-items-list')]/div[contains(@class, 'item')][1]//button[contains(@aria-label, 'delete') or contains(@aria-label, 'remove')]`)
	locDeleteConfirm = browser.XPath(`//button[contains(text(), 'Confirm') or contains(text(), 'Yes') or contains(text(), 'Ok')]`)
	locDeleteNotice  = browser.XPath(`//div[contains(@class, 'success') or contains(@class, 'notification')]`)
)

// Posting form.
var (
	locPostcodeField = browser.CSS("#postcode")
	locPostcodeCheck = browser.XPath(`//button[contains(text(), 'Check') or contains(text(), 'Find') or contains(@aria-label, 'check')]`)
	locFileInput     = browser.CSS(`input[type="file"]`)
	locSubmitButton  = browser.XPath(`//button[contains(text(), 'Post') or contains(text(), 'Submit') or contains(text(), 'Continue')]`)
	locFinalConfirm  = browser.XPath(`//button[contains(text(), 'Confirm') or contains(text(), 'Publish') or contains(text(), 'Done') or contains(text(), 'Post')]`)
	locSuccessNotice = browser.XPath(`//div[contains(@class, 'success') or contains(@class, 'notification') or contains(text(), 'successful')]`)
)

var successKeywords = []string{"success", "published", "confirmation"}
