// Package relister implements the relisting workflow: one complete
// login → delete → recreate cycle against the marketplace, with a bounded
// retry budget on the creation step.
package relister

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gumtree-relister/browser"
	"gumtree-relister/config"
	"gumtree-relister/metrics"
	"gumtree-relister/models"
)

// PageSession is the page automation capability one run owns exclusively.
// Methods report expected absence (not found, not clickable within the
// bounded wait) as false results; only environmental faults are errors.
// *browser.Session satisfies it.
type PageSession interface {
	Navigate(url string) error
	Reload() error
	Find(loc browser.Locator, timeout time.Duration) bool
	Click(loc browser.Locator, timeout time.Duration) bool
	Fill(loc browser.Locator, value string, timeout time.Duration) bool
	SelectByLabel(loc browser.Locator, label string, timeout time.Duration) bool
	UploadFile(loc browser.Locator, path string, timeout time.Duration) bool
	Count(loc browser.Locator, timeout time.Duration) int
	Text(loc browser.Locator, timeout time.Duration) (string, bool)
	Location() string
	Snapshot(label string)
	Close()
}

// SessionFactory opens a fresh session. One is acquired per run and never
// reused across runs.
type SessionFactory func() (PageSession, error)

// AdLoader loads the listing payload. *storage.AdStore satisfies it.
type AdLoader interface {
	Load() (*models.AdData, error)
}

// Relister executes relist cycles. It is not safe for concurrent use and is
// only ever driven sequentially by the scheduler or the CLI.
type Relister struct {
	cfg        *config.Config
	store      AdLoader
	newSession SessionFactory
	log        *slog.Logger
	metrics    *metrics.Metrics

	sleep func(time.Duration)
}

func New(cfg *config.Config, store AdLoader, factory SessionFactory, log *slog.Logger, m *metrics.Metrics) *Relister {
	return &Relister{
		cfg:        cfg,
		store:      store,
		newSession: factory,
		log:        log,
		metrics:    m,
		sleep:      time.Sleep,
	}
}

// RunOnce executes one complete relist cycle: load the payload, acquire a
// fresh session, sign in, delete the existing ad, recreate it with up to
// MaxRetries attempts, and release the session on every exit path.
//
// Authentication and data-load failures abort the run; a deletion failure is
// logged and the run continues, since a stale listing is tolerable but a
// missed relist is not.
func (r *Relister) RunOnce() models.RunOutcome {
	runID := uuid.NewString()
	log := r.log.With(slog.String("run_id", runID))
	start := time.Now()

	outcome := models.RunOutcome{RunID: runID, FailedStep: models.StepNone}
	defer func() {
		r.metrics.ObserveRunDuration(time.Since(start))
	}()

	log.Info("starting relist run")

	ad, err := r.store.Load()
	if err != nil {
		log.Error("could not load ad data", slog.Any("error", err))
		return r.fail(&outcome, models.StepDataLoad)
	}

	session, err := r.newSession()
	if err != nil {
		log.Error("could not start browser session", slog.Any("error", err))
		return r.fail(&outcome, models.StepSession)
	}
	defer session.Close()

	if !r.login(session, log) {
		log.Error("sign-in failed; aborting run")
		return r.fail(&outcome, models.StepLogin)
	}

	log.Info("deleting existing ad")
	if !r.deleteAd(session, log) {
		log.Warn("could not delete the existing ad; continuing with creation")
		outcome.DeletionFailed = true
		r.metrics.IncStepFailure(string(models.StepDelete))
	}

	log.Info("creating new ad")
	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		outcome.CreationAttempts = attempt
		r.metrics.IncCreationAttempt()

		if r.createAd(session, ad, log.With(slog.Int("attempt", attempt))) {
			outcome.Succeeded = true
			break
		}

		log.Warn("ad creation attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", r.cfg.MaxRetries))
		if attempt < r.cfg.MaxRetries {
			r.sleep(retryDelay)
		}
	}

	if !outcome.Succeeded {
		log.Error("ad creation failed after all attempts", slog.Int("attempts", r.cfg.MaxRetries))
		return r.fail(&outcome, models.StepCreate)
	}

	r.metrics.IncRun("success")
	log.Info("relist run completed",
		slog.Int("creation_attempts", outcome.CreationAttempts),
		slog.Bool("deletion_failed", outcome.DeletionFailed),
		slog.Duration("duration", time.Since(start)))
	return outcome
}

func (r *Relister) fail(outcome *models.RunOutcome, step models.Step) models.RunOutcome {
	outcome.FailedStep = step
	r.metrics.IncRun("failure")
	r.metrics.IncStepFailure(string(step))
	return *outcome
}

// login signs in and confirms success by locating the account's my-ads link.
// Authentication is never retried within a run.
func (r *Relister) login(s PageSession, log *slog.Logger) bool {
	log.Info("opening sign-in page")
	if err := s.Navigate(signInURL); err != nil {
		log.Error("could not open sign-in page", slog.Any("error", err))
		return false
	}

	// The consent prompt is not always shown; its absence is fine.
	if s.Click(locCookieAccept, waitCookie) {
		log.Info("cookie consent accepted")
	}

	if !s.Find(locEmailField, waitDefault) {
		log.Error("sign-in form not found")
		return false
	}
	if !s.Fill(locEmailField, r.cfg.Email, waitField) {
		log.Error("could not enter email")
		return false
	}
	if !s.Fill(locPasswordField, r.cfg.Password, waitField) {
		log.Error("could not enter password")
		return false
	}
	if !s.Click(locSignInButton, waitDefault) {
		log.Error("sign-in button not found")
		return false
	}

	if s.Find(locAccountLink, waitLoginMarker) {
		log.Info("signed in")
		return true
	}

	if msg, ok := s.Text(locLoginError, waitLoginError); ok {
		log.Error("sign-in rejected", slog.String("message", strings.TrimSpace(msg)))
	} else {
		log.Error("could not confirm sign-in")
	}
	return false
}

// deleteAd removes the first listing on the my-ads page. An absent container
// or an empty list is success: there is nothing to delete. Success is
// verified by the listing count decreasing after a reload.
func (r *Relister) deleteAd(s PageSession, log *slog.Logger) bool {
	log.Info("opening my-ads page")
	if err := s.Navigate(myAdsURL); err != nil {
		log.Error("could not open my-ads page", slog.Any("error", err))
		return false
	}

	if !s.Find(locAdsContainer, waitDefault) {
		log.Warn("ads container not found; assuming there is nothing to delete")
		return true
	}

	before := s.Count(locAdItems, countProbe)
	if before == 0 {
		log.Info("no ads listed; nothing to delete")
		return true
	}
	log.Info("ads found", slog.Int("count", before))

	deleteControl, ok := r.findDeleteControl(s, log)
	if !ok {
		log.Error("no delete control found after all fallbacks")
		r.snapshot(s, snapDeleteButton)
		return false
	}

	if !s.Click(deleteControl, waitShort) {
		log.Error("could not click the delete control")
		return false
	}

	if !s.Click(locDeleteConfirm, waitShort) {
		log.Error("delete confirmation button not found")
		return false
	}
	log.Info("deletion confirmed")

	if notice, found := s.Text(locDeleteNotice, waitShort); found {
		log.Info("deletion notice", slog.String("message", strings.TrimSpace(notice)))
	}
	r.sleep(deleteSettle)

	if err := s.Reload(); err != nil {
		log.Warn("could not reload my-ads page", slog.Any("error", err))
		return false
	}
	r.sleep(reloadSettle)

	after := s.Count(locAdItems, countProbe)
	if after < before {
		log.Info("ad deleted", slog.Int("before", before), slog.Int("after", after))
		return true
	}
	log.Warn("ad count did not decrease after deletion",
		slog.Int("before", before), slog.Int("after", after))
	return false
}

// findDeleteControl evaluates the fallback chain in priority order and
// returns the locator of the first delete control found.
func (r *Relister) findDeleteControl(s PageSession, log *slog.Logger) (browser.Locator, bool) {
	strategies := []struct {
		name string
		find func() (browser.Locator, bool)
	}{
		{"direct button", func() (browser.Locator, bool) {
			if s.Find(locDirectDelete, waitShort) {
				return locDirectDelete, true
			}
			return browser.Locator{}, false
		}},
		{"overflow menu", func() (browser.Locator, bool) {
			if !s.Click(locItemMenu, waitShort) {
				return browser.Locator{}, false
			}
			r.sleep(menuOpenSettle)
			if s.Find(locMenuDelete, waitShort) {
				return locMenuDelete, true
			}
			return browser.Locator{}, false
		}},
		{"aria-label icon", func() (browser.Locator, bool) {
			if s.Find(locAriaDelete, waitShort) {
				return locAriaDelete, true
			}
			return browser.Locator{}, false
		}},
	}

	for _, strategy := range strategies {
		if loc, found := strategy.find(); found {
			log.Info("delete control located", slog.String("strategy", strategy.name))
			return loc, true
		}
		log.Info("delete control not found, trying next strategy",
			slog.String("strategy", strategy.name))
	}
	return browser.Locator{}, false
}

// createAd performs one creation attempt. Missing optional fields, dropdowns
// and images are logged and skipped; only the form marker and the submit
// control are load-bearing.
func (r *Relister) createAd(s PageSession, ad *models.AdData, log *slog.Logger) bool {
	categoryURL := ad.CategoryURL
	if categoryURL == "" {
		categoryURL = defaultPostAdURL
	}

	if err := s.Navigate(categoryURL); err != nil {
		log.Error("could not open posting form", slog.Any("error", err))
		r.snapshot(s, snapCreation)
		return false
	}

	if !s.Find(locPostcodeField, waitFormMarker) {
		log.Error("posting form did not load")
		r.snapshot(s, snapCreateForm)
		return false
	}

	r.fillField(s, "title", ad.Title, 0, log)
	r.fillField(s, "description", ad.Description, 0, log)
	r.fillField(s, "price", ad.Price, 0, log)
	// The postcode triggers an async location lookup; give it a beat.
	r.fillField(s, "postcode", ad.Postcode, postcodeSettle, log)
	r.fillField(s, "contactName", ad.ContactName, 0, log)
	r.fillField(s, "phoneNumber", ad.PhoneNumber, 0, log)

	if ad.Postcode != "" && s.Click(locPostcodeCheck, waitCheckButton) {
		log.Info("postcode check clicked")
		r.sleep(checkSettle)
	}

	for _, id := range sortedKeys(ad.AdditionalFields) {
		r.fillField(s, id, ad.AdditionalFields[id], 0, log)
	}

	for _, id := range sortedKeys(ad.Dropdowns) {
		label := ad.Dropdowns[id]
		if s.SelectByLabel(browser.CSS("#"+id), label, waitField) {
			log.Info("dropdown selected", slog.String("field", id), slog.String("label", label))
		} else {
			log.Warn("dropdown not selected", slog.String("field", id), slog.String("label", label))
		}
	}

	r.uploadImages(s, ad.ImagePaths, log)

	if !s.Click(locSubmitButton, waitShort) {
		log.Error("submit button not found")
		r.snapshot(s, snapSubmitButton)
		return false
	}
	log.Info("form submitted, waiting for confirmation")
	r.sleep(submitSettle)

	return r.confirmCreation(s, log)
}

// fillField fills a form field by element ID if a value is present. A field
// that is individually absent or empty is skipped, not an error.
func (r *Relister) fillField(s PageSession, id, value string, settle time.Duration, log *slog.Logger) {
	if value == "" {
		return
	}
	if !s.Fill(browser.CSS("#"+id), value, waitField) {
		log.Warn("field not filled", slog.String("field", id))
		return
	}
	log.Info("field filled", slog.String("field", id), slog.String("value", truncate(value, 20)))
	if settle > 0 {
		r.sleep(settle)
	}
}

// uploadImages attaches the images that exist on disk, in payload order.
// Zero valid images is not an error.
func (r *Relister) uploadImages(s PageSession, paths []string, log *slog.Logger) {
	if len(paths) == 0 {
		return
	}

	if !s.Find(locFileInput, waitShort) {
		log.Warn("image upload control not found")
		return
	}

	uploaded := 0
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			log.Warn("invalid image path", slog.String("path", p))
			continue
		}
		if _, err := os.Stat(abs); err != nil {
			log.Warn("image not found on disk", slog.String("path", p))
			continue
		}
		if s.UploadFile(locFileInput, abs, waitShort) {
			uploaded++
			log.Info("image uploaded", slog.String("path", p))
			r.sleep(uploadSettle)
		}
	}

	if uploaded == 0 {
		log.Warn("no images uploaded")
	} else {
		log.Info("images uploaded", slog.Int("count", uploaded))
	}
}

// confirmCreation decides whether the submitted ad went live, checking in
// order: a success keyword in the URL, one round of final confirmation
// buttons followed by a URL re-check, an explicit success notice, and as a
// last resort having left the posting/edit page.
func (r *Relister) confirmCreation(s PageSession, log *slog.Logger) bool {
	if urlIndicatesSuccess(s.Location()) {
		log.Info("ad creation confirmed by URL")
		return true
	}

	if s.Click(locFinalConfirm, waitShort) {
		log.Info("final confirmation clicked")
		r.sleep(confirmSettle)
		if urlIndicatesSuccess(s.Location()) {
			log.Info("ad creation confirmed after final confirmation")
			return true
		}
	}

	if notice, found := s.Text(locSuccessNotice, waitShort); found {
		log.Info("success notice found", slog.String("message", strings.TrimSpace(notice)))
		return true
	}

	if url := s.Location(); url != "" && !strings.Contains(url, "post-ad") && !strings.Contains(url, "edit") {
		log.Info("left the posting page; treating the ad as created", slog.String("url", url))
		return true
	}

	log.Warn("could not confirm ad creation")
	r.snapshot(s, snapUncertain)
	return false
}

func (r *Relister) snapshot(s PageSession, label string) {
	s.Snapshot(label)
	r.metrics.IncSnapshot()
}

func urlIndicatesSuccess(url string) bool {
	for _, keyword := range successKeywords {
		if strings.Contains(url, keyword) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
