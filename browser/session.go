package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

const (
	navigateTimeout = 60 * time.Second
	clickRetries    = 3
	clickRetryPause = time.Second
)

// Session is one exclusively-owned browser session: a fresh Chrome process
// and tab acquired at the start of a relist run and closed unconditionally
// at its end. Sessions are never reused across runs.
//
// Every method is a bounded operation. Expected absence (element not found,
// wait timed out) is reported as a false/zero result, not an error; only
// environmental faults such as navigation failures surface as errors.
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	snapshotDir string
	log         *slog.Logger
}

// NewSession launches a stealth-configured Chrome and opens a tab. Failure
// to start the browser is fatal for the run that requested it.
func NewSession(headless bool, snapshotDir string, log *slog.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.Background(),
		stealthOpts(headless)...,
	)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Running an empty task forces the browser process to start now, so a
	// broken Chrome install fails the run before any step begins.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	log.Info("browser session started", slog.Bool("headless", headless))
	return &Session{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		snapshotDir: snapshotDir,
		log:         log,
	}, nil
}

func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate opens a URL and re-applies the in-page automation masking.
func (s *Session) Navigate(url string) error {
	if err := s.run(navigateTimeout, chromedp.Navigate(url), hideWebDriver()); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Reload refreshes the current page.
func (s *Session) Reload() error {
	if err := s.run(navigateTimeout, chromedp.Reload(), hideWebDriver()); err != nil {
		return fmt.Errorf("reload page: %w", err)
	}
	return nil
}

// Find waits up to timeout for an element to be present. Not found is an
// expected, recoverable condition.
func (s *Session) Find(loc Locator, timeout time.Duration) bool {
	err := s.run(timeout, chromedp.WaitReady(loc.Query, loc.queryOption()))
	if err != nil {
		s.log.Debug("element not found", slog.String("locator", loc.String()))
		return false
	}
	return true
}

// Click waits for the element to be visible and clicks it, retrying a
// bounded number of times to ride out re-renders.
func (s *Session) Click(loc Locator, timeout time.Duration) bool {
	for attempt := 1; attempt <= clickRetries; attempt++ {
		err := s.run(timeout,
			chromedp.WaitVisible(loc.Query, loc.queryOption()),
			chromedp.Click(loc.Query, loc.queryOption()),
		)
		if err == nil {
			return true
		}
		if attempt < clickRetries {
			s.log.Warn("click failed, retrying",
				slog.String("locator", loc.String()),
				slog.Int("attempt", attempt))
			time.Sleep(clickRetryPause)
		} else {
			s.log.Warn("click failed", slog.String("locator", loc.String()), slog.Any("error", err))
		}
	}
	return false
}

// Fill clears a field and types the value into it.
func (s *Session) Fill(loc Locator, value string, timeout time.Duration) bool {
	err := s.run(timeout,
		chromedp.WaitReady(loc.Query, loc.queryOption()),
		chromedp.Clear(loc.Query, loc.queryOption()),
		chromedp.SendKeys(loc.Query, value, loc.queryOption()),
	)
	if err != nil {
		s.log.Warn("could not fill field", slog.String("locator", loc.String()), slog.Any("error", err))
		return false
	}
	return true
}

// SelectByLabel picks a <select> option by its visible label and fires a
// change event so the page's own handlers run. CSS locators only.
func (s *Session) SelectByLabel(loc Locator, label string, timeout time.Duration) bool {
	if loc.By != ByCSS {
		s.log.Warn("dropdown selection requires a CSS locator", slog.String("locator", loc.String()))
		return false
	}
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el || !el.options) return false;
		for (const opt of el.options) {
			if (opt.label.trim() === %q || opt.text.trim() === %q) {
				el.value = opt.value;
				el.dispatchEvent(new Event('change', { bubbles: true }));
				return true;
			}
		}
		return false;
	})()`, loc.Query, label, label)

	var selected bool
	err := s.run(timeout,
		chromedp.WaitReady(loc.Query, loc.queryOption()),
		chromedp.Evaluate(js, &selected),
	)
	if err != nil || !selected {
		s.log.Warn("could not select dropdown option",
			slog.String("locator", loc.String()),
			slog.String("label", label))
		return false
	}
	return true
}

// UploadFile attaches one file to a file input.
func (s *Session) UploadFile(loc Locator, path string, timeout time.Duration) bool {
	err := s.run(timeout,
		chromedp.WaitReady(loc.Query, loc.queryOption()),
		chromedp.SetUploadFiles(loc.Query, []string{path}, loc.queryOption()),
	)
	if err != nil {
		s.log.Warn("could not upload file",
			slog.String("locator", loc.String()),
			slog.String("path", path),
			slog.Any("error", err))
		return false
	}
	return true
}

// Count returns the number of elements currently matching the locator,
// without waiting for any to appear.
func (s *Session) Count(loc Locator, timeout time.Duration) int {
	var nodes []*cdp.Node
	err := s.run(timeout, chromedp.Nodes(loc.Query, &nodes, loc.queryOption(), chromedp.AtLeast(0)))
	if err != nil {
		s.log.Debug("count failed", slog.String("locator", loc.String()))
		return 0
	}
	return len(nodes)
}

// Text waits for an element and returns its visible text.
func (s *Session) Text(loc Locator, timeout time.Duration) (string, bool) {
	var out string
	err := s.run(timeout, chromedp.Text(loc.Query, &out, loc.queryOption()))
	if err != nil {
		return "", false
	}
	return out, true
}

// Location returns the current page URL, or "" if it cannot be read.
func (s *Session) Location() string {
	var url string
	if err := s.run(10*time.Second, chromedp.Location(&url)); err != nil {
		s.log.Warn("could not read current location", slog.Any("error", err))
		return ""
	}
	return url
}

// Snapshot captures a screenshot into the snapshot directory as a
// timestamped PNG. It is a diagnostic side effect only; failures are logged
// and swallowed.
func (s *Session) Snapshot(label string) {
	var buf []byte
	if err := s.run(15*time.Second, chromedp.CaptureScreenshot(&buf)); err != nil {
		s.log.Warn("could not capture snapshot", slog.String("label", label), slog.Any("error", err))
		return
	}

	if err := os.MkdirAll(s.snapshotDir, 0o755); err != nil {
		s.log.Warn("could not create snapshot directory", slog.Any("error", err))
		return
	}

	name := fmt.Sprintf("%s_%s.png", label, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.snapshotDir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		s.log.Warn("could not write snapshot", slog.String("path", path), slog.Any("error", err))
		return
	}
	s.log.Info("diagnostic snapshot saved", slog.String("path", path))
}

// Close tears the session down. Safe to call exactly once per run on every
// exit path.
func (s *Session) Close() {
	s.tabCancel()
	s.allocCancel()
	s.log.Info("browser session closed")
}
