// Package browser owns the single shared headless browser instance and the
// isolated pages scrape flows run in. The browser is created on first use,
// recreated if it disconnects, and shut down explicitly; each page gets a
// randomized fingerprint and the stealth property overrides.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"liscraper/pkg/config"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
)

// Driver is the browser surface the orchestrator depends on, injectable for
// test doubles.
type Driver interface {
	Acquire(ctx context.Context) (Page, error)
	Shutdown() error
}

// Page is one isolated browser page. No page is driven by more than one
// scrape flow at a time.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	CurrentURL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Text(ctx context.Context, selector string) (string, error)
	Exists(ctx context.Context, selector string) (bool, error)
	Type(ctx context.Context, selector, text string, delays []time.Duration) error
	Click(ctx context.Context, selector string) error
	SetCookies(ctx context.Context, cookies []models.Cookie) error
	Cookies(ctx context.Context) ([]models.Cookie, error)
	UserAgent() string
	Close()
}

// Manager implements Driver over a lazily created chromedp browser.
type Manager struct {
	cfg config.BrowserConfig
	log logger.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewManager creates a Manager. The underlying browser process starts on
// the first Acquire call, not here.
func NewManager(cfg config.BrowserConfig, log logger.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Acquire returns a new isolated page on the shared browser, creating or
// recreating the browser first if needed.
func (m *Manager) Acquire(ctx context.Context) (Page, error) {
	browserCtx, err := m.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	fp := RandomFingerprint()
	pageCtx, pageCancel := chromedp.NewContext(browserCtx)

	err = chromedp.Run(pageCtx,
		emulation.SetUserAgentOverride(fp.UserAgent).
			WithAcceptLanguage(fp.AcceptLanguage).
			WithPlatform(fp.Platform),
		chromedp.EmulateViewport(fp.ViewportWidth, fp.ViewportHeight),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript(fp)).Do(ctx)
			return err
		}),
	)
	if err != nil {
		pageCancel()
		return nil, fmt.Errorf("failed to prepare page: %w", err)
	}

	m.log.WithFields(map[string]interface{}{
		"viewport":   fmt.Sprintf("%dx%d", fp.ViewportWidth, fp.ViewportHeight),
		"user_agent": fp.UserAgent,
	}).Debug("Page acquired")

	return &chromePage{ctx: pageCtx, cancel: pageCancel, fingerprint: fp}, nil
}

// ensureBrowser returns a healthy shared browser context, creating one if
// absent and recreating it if the existing one no longer responds.
func (m *Manager) ensureBrowser(ctx context.Context) (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browserCtx != nil {
		if m.ping() {
			return m.browserCtx, nil
		}
		m.log.Warn("Browser disconnected, recreating")
		m.teardownLocked()
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.Flag("no-sandbox", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Startup test: a browser that cannot reach about:blank is useless.
	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	m.allocCancel = allocCancel
	m.browserCtx = browserCtx
	m.browserCancel = browserCancel

	m.log.WithField("headless", m.cfg.Headless).Info("Browser started")
	return m.browserCtx, nil
}

// ping checks the shared browser is still responsive.
func (m *Manager) ping() bool {
	pingCtx, cancel := context.WithTimeout(m.browserCtx, 5*time.Second)
	defer cancel()
	var result int
	return chromedp.Run(pingCtx, chromedp.Evaluate("1", &result)) == nil
}

// Shutdown tears down the shared browser. Safe to call when no browser was
// ever started.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
	return nil
}

func (m *Manager) teardownLocked() {
	if m.browserCancel != nil {
		m.browserCancel()
		m.browserCancel = nil
	}
	if m.allocCancel != nil {
		m.allocCancel()
		m.allocCancel = nil
	}
	m.browserCtx = nil
}
