package browser

import (
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Options selects how the browser is obtained.
type Options struct {
	// CDPEndpoint attaches to an already running browser when set.
	CDPEndpoint string
	Headless    bool
}

// PlaywrightManager owns the playwright driver and one browser.
type PlaywrightManager struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	attached bool
	log      *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewPlaywright starts the playwright driver and either attaches over CDP or
// launches a local Chromium.
func NewPlaywright(opts Options, log *zap.Logger) (*PlaywrightManager, error) {
	log = log.Named("browser")

	pw, err := playwright.Run()
	if err != nil {
		return nil, eris.Wrap(err, "browser: start playwright")
	}

	var b playwright.Browser
	if opts.CDPEndpoint != "" {
		b, err = pw.Chromium.ConnectOverCDP(opts.CDPEndpoint)
		if err != nil {
			_ = pw.Stop()
			return nil, eris.Wrapf(err, "browser: connect over cdp %s", opts.CDPEndpoint)
		}
		log.Info("🔌 Attached to profile browser", zap.String("endpoint", opts.CDPEndpoint))
	} else {
		b, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			Args:     []string{"--disable-blink-features=AutomationControlled"},
		})
		if err != nil {
			_ = pw.Stop()
			return nil, eris.Wrap(err, "browser: launch chromium")
		}
		log.Info("🚀 Launched chromium", zap.Bool("headless", opts.Headless))
	}

	return &PlaywrightManager{
		pw:       pw,
		browser:  b,
		attached: opts.CDPEndpoint != "",
		log:      log,
	}, nil
}

// NewContext returns a browser context carrying the given cookies. An
// attached profile browser reuses its default context so the profile's own
// login state is kept.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	var bctx playwright.BrowserContext
	if pm.attached {
		if existing := pm.browser.Contexts(); len(existing) > 0 {
			bctx = existing[0]
		}
	}
	if bctx == nil {
		var err error
		bctx, err = pm.browser.NewContext(playwright.BrowserNewContextOptions{
			UserAgent: playwright.String(defaultUserAgent),
			Viewport:  &playwright.Size{Width: 1366, Height: 900},
		})
		if err != nil {
			return nil, eris.Wrap(err, "browser: new context")
		}
	}

	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			return nil, eris.Wrap(err, "browser: add cookies")
		}
		pm.log.Info("🍪 Loaded cookies", zap.Int("count", len(cookies)))
	}
	return bctx, nil
}

// Close releases the browser and the driver. Safe to call more than once.
func (pm *PlaywrightManager) Close() error {
	pm.closeOnce.Do(func() {
		// Closing an attached browser only disconnects; the profile keeps running.
		if err := pm.browser.Close(); err != nil {
			pm.closeErr = eris.Wrap(err, "browser: close browser")
		}
		if err := pm.pw.Stop(); err != nil && pm.closeErr == nil {
			pm.closeErr = eris.Wrap(err, "browser: stop playwright")
		}
	})
	return pm.closeErr
}
