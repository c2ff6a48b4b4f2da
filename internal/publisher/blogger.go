package publisher

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/browser"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/config"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"github.com/playwright-community/playwright-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	newPostSelector      = `[aria-label*="new post" i]:visible`
	lineNumbersSelector  = `[class="CodeMirror-gutter CodeMirror-linenumbers"]`
	htmlMenuSelector     = `[class="MocG8c m5D6Fd LMgvRb KKjvXb"] [class="DPvwYc GHpiyd"]`
	htmlViewSelector     = `[ssk="6:Rxil4c"] [class="MocG8c m5D6Fd LMgvRb"]`
	editorSelector       = `[class="CodeMirror-scroll"]`
	editorInputSelector  = `textarea[autocorrect="off"]`
	labelsInputSelector  = `[aria-label*="separate labels" i]`
	searchDescSelector   = `[maxlength="150"]:visible`
	locationSelector     = `input[aria-label*="Search input"]:visible`
	customLinkSelector   = `[aria-label="Custom permalink" i]:visible`
	permalinkSelector    = `[aria-label="Custom Permalink Input"]`
	radioSelector        = `[role="radio"]`
	titleSelector        = `[aria-label="Title"]`
	publishSelector      = `[aria-label="Publish"]`
	confirmSelector      = `[class="XfpsVe J9fJmf"] [autofocus]`
	defaultStepTimeoutMs = 15000
)

// Blogger publishes job pages through the Blogger post editor. The browser
// session is opened on the first Publish and must be released with Close.
type Blogger struct {
	cfg        config.BloggerConfig
	log        *zap.Logger
	httpClient *http.Client
	shots      *browser.ScreenshotDebugger
	now        func() time.Time

	manager *browser.PlaywrightManager
	page    playwright.Page
}

func NewBlogger(cfg config.BloggerConfig, log *zap.Logger) *Blogger {
	log = log.Named("publisher.blogger")
	return &Blogger{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		shots:      browser.NewScreenshotDebugger(cfg.ScreenshotDir, log),
		now:        time.Now,
	}
}

// Publish creates and publishes one post containing doc.
func (b *Blogger) Publish(ctx context.Context, job models.ProcessedJob, doc string) error {
	if err := b.ensureSession(ctx); err != nil {
		return err
	}

	title := Title(job)
	if err := b.createPost(ctx, job, doc, title); err != nil {
		if path, shotErr := b.shots.CaptureAndLog(b.page, "publish_failed_"+strconv.Itoa(job.JobValueID), "Publish failed, saving screenshot"); shotErr == nil && path != "" {
			b.log.Debug("Saved failure screenshot", zap.String("path", path))
		}
		return eris.Wrapf(err, "publisher: post %q", title)
	}

	b.log.Info("✅ Post created",
		zap.String("title", title),
		zap.Int("job_id", job.JobValueID),
		zap.String("at", b.now().Format("15:04:05")),
	)
	return nil
}

// Close releases the browser session. It is safe to call repeatedly and
// before any Publish.
func (b *Blogger) Close() error {
	if b.manager == nil {
		return nil
	}
	err := b.manager.Close()
	b.manager = nil
	b.page = nil
	if err != nil {
		return eris.Wrap(err, "publisher: release browser")
	}
	b.log.Info("🔒 Browser session released")
	return nil
}

func (b *Blogger) ensureSession(ctx context.Context) error {
	if b.page != nil {
		return nil
	}

	opts := browser.Options{Headless: b.cfg.Headless}
	if b.cfg.ProfileID != "" && b.cfg.ProfileAPI != "" {
		endpoint, err := browser.OpenProfile(ctx, b.httpClient, b.cfg.ProfileAPI, b.cfg.ProfileID)
		if err != nil {
			return eris.Wrap(err, "publisher: open browser profile")
		}
		opts.CDPEndpoint = endpoint
	}

	var cookies []playwright.OptionalCookie
	if b.cfg.CookiesFile != "" {
		loaded, err := browser.LoadCookies(b.cfg.CookiesFile)
		if err != nil {
			b.log.Warn("⚠️ Could not load cookies, continuing without them", zap.Error(err))
		} else {
			cookies = loaded
		}
	}

	manager, err := browser.NewPlaywright(opts, b.log)
	if err != nil {
		return eris.Wrap(err, "publisher: start browser")
	}
	bctx, err := manager.NewContext(cookies)
	if err != nil {
		_ = manager.Close()
		return eris.Wrap(err, "publisher: browser context")
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = manager.Close()
		return eris.Wrap(err, "publisher: new page")
	}
	page.SetDefaultTimeout(defaultStepTimeoutMs)

	b.manager = manager
	b.page = page
	b.log.Info("✅ Browser initialized successfully")
	return nil
}

func (b *Blogger) createPost(ctx context.Context, job models.ProcessedJob, doc, title string) error {
	page := b.page

	if _, err := page.Goto(b.cfg.BaseURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return eris.Wrap(err, "open blogger")
	}
	if err := b.pause(ctx, 2*time.Second); err != nil {
		return err
	}

	if err := page.Locator(newPostSelector).First().Click(); err != nil {
		return eris.Wrap(err, "click new post")
	}
	if err := b.pause(ctx, 8*time.Second); err != nil {
		return err
	}

	if err := b.insertHTML(ctx, doc); err != nil {
		return err
	}

	b.step("labels", b.setLabels(ctx, Labels(job)))
	b.step("search description", b.setSearchDescription(ctx, SearchDescription(job)))
	b.step("location", b.setLocation(ctx, job.JobCountry))
	b.step("permalink", b.setPermalink(ctx, Permalink(b.cfg.PermalinkBase, job, b.now())))
	b.step("options", b.setOptions(ctx))

	if err := b.setTitle(ctx, title); err != nil {
		return eris.Wrap(err, "set title")
	}
	_ = browser.MouseJiggle(ctx, page)
	return b.publish(ctx)
}

// insertHTML switches the editor to HTML view and replaces its content.
func (b *Blogger) insertHTML(ctx context.Context, doc string) error {
	page := b.page

	gutterVisible, _ := page.Locator(lineNumbersSelector).First().IsVisible()
	if !gutterVisible {
		if err := page.Locator(htmlMenuSelector + ":visible").First().Click(); err != nil {
			return eris.Wrap(err, "open editor view menu")
		}
		if err := b.pause(ctx, time.Second); err != nil {
			return err
		}
		if err := page.Locator(htmlViewSelector).First().Click(); err != nil {
			return eris.Wrap(err, "switch to html view")
		}
	}

	if err := page.Locator(editorSelector).Last().Click(); err != nil {
		return eris.Wrap(err, "focus editor")
	}
	if err := b.pause(ctx, 2*time.Second); err != nil {
		return err
	}

	if err := page.Locator(editorInputSelector).Last().Focus(); err != nil {
		return eris.Wrap(err, "focus editor input")
	}
	kb := page.Keyboard()
	if err := kb.Press("Control+A"); err != nil {
		return eris.Wrap(err, "select editor content")
	}
	if err := kb.Press("Delete"); err != nil {
		return eris.Wrap(err, "clear editor content")
	}
	if err := kb.InsertText(doc); err != nil {
		return eris.Wrap(err, "insert html")
	}
	return b.pause(ctx, 2*time.Second)
}

func (b *Blogger) setLabels(ctx context.Context, labels string) error {
	if labels == "" {
		return nil
	}
	page := b.page
	section := page.GetByText("Labels").Last()

	input := page.Locator(labelsInputSelector + ":visible").First()
	if visible, _ := input.IsVisible(); !visible {
		if err := section.Click(); err != nil {
			return err
		}
		if err := b.pause(ctx, 700*time.Millisecond); err != nil {
			return err
		}
		input = page.Locator(labelsInputSelector).First()
	}
	if err := input.Click(); err != nil {
		return err
	}
	if err := input.Fill(labels); err != nil {
		return err
	}
	if err := b.pause(ctx, 700*time.Millisecond); err != nil {
		return err
	}
	return section.Click()
}

func (b *Blogger) setSearchDescription(ctx context.Context, desc string) error {
	if desc == "" {
		return nil
	}
	page := b.page
	section := page.GetByText("Search Description").First()
	if err := section.Click(); err != nil {
		return err
	}
	if err := b.pause(ctx, 900*time.Millisecond); err != nil {
		return err
	}
	field := page.Locator(searchDescSelector).First()
	if err := field.Click(); err != nil {
		return err
	}
	if err := field.Fill(desc); err != nil {
		return err
	}
	return section.Click()
}

func (b *Blogger) setLocation(ctx context.Context, location string) error {
	if location == "" {
		return nil
	}
	page := b.page
	section := page.GetByText("Location").First()
	if err := section.Click(); err != nil {
		return err
	}
	if err := b.pause(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	input := page.Locator(locationSelector).First()
	if err := input.Click(); err != nil {
		return err
	}
	if err := input.Fill(location); err != nil {
		return err
	}
	if err := b.pause(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	return section.Click()
}

func (b *Blogger) setPermalink(ctx context.Context, permalink string) error {
	page := b.page
	if err := page.GetByText("Links").First().Click(); err != nil {
		return err
	}
	if err := b.pause(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	if err := page.Locator(customLinkSelector).First().Click(); err != nil {
		return err
	}
	if err := b.pause(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	input := page.Locator(permalinkSelector).Last()
	if err := input.Click(); err != nil {
		return err
	}
	if err := input.Fill(permalink); err != nil {
		return err
	}
	if err := b.pause(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	return page.GetByText("Permalink").Last().Click()
}

// setOptions allows reader comments.
func (b *Blogger) setOptions(ctx context.Context) error {
	page := b.page
	section := page.GetByText("Option").Last()
	if err := section.Click(); err != nil {
		return err
	}
	if err := b.pause(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	if err := page.Locator(radioSelector).Last().Click(); err != nil {
		return err
	}
	if err := b.pause(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	return section.Click()
}

func (b *Blogger) setTitle(ctx context.Context, title string) error {
	field := b.page.Locator(titleSelector).Last()
	if err := field.Click(); err != nil {
		return err
	}
	if err := b.pause(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	return field.Fill(title)
}

func (b *Blogger) publish(ctx context.Context) error {
	if err := b.page.Locator(publishSelector).Last().Click(); err != nil {
		return eris.Wrap(err, "click publish")
	}
	if err := b.pause(ctx, 600*time.Millisecond); err != nil {
		return err
	}
	if err := b.page.Locator(confirmSelector).Last().Click(); err != nil {
		return eris.Wrap(err, "confirm publish")
	}
	return b.pause(ctx, 3*time.Second)
}

// step logs a failed optional editor step; the post is still published.
func (b *Blogger) step(name string, err error) {
	if err != nil {
		b.log.Warn("⚠️ Could not set post field", zap.String("field", name), zap.Error(err))
	}
}

// pause waits roughly d, jittered up to 25% to look less scripted.
func (b *Blogger) pause(ctx context.Context, d time.Duration) error {
	return browser.RandomDelay(ctx, d, d+d/4)
}
