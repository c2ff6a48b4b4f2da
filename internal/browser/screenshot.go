package browser

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ScreenshotDebugger stores full-page screenshots when a publish step fails.
type ScreenshotDebugger struct {
	outputDir string
	log       *zap.Logger
	now       func() time.Time
}

func NewScreenshotDebugger(dir string, log *zap.Logger) *ScreenshotDebugger {
	return &ScreenshotDebugger{
		outputDir: dir,
		log:       log.Named("screenshot"),
		now:       time.Now,
	}
}

// CaptureAndLog saves a screenshot named after name and returns its path.
// A debugger without an output directory does nothing.
func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, name, message string) (string, error) {
	if s == nil || s.outputDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "browser: create screenshot dir %s", s.outputDir)
	}

	path := filepath.Join(s.outputDir, s.fileName(name))
	s.log.Info("📸 "+message, zap.String("path", path))

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		s.log.Warn("⚠️ Failed to capture screenshot", zap.Error(err))
		return "", eris.Wrap(err, "browser: screenshot")
	}
	return path, nil
}

func (s *ScreenshotDebugger) fileName(name string) string {
	clean := unsafeName.ReplaceAllString(name, "_")
	if clean == "" {
		clean = "page"
	}
	return clean + "_" + s.now().Format("2006-01-02_15-04-05") + ".png"
}
