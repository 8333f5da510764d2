// Package capture drives a headless browser over a page, scrolling it to
// trigger lazy-loaded content and saving every distinct <img> as a
// normalized PNG in a media directory.
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/lehigh-university-libraries/pagestitch/internal/config"
	"github.com/lehigh-university-libraries/pagestitch/internal/images"
	"github.com/lehigh-university-libraries/pagestitch/internal/models"
)

// ErrNoImages is returned when no visible image appears before the wait timeout
var ErrNoImages = errors.New("no visible image on page")

// canvasJS exports an <img> at its natural size as base64 PNG data.
// Cross-origin images taint the canvas and make toDataURL throw.
const canvasJS = `function() {
	const c = document.createElement('canvas');
	c.width = this.naturalWidth;
	c.height = this.naturalHeight;
	if (c.width === 0 || c.height === 0) return '';
	c.getContext('2d').drawImage(this, 0, 0);
	return c.toDataURL('image/png').substring(22);
}`

const (
	scrollJS = `() => window.scrollBy(0, window.innerHeight)`
	bottomJS = `() => window.scrollY + window.innerHeight >= document.body.scrollHeight`
)

// Options configures a Capturer
type Options struct {
	// ControlURL connects to an already running browser instead of launching one.
	ControlURL  string
	BrowserBin  string
	Headless    bool
	NoSandbox   bool
	WaitTimeout time.Duration
	ScrollPause time.Duration
	MaxScrolls  int
}

// OptionsFromConfig maps capture settings onto Options
func OptionsFromConfig(cfg config.CaptureConfig) Options {
	return Options{
		ControlURL:  cfg.ControlURL,
		BrowserBin:  cfg.BrowserBin,
		Headless:    cfg.Headless,
		NoSandbox:   cfg.NoSandbox,
		WaitTimeout: cfg.WaitTimeout,
		ScrollPause: cfg.ScrollPause,
		MaxScrolls:  cfg.MaxScrolls,
	}
}

// Capturer extracts images from web pages
type Capturer struct {
	opts Options
}

// New creates a Capturer, filling unset options with defaults
func New(opts Options) *Capturer {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = config.DefaultWaitTimeout
	}
	if opts.ScrollPause < 0 {
		opts.ScrollPause = 0
	}
	if opts.MaxScrolls <= 0 {
		opts.MaxScrolls = config.DefaultMaxScrolls
	}
	return &Capturer{opts: opts}
}

// Capture loads url, scrolls to the bottom and saves each unique image to
// mediaDir as page_<n>.png. Descriptors are returned in discovery order.
func (c *Capturer) Capture(ctx context.Context, url, mediaDir string) ([]models.ImageDescriptor, error) {
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	browser, cleanup, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	slog.Info("Page loaded", "url", url)

	first, err := page.Timeout(c.opts.WaitTimeout).Element("img")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImages, err)
	}
	if err := first.Timeout(c.opts.WaitTimeout).WaitVisible(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImages, err)
	}

	seen := make(map[string]bool)
	var saved []models.ImageDescriptor

	for pass := 0; pass < c.opts.MaxScrolls; pass++ {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		saved, err = c.collect(page, mediaDir, seen, saved)
		if err != nil {
			return saved, err
		}

		if _, err := page.Eval(scrollJS); err != nil {
			return saved, fmt.Errorf("failed to scroll: %w", err)
		}
		if c.opts.ScrollPause > 0 {
			select {
			case <-ctx.Done():
				return saved, ctx.Err()
			case <-time.After(c.opts.ScrollPause):
			}
		}

		res, err := page.Eval(bottomJS)
		if err != nil {
			return saved, fmt.Errorf("failed to read scroll position: %w", err)
		}
		if res.Value.Bool() {
			// One last pass for content revealed by the final scroll.
			return c.collect(page, mediaDir, seen, saved)
		}
	}

	slog.Warn("Stopped scrolling before the end of the page", "max_scrolls", c.opts.MaxScrolls)
	return saved, nil
}

// connect returns a connected browser and a function releasing it
func (c *Capturer) connect(ctx context.Context) (*rod.Browser, func(), error) {
	controlURL := c.opts.ControlURL
	var l *launcher.Launcher

	if controlURL == "" {
		l = launcher.New().Context(ctx).Headless(c.opts.Headless)
		if c.opts.NoSandbox {
			l = l.NoSandbox(true)
		}
		if c.opts.BrowserBin != "" {
			l = l.Bin(c.opts.BrowserBin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	cleanup := func() {
		if err := browser.Close(); err != nil {
			slog.Debug("Browser close failed", "error", err)
		}
		if l != nil {
			l.Kill()
		}
	}
	return browser, cleanup, nil
}

// collect saves every <img> on the page whose src has not been seen yet
func (c *Capturer) collect(page *rod.Page, mediaDir string, seen map[string]bool, saved []models.ImageDescriptor) ([]models.ImageDescriptor, error) {
	elements, err := page.Elements("img")
	if err != nil {
		return saved, fmt.Errorf("failed to list images: %w", err)
	}

	for _, el := range elements {
		src, err := el.Attribute("src")
		if err != nil || src == nil || *src == "" {
			continue
		}
		if seen[*src] {
			continue
		}

		res, err := el.Eval(canvasJS)
		if err != nil {
			// Not marked seen, so a later pass retries it once it has loaded.
			slog.Debug("Failed to export image", "src", abbreviate(*src), "error", err)
			continue
		}
		data := res.Value.Str()
		if data == "" {
			continue
		}

		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			slog.Warn("Invalid image data", "src", abbreviate(*src), "error", err)
			continue
		}

		path := filepath.Join(mediaDir, images.PageFilename(len(saved)+1))
		desc, err := images.SaveNormalizedPNG(raw, path)
		if err != nil {
			return saved, fmt.Errorf("failed to save image %d: %w", len(saved)+1, err)
		}
		saved = append(saved, desc)
		seen[*src] = true

		slog.Info("Saved image", "index", len(saved), "path", path, "width", desc.Width, "height", desc.Height)
	}

	return saved, nil
}

// abbreviate shortens data: URIs and long URLs for logging
func abbreviate(src string) string {
	const maxLen = 80
	if strings.HasPrefix(src, "data:") {
		if i := strings.IndexByte(src, ','); i > 0 {
			return src[:i] + ",..."
		}
	}
	if len(src) <= maxLen {
		return src
	}
	return src[:maxLen-3] + "..."
}
