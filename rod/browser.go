// Package rod implements capture.Browser using Chrome browser automation.
package rod

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/clefhq/capture"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxCaptures is the default number of captures before browser
// recycling. Chrome accumulates memory over time and the baseline never
// returns to initial levels even with proper page cleanup, so the browser
// process is replaced periodically.
const DefaultMaxCaptures = 75

// Ensure Browser implements capture.Browser at compile time.
var _ capture.Browser = (*Browser)(nil)

// Browser captures screenshots of rendered pages using a headless Chrome
// instance. The underlying browser process is recycled automatically after
// maxCaptures captures. Browser is safe for concurrent use.
type Browser struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	shots    int64
	maxShots int64
	closed   atomic.Bool
}

// Option configures a Browser.
type Option func(*Browser)

// WithMaxCaptures sets the number of captures before the browser process is
// recycled. Defaults to DefaultMaxCaptures.
func WithMaxCaptures(n int64) Option {
	return func(b *Browser) {
		b.maxShots = n
	}
}

// NewBrowser launches a headless Chrome browser. Close must be called when
// the Browser is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewBrowser(opts ...Option) (*Browser, error) {
	b := &Browser{maxShots: DefaultMaxCaptures}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.launch(); err != nil {
		return nil, err
	}
	return b, nil
}

// Screenshot navigates to the requested URL and captures an image of the
// page, a single element, or the full scrollable page.
func (b *Browser) Screenshot(ctx context.Context, req *capture.ScreenshotRequest) (*capture.ScreenshotResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	page, err := b.acquire().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, capture.Errorf(capture.EUNAVAILABLE, "opening page: %v", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             req.ViewportWidth,
		Height:            req.ViewportHeight,
		DeviceScaleFactor: req.DeviceScaleFactor,
		Mobile:            false,
	}); err != nil {
		return nil, wrapErr("setting viewport", err)
	}

	wait := page.WaitNavigation(lifecycleEvent(req.WaitUntil))
	if err := page.Navigate(req.URL); err != nil {
		return nil, wrapErr(fmt.Sprintf("navigating to %s", req.URL), err)
	}
	wait()

	data, err := b.capturePage(page, req)
	if err != nil {
		return nil, err
	}

	title := ""
	if info, err := page.Info(); err == nil {
		title = info.Title
	}

	b.recordCapture()

	return &capture.ScreenshotResult{Data: data, Title: title}, nil
}

func (b *Browser) capturePage(page *rod.Page, req *capture.ScreenshotRequest) ([]byte, error) {
	format := proto.PageCaptureScreenshotFormatPng
	if req.Format == "jpeg" {
		format = proto.PageCaptureScreenshotFormatJpeg
	}

	if req.Selector != "" {
		el, err := page.Element(req.Selector)
		if err != nil {
			return nil, capture.Errorf(capture.EUNSUPPORTED, "selector not found: %q", req.Selector)
		}
		data, err := el.Screenshot(format, req.Quality)
		if err != nil {
			return nil, wrapErr("capturing element", err)
		}
		return data, nil
	}

	shot := &proto.PageCaptureScreenshot{Format: format}
	if format == proto.PageCaptureScreenshotFormatJpeg {
		quality := req.Quality
		shot.Quality = &quality
	}
	data, err := page.Screenshot(req.FullPage, shot)
	if err != nil {
		return nil, wrapErr("capturing page", err)
	}
	return data, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (b *Browser) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shutdown()
}

// acquire returns the current browser instance, recycling it first when the
// capture count has reached the threshold.
func (b *Browser) acquire() *rod.Browser {
	b.mu.Lock()
	defer b.mu.Unlock()

	if atomic.LoadInt64(&b.shots) >= b.maxShots {
		b.recycle()
	}
	return b.browser
}

func (b *Browser) recordCapture() {
	atomic.AddInt64(&b.shots, 1)
}

// launch starts a new browser instance with stability flags.
func (b *Browser) launch() error {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := lnchr.Launch()
	if err != nil {
		return capture.Errorf(capture.EUNAVAILABLE, "launching browser: %v", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return capture.Errorf(capture.EUNAVAILABLE, "connecting to browser: %v", err)
	}

	b.browser = browser
	b.launcher = lnchr
	return nil
}

// shutdown closes the current browser and launcher. Must be called with mu
// held.
func (b *Browser) shutdown() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher = nil
	}
	return err
}

// recycle replaces the browser process with a fresh one. If the new launch
// fails the old browser is kept so captures can continue. Must be called
// with mu held.
func (b *Browser) recycle() {
	oldBrowser := b.browser
	oldLauncher := b.launcher
	b.browser = nil
	b.launcher = nil

	if err := b.launch(); err != nil {
		b.browser = oldBrowser
		b.launcher = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	atomic.StoreInt64(&b.shots, 0)
}

// lifecycleEvent maps a wait condition to the Chrome lifecycle event to wait
// for after navigation. Unknown values fall back to load.
func lifecycleEvent(waitUntil string) proto.PageLifecycleEventName {
	switch waitUntil {
	case capture.WaitDOMContentLoaded:
		return proto.PageLifecycleEventNameDOMContentLoaded
	case capture.WaitNetworkIdle:
		return proto.PageLifecycleEventNameNetworkIdle
	default:
		return proto.PageLifecycleEventNameLoad
	}
}

func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return capture.Errorf(capture.ETIMEOUT, "%s: %v", op, err)
	}
	return capture.Errorf(capture.EINTERNAL, "%s: %v", op, err)
}
