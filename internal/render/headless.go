package render

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ziadkadry99/pageforge/internal/logging"
)

// ErrNoBrowser is returned when no Chrome binary can be found.
var ErrNoBrowser = errors.New("no chrome or chromium binary found")

var chromeNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

// FindChrome returns path if set, otherwise the first Chrome-like binary on
// PATH.
func FindChrome(path string) (string, error) {
	if path != "" {
		return exec.LookPath(path)
	}
	for _, name := range chromeNames {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", ErrNoBrowser
}

// HeadlessOptions configures the Chrome renderer.
type HeadlessOptions struct {
	ChromePath string
	Timeout    time.Duration
	Width      int
	Height     int
}

// Snapshot is what a headless render observed.
type Snapshot struct {
	Title string
	Text  string
	PNG   []byte
}

// Headless renders documents in headless Chrome. Each render gets a fresh
// tab with its own about:blank origin, so a document can never see another
// document or the process that produced it.
type Headless struct {
	opts HeadlessOptions
}

// NewHeadless locates Chrome and returns a renderer. Chrome itself is only
// started when a document is rendered.
func NewHeadless(opts HeadlessOptions) (*Headless, error) {
	path, err := FindChrome(opts.ChromePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	opts.ChromePath = path
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}
	return &Headless{opts: opts}, nil
}

// Render loads markup and waits for it to become ready.
func (h *Headless) Render(ctx context.Context, markup string) error {
	_, err := h.Snapshot(ctx, markup, false)
	return err
}

// Snapshot loads markup and reports its title and visible text, plus a
// full-page PNG when withPNG is set.
func (h *Headless) Snapshot(ctx context.Context, markup string, withPNG bool) (*Snapshot, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(h.opts.ChromePath),
		chromedp.WindowSize(h.opts.Width, h.opts.Height),
		chromedp.Flag("disable-extensions", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(logging.Debugf))
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, h.opts.Timeout)
	defer cancelTimeout()

	snap := &Snapshot{}
	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(h.opts.Width), int64(h.opts.Height)),
		chromedp.Navigate("about:blank"),
		setDocument(markup),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Title(&snap.Title),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &snap.Text),
	}
	if withPNG {
		actions = append(actions, chromedp.FullScreenshot(&snap.PNG, 100))
	}

	start := time.Now()
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	logging.Debugf("rendered %d bytes of markup in %s", len(markup), time.Since(start).Round(time.Millisecond))
	return snap, nil
}

// setDocument replaces the content of the tab's main frame.
func setDocument(markup string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return fmt.Errorf("reading frame tree: %w", err)
		}
		return page.SetDocumentContent(tree.Frame.ID, markup).Do(ctx)
	})
}
