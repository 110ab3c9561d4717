// Package watch observes page navigations over CDP and completes the
// sentinel escape round-trip: when a page loads carrying the escape
// sentinel, it performs the one-time cleanup navigation back to the
// canonical URL.
package watch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/dgnsrekt/webview_escape/internal/remedy"
)

// Watcher tracks the sentinel state machine for pages matching a URL
// filter and drives the Escaped -> Normal transition.
type Watcher struct {
	cdpURL    string
	urlFilter string

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu      sync.Mutex
	state   remedy.State
	cleaned map[string]bool // sentinel URLs already cleaned up

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to remedy.State, url string)
}

// NewWatcher creates a watcher against the CDP endpoint. urlFilter limits
// which page the watcher attaches to (substring match).
func NewWatcher(cdpURL, urlFilter string) *Watcher {
	return &Watcher{
		cdpURL:    cdpURL,
		urlFilter: strings.ToLower(strings.TrimSpace(urlFilter)),
		state:     remedy.StateNormal,
		cleaned:   make(map[string]bool),
	}
}

// Start attaches to the first matching page target and begins listening
// for navigations. It returns once attached; event handling continues
// until Stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.allocCtx, w.allocCancel = chromedp.NewRemoteAllocator(context.Background(), w.cdpURL)

	tempCtx, tempCancel := chromedp.NewContext(w.allocCtx)
	defer tempCancel()
	if err := chromedp.Run(tempCtx); err != nil {
		return err
	}

	targets, err := chromedp.Targets(tempCtx)
	if err != nil {
		return err
	}

	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if w.urlFilter != "" && !strings.Contains(strings.ToLower(t.URL), w.urlFilter) {
			continue
		}
		w.tabCtx, w.tabCancel = chromedp.NewContext(w.allocCtx, chromedp.WithTargetID(t.TargetID))
		break
	}
	if w.tabCtx == nil {
		// No matching page yet; watch the first one that appears.
		w.tabCtx, w.tabCancel = chromedp.NewContext(w.allocCtx)
	}

	chromedp.ListenTarget(w.tabCtx, func(ev any) {
		if nav, ok := ev.(*page.EventFrameNavigated); ok && nav.Frame != nil && nav.Frame.ParentID == "" {
			w.handleNavigation(nav.Frame.URL)
		}
	})

	if err := chromedp.Run(w.tabCtx, page.Enable()); err != nil {
		return err
	}
	slog.Info("watch attached", "cdp_url", w.cdpURL, "url_filter", w.urlFilter)
	return nil
}

// Stop detaches from the browser.
func (w *Watcher) Stop() {
	if w.tabCancel != nil {
		w.tabCancel()
	}
	if w.allocCancel != nil {
		w.allocCancel()
	}
}

// State returns the current sentinel state.
func (w *Watcher) State() remedy.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// MarkEscaping records that the escape chain just appended the sentinel,
// so the next sentinel load is expected.
func (w *Watcher) MarkEscaping(url string) {
	w.transition(remedy.StateEscaping, url)
}

func (w *Watcher) handleNavigation(url string) {
	if remedy.StateOf(url) != remedy.StateEscaped {
		w.transition(remedy.StateNormal, url)
		return
	}

	w.mu.Lock()
	already := w.cleaned[url]
	if !already {
		w.cleaned[url] = true
	}
	tabCtx := w.tabCtx
	w.mu.Unlock()

	w.transition(remedy.StateEscaped, url)
	if already {
		return
	}

	clean, err := remedy.CleanupURL(url)
	if err != nil {
		slog.Warn("watch cleanup url failed", "url", url, "error", err)
		return
	}
	if tabCtx == nil {
		slog.Warn("watch cleanup skipped, not attached", "url", url)
		return
	}
	slog.Info("watch sentinel cleanup", "from", url, "to", clean)
	// The listener callback runs on the CDP event loop; navigating from
	// inside it deadlocks, so the action leaves the callback.
	go func() {
		if err := chromedp.Run(tabCtx, chromedp.Navigate(clean)); err != nil {
			slog.Warn("watch cleanup navigation failed", "error", err)
		}
	}()
}

func (w *Watcher) transition(to remedy.State, url string) {
	w.mu.Lock()
	from := w.state
	w.state = to
	w.mu.Unlock()
	if from != to && w.OnTransition != nil {
		w.OnTransition(from, to, url)
	}
}
