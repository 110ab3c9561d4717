// Package env defines the capability surface the escape logic needs from
// a hosting browser. Injecting it at construction time keeps the decision
// core free of ambient presence checks: non-browser contexts supply Null
// and every operation becomes a defined no-op.
package env

import "context"

// UI is a renderable dialog payload: markup to inject and a script to
// run once the markup is in the document.
type UI struct {
	HTML   string
	Script string
}

// Environment is the set of browser primitives the detector, redirector
// and presentation adapter consume.
type Environment interface {
	// Available reports whether an interactive browser surface exists.
	// When false, callers must treat every operation as a no-op.
	Available() bool

	// UserAgent returns the environment's user-agent string, or "" when
	// none is provided.
	UserAgent(ctx context.Context) string

	// CurrentURL returns the page URL, or "" when none exists.
	CurrentURL(ctx context.Context) string

	// Languages returns the environment's preferred-language tags in
	// preference order.
	Languages(ctx context.Context) []string

	// OpenWindow opens the URL in a new top-level browsing context.
	OpenWindow(ctx context.Context, url string) error

	// Navigate points the current browsing context at the URL.
	Navigate(ctx context.Context, url string) error

	// ShowDialog injects the given payload into the page as a modal.
	ShowDialog(ctx context.Context, ui UI) error
}
