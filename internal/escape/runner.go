// Package escape orchestrates the full remediation pass: read the
// environment, detect the host application, decide, and execute the
// chosen remediation.
package escape

import (
	"context"

	"github.com/dgnsrekt/webview_escape/internal/dialog"
	"github.com/dgnsrekt/webview_escape/internal/env"
	"github.com/dgnsrekt/webview_escape/internal/remedy"
	"github.com/dgnsrekt/webview_escape/internal/signature"
)

// Result captures one remediation pass for observers (journal, notify,
// API responses). The decision core itself never stores it.
type Result struct {
	UserAgent string            `json:"user_agent"`
	URL       string            `json:"url"`
	Matches   []signature.AppID `json:"matches"`
	Decision  remedy.Decision   `json:"decision"`
	Step      string            `json:"step,omitempty"`
	Handled   bool              `json:"handled"`
}

// Runner wires the detector, redirector and presentation adapter to one
// environment.
type Runner struct {
	Env   env.Environment
	Table *signature.Table

	// OnDecision, when set, observes every completed pass. Observer
	// failures cannot affect the outcome.
	OnDecision func(Result)

	// OnSentinel, when set, observes a successful sentinel navigation:
	// the page is now expected to reload carrying the sentinel, and a
	// watcher owes it a cleanup navigation.
	OnSentinel func(markedURL string)
}

// NewRunner builds a runner over the given environment and the built-in
// signature table.
func NewRunner(e env.Environment) *Runner {
	return &Runner{Env: e, Table: signature.NewTable()}
}

// Run performs one remediation pass and reports whether a remediation was
// initiated. Outside a browser-like environment it is a guaranteed no-op
// returning false. Showing the guidance dialog counts as handled; the
// user acting on it does not matter. A failed escape chain, or no match
// at all, is a quiet false; the worst case here is "nothing happened".
func (r *Runner) Run(ctx context.Context) bool {
	return r.RunDetailed(ctx).Handled
}

// RunDetailed is Run with the full pass record.
func (r *Runner) RunDetailed(ctx context.Context) Result {
	if r.Env == nil || !r.Env.Available() {
		return Result{Decision: remedy.Decision{Kind: remedy.ActionNone}}
	}

	ua := r.Env.UserAgent(ctx)
	url := r.Env.CurrentURL(ctx)
	res := Result{
		UserAgent: ua,
		URL:       url,
		Matches:   r.Table.DetectAll(ua),
	}
	res.Decision = remedy.Decide(res.Matches, url)

	switch res.Decision.Kind {
	case remedy.ActionGuidance:
		res.Handled = r.showGuidance(ctx, *res.Decision.Guidance, url)
	case remedy.ActionExternalRedirect:
		res.Step, res.Handled = r.Escape(ctx, url)
	}

	r.observe(res)
	return res
}

func (r *Runner) showGuidance(ctx context.Context, cfg remedy.GuidanceConfig, url string) bool {
	locale := dialog.PickLocale(r.Env.Languages(ctx))
	ui := env.UI{
		HTML:   dialog.Render(cfg, url, locale),
		Script: dialog.CopyScript(locale),
	}
	return r.Env.ShowDialog(ctx, ui) == nil
}

// Escape runs the external-browser fallback chain against the URL:
// open a new browsing context, then navigate the current one, then
// navigate to the sentinel-marked variant. First success wins; each step
// is attempted exactly once and any fault just moves the chain on.
func (r *Runner) Escape(ctx context.Context, url string) (string, bool) {
	steps := []remedy.Step{
		{Name: "open_new_context", Run: func() error {
			return r.Env.OpenWindow(ctx, url)
		}},
		{Name: "navigate_current", Run: func() error {
			return r.Env.Navigate(ctx, url)
		}},
		{Name: "navigate_sentinel", Run: func() error {
			marked, err := remedy.AppendSentinel(url)
			if err != nil {
				return err
			}
			if err := r.Env.Navigate(ctx, marked); err != nil {
				return err
			}
			if r.OnSentinel != nil {
				r.OnSentinel(marked)
			}
			return nil
		}},
	}
	return remedy.RunChain(steps)
}

func (r *Runner) observe(res Result) {
	if r.OnDecision != nil {
		r.OnDecision(res)
	}
}
