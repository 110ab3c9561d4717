package browserenv

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dgnsrekt/webview_escape/internal/env"
)

// envSnapshot mirrors the data payload of jsReadEnvironment.
type envSnapshot struct {
	UserAgent string   `json:"user_agent"`
	URL       string   `json:"url"`
	Languages []string `json:"languages"`
}

// Available reports whether a page session is bound. The Client satisfies
// env.Environment so the escape runner can treat a live page and a null
// surface uniformly.
func (c *Client) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.sessionID != ""
}

func (c *Client) snapshot(ctx context.Context) envSnapshot {
	var snap envSnapshot
	if err := c.evalInto(ctx, jsReadEnvironment(), &snap); err != nil {
		slog.Debug("browserenv snapshot failed", "error", err)
	}
	return snap
}

// UserAgent returns the page's navigator.userAgent, or "" on any failure.
func (c *Client) UserAgent(ctx context.Context) string {
	return c.snapshot(ctx).UserAgent
}

// CurrentURL returns the page's location.href, or "" on any failure.
func (c *Client) CurrentURL(ctx context.Context) string {
	return c.snapshot(ctx).URL
}

// Languages returns navigator.languages in preference order.
func (c *Client) Languages(ctx context.Context) []string {
	return c.snapshot(ctx).Languages
}

// OpenWindow opens the URL in a new top-level browsing context.
func (c *Client) OpenWindow(ctx context.Context, url string) error {
	if err := c.createTarget(ctx, url); err != nil {
		return newError(CodeEvalFailure, "open window", err)
	}
	return nil
}

// Navigate assigns location.href on the bound page.
func (c *Client) Navigate(ctx context.Context, url string) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.evalInto(ctx, jsNavigate(url), &out)
}

// ShowDialog injects the modal payload into the bound page and runs its
// wiring script.
func (c *Client) ShowDialog(ctx context.Context, ui env.UI) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.evalInto(ctx, jsShowDialog(ui.HTML, ui.Script), &out)
}

// evalInto runs a wrapped snippet and decodes its envelope data payload.
func (c *Client) evalInto(ctx context.Context, js string, out any) error {
	raw, err := c.evaluate(ctx, js)
	if err != nil {
		return err
	}
	var envelope evalEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return newError(CodeEvalFailure, "decode eval envelope", err)
	}
	if !envelope.OK {
		code := envelope.ErrorCode
		if code == "" {
			code = CodeEvalFailure
		}
		return newError(code, envelope.ErrorMessage, nil)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return newError(CodeEvalFailure, "decode eval data", err)
		}
	}
	return nil
}
