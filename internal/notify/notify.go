// Package notify pushes operator alerts when an escape chain exhausts
// every step. Delivery is plain-text HTTP POST (ntfy-compatible).
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SendEscapeFailed reports an exhausted escape chain for the given app
// and URL to the endpoint.
func SendEscapeFailed(ctx context.Context, client *http.Client, endpoint, app, url string) error {
	msg := fmt.Sprintf("webview escape failed: app=%s url=%s (all chain steps exhausted)", app, url)
	return Send(ctx, client, endpoint, msg)
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
