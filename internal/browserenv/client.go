package browserenv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Client holds one flat CDP session against the page under remediation.
type Client struct {
	httpBase  string // e.g. "http://127.0.0.1:9220"
	urlFilter string

	mu        sync.Mutex
	conn      net.Conn
	seq       atomic.Int64
	sessionID string
	page      PageInfo

	pending   map[int64]chan json.RawMessage
	pendingMu sync.Mutex

	evalTimeout time.Duration
}

// NewClient creates a client for the CDP endpoint. urlFilter selects the
// page target to bind to (substring match, case-insensitive); empty
// matches the first page target.
func NewClient(cdpURL, urlFilter string, evalTimeout time.Duration) *Client {
	return &Client{
		httpBase:    strings.TrimRight(cdpURL, "/"),
		urlFilter:   strings.ToLower(strings.TrimSpace(urlFilter)),
		evalTimeout: evalTimeout,
		pending:     make(map[int64]chan json.RawMessage),
	}
}

// Connect dials the browser WebSocket endpoint and attaches to the page
// target matching the URL filter.
func (c *Client) Connect(ctx context.Context) error {
	if c.httpBase == "" {
		return newError(CodeCDPUnavailable, "missing CDP URL", nil)
	}

	wsURL, err := c.browserWSURL(ctx)
	if err != nil {
		return newError(CodeCDPUnavailable, "browser ws url", err)
	}

	slog.Debug("browserenv connecting", "ws_url", wsURL)
	conn, _, _, err := ws.Dial(ctx, wsURL)
	if err != nil {
		return newError(CodeCDPUnavailable, "dial CDP", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	go c.readLoop()

	if err := c.BindPage(ctx); err != nil {
		c.Close()
		return err
	}
	slog.Info("browserenv connected", "cdp_url", c.httpBase, "page_url", c.page.URL)
	return nil
}

// BindPage (re)selects the page target matching the URL filter and
// attaches a flat session to it.
func (c *Client) BindPage(ctx context.Context) error {
	targets, err := c.listTargets(ctx)
	if err != nil {
		return newError(CodeCDPUnavailable, "list targets", err)
	}

	var picked *target.Info
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if c.urlFilter != "" && !strings.Contains(strings.ToLower(t.URL), c.urlFilter) {
			continue
		}
		picked = t
		break
	}
	if picked == nil {
		return newError(CodePageNotFound, fmt.Sprintf("no page target matching %q", c.urlFilter), nil)
	}

	sessionID, err := c.attachToTarget(ctx, string(picked.TargetID))
	if err != nil {
		return newError(CodeCDPUnavailable, "attach to page", err)
	}

	c.mu.Lock()
	c.sessionID = sessionID
	c.page = PageInfo{TargetID: string(picked.TargetID), URL: picked.URL, Title: picked.Title}
	c.mu.Unlock()
	return nil
}

// Page returns the bound page info as of the last BindPage.
func (c *Client) Page() PageInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Close tears down the WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			slog.Debug("browserenv read loop exit", "error", err)
			c.closeAllPending()
			return
		}
		logFrame("recv", data)

		var msg struct {
			ID int64 `json:"id"`
		}
		if json.Unmarshal(data, &msg) != nil || msg.ID == 0 {
			continue
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[msg.ID]
		if ok {
			delete(c.pending, msg.ID)
		}
		c.pendingMu.Unlock()
		if ok {
			ch <- json.RawMessage(data)
		}
	}
}

func (c *Client) closeAllPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) deletePending(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// send issues a CDP command, optionally on the page session, and waits
// for the matching response envelope.
func (c *Client) send(ctx context.Context, sessionID, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("browserenv: not connected")
	}

	id := c.seq.Add(1)
	req := struct {
		ID        int64  `json:"id"`
		Method    string `json:"method"`
		SessionID string `json:"sessionId,omitempty"`
		Params    any    `json:"params,omitempty"`
	}{ID: id, Method: method, SessionID: sessionID, Params: params}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("browserenv: marshal: %w", err)
	}

	ch := make(chan json.RawMessage, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	logFrame("send", data)
	c.mu.Lock()
	err = wsutil.WriteClientText(conn, data)
	c.mu.Unlock()
	if err != nil {
		c.deletePending(id)
		return nil, fmt.Errorf("browserenv: send: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("browserenv: connection closed")
		}
		var envelope struct {
			Result json.RawMessage `json:"result"`
			Error  *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(resp, &envelope); err != nil {
			return resp, nil
		}
		if envelope.Error != nil {
			return nil, fmt.Errorf("browserenv: %s: %s", method, envelope.Error.Message)
		}
		return envelope.Result, nil
	case <-ctx.Done():
		c.deletePending(id)
		return nil, ctx.Err()
	}
}

func (c *Client) attachToTarget(ctx context.Context, targetID string) (string, error) {
	params := struct {
		TargetID string `json:"targetId"`
		Flatten  bool   `json:"flatten"`
	}{TargetID: targetID, Flatten: true}

	raw, err := c.send(ctx, "", "Target.attachToTarget", params)
	if err != nil {
		return "", err
	}
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("browserenv: unmarshal attach: %w", err)
	}
	return resp.SessionID, nil
}

// createTarget opens a new top-level browsing context on the URL.
func (c *Client) createTarget(ctx context.Context, url string) error {
	params := struct {
		URL string `json:"url"`
	}{URL: url}
	_, err := c.send(ctx, "", "Target.createTarget", params)
	return err
}

// evaluate runs a JS expression on the page session and returns the
// string result.
func (c *Client) evaluate(ctx context.Context, js string) (string, error) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID == "" {
		return "", newError(CodePageNotFound, "no page bound", nil)
	}

	evalCtx, cancel := context.WithTimeout(ctx, c.evalTimeout)
	defer cancel()

	params := struct {
		Expression    string `json:"expression"`
		ReturnByValue bool   `json:"returnByValue"`
		AwaitPromise  bool   `json:"awaitPromise"`
	}{Expression: js, ReturnByValue: true, AwaitPromise: true}

	raw, err := c.send(evalCtx, sessionID, "Runtime.evaluate", params)
	if err != nil {
		if evalCtx.Err() == context.DeadlineExceeded {
			return "", newError(CodeEvalTimeout, "evaluate timed out", err)
		}
		return "", newError(CodeEvalFailure, "evaluate", err)
	}

	var resp struct {
		Result struct {
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", newError(CodeEvalFailure, "unmarshal eval", err)
	}
	if resp.ExceptionDetails != nil {
		return "", newError(CodeEvalFailure, "eval exception: "+resp.ExceptionDetails.Text, nil)
	}

	// String results come back as JSON-encoded strings.
	var s string
	if err := json.Unmarshal(resp.Result.Value, &s); err != nil {
		return string(resp.Result.Value), nil
	}
	return s, nil
}

// browserWSURL fetches the browser-level WebSocket debugger URL.
func (c *Client) browserWSURL(ctx context.Context) (string, error) {
	verCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(verCtx, http.MethodGet, c.httpBase+"/json/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("browserenv: /json/version: HTTP %d", resp.StatusCode)
	}

	var version struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", err
	}
	if version.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("browserenv: empty webSocketDebuggerUrl")
	}
	return version.WebSocketDebuggerURL, nil
}

// listTargets fetches open targets via the HTTP /json/list endpoint.
func (c *Client) listTargets(ctx context.Context) ([]*target.Info, error) {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(listCtx, http.MethodGet, c.httpBase+"/json/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("browserenv: /json/list: HTTP %d", resp.StatusCode)
	}

	var raw []struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	out := make([]*target.Info, 0, len(raw))
	for _, t := range raw {
		out = append(out, &target.Info{
			TargetID: target.ID(t.ID),
			Type:     t.Type,
			URL:      t.URL,
			Title:    t.Title,
		})
	}
	return out, nil
}
