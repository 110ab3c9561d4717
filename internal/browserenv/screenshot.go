package browserenv

import (
	"context"
	"encoding/base64"
	"encoding/json"
)

// CaptureScreenshot grabs the bound page as an image. Returns the raw
// image bytes and the format ("png").
func (c *Client) CaptureScreenshot(ctx context.Context) ([]byte, string, error) {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID == "" {
		return nil, "", newError(CodePageNotFound, "no page bound", nil)
	}

	params := struct {
		Format      string `json:"format"`
		FromSurface bool   `json:"fromSurface"`
	}{Format: "png", FromSurface: true}

	raw, err := c.send(ctx, sessionID, "Page.captureScreenshot", params)
	if err != nil {
		return nil, "", newError(CodeCDPUnavailable, "capture screenshot", err)
	}

	var resp struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, "", newError(CodeEvalFailure, "unmarshal screenshot", err)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		return nil, "", newError(CodeEvalFailure, "decode screenshot", err)
	}
	return data, "png", nil
}
