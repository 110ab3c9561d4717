//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestPageDescribesBoundTarget(t *testing.T) {
	requirePage(t)

	resp := env.GET(t, "/api/v1/page")
	requireStatus(t, resp, http.StatusOK)

	var out struct {
		TargetID string `json:"target_id"`
		URL      string `json:"url"`
	}
	decodeJSON(t, resp, &out)
	if out.TargetID == "" || out.URL == "" {
		t.Fatalf("page = %+v; want target id and URL", out)
	}
}

func TestRunPassAgainstLivePage(t *testing.T) {
	requirePage(t)

	resp := env.POST(t, "/api/v1/run", nil)
	requireStatus(t, resp, http.StatusOK)

	var out struct {
		UserAgent string `json:"user_agent"`
		Decision  struct {
			Kind string `json:"kind"`
		} `json:"decision"`
	}
	decodeJSON(t, resp, &out)
	if out.UserAgent == "" {
		t.Fatal("run result missing user agent from the live page")
	}
	if out.Decision.Kind == "" {
		t.Fatal("run result missing a decision")
	}
}

func TestCaptureEvidenceRoundTrip(t *testing.T) {
	requirePage(t)

	resp := env.POST(t, "/api/v1/evidence", nil)
	requireStatus(t, resp, http.StatusOK)

	var meta struct {
		ID     string `json:"id"`
		Format string `json:"format"`
	}
	decodeJSON(t, resp, &meta)
	if meta.ID == "" || meta.Format != "png" {
		t.Fatalf("capture = %+v; want a png capture id", meta)
	}

	img := env.GET(t, "/api/v1/evidence/"+meta.ID+"/image")
	requireStatus(t, img, http.StatusOK)
	img.Body.Close()
}
