package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgnsrekt/webview_escape/internal/browserenv"
	"github.com/dgnsrekt/webview_escape/internal/escape"
	"github.com/dgnsrekt/webview_escape/internal/events"
	"github.com/dgnsrekt/webview_escape/internal/evidence"
	"github.com/dgnsrekt/webview_escape/internal/remedy"
	"github.com/dgnsrekt/webview_escape/internal/signature"
)

type stubService struct {
	detectErr error
	pageErr   error
	dialogErr error
}

func (s *stubService) DetectApps(ctx context.Context, userAgent string) ([]signature.AppID, error) {
	if s.detectErr != nil {
		return nil, s.detectErr
	}
	if strings.Contains(strings.ToLower(userAgent), "kakaotalk") {
		return []signature.AppID{signature.AppKakaoTalk}, nil
	}
	return []signature.AppID{}, nil
}

func (s *stubService) Decide(ctx context.Context, userAgent, url string) (remedy.Decision, error) {
	matches, err := s.DetectApps(ctx, userAgent)
	if err != nil {
		return remedy.Decision{}, err
	}
	return remedy.Decide(matches, url), nil
}

func (s *stubService) ListApps(ctx context.Context) ([]AppEntry, error) {
	return []AppEntry{{ID: signature.AppKakaoTalk, Pattern: "kakaotalk", Remediation: "guidance"}}, nil
}

func (s *stubService) RenderDialog(ctx context.Context, appID, locale string) (string, error) {
	if s.dialogErr != nil {
		return "", s.dialogErr
	}
	return "<div id=\"wve-guidance-overlay\"></div>", nil
}

func (s *stubService) Escape(ctx context.Context, url string) (escape.Result, error) {
	return escape.Result{URL: url, Step: "open_new_context", Handled: true}, nil
}

func (s *stubService) Run(ctx context.Context) (escape.Result, error) {
	return escape.Result{Handled: false}, nil
}

func (s *stubService) Page(ctx context.Context) (browserenv.PageInfo, error) {
	if s.pageErr != nil {
		return browserenv.PageInfo{}, s.pageErr
	}
	return browserenv.PageInfo{TargetID: "T1", URL: "https://example.com/app"}, nil
}

func (s *stubService) CaptureEvidence(ctx context.Context) (evidence.Meta, error) {
	return evidence.Meta{ID: "11111111-2222-3333-4444-555555555555", Format: "png"}, nil
}

func (s *stubService) ListEvidence(ctx context.Context) ([]evidence.Meta, error) {
	return []evidence.Meta{}, nil
}

func (s *stubService) GetEvidence(ctx context.Context, id string) (evidence.Meta, error) {
	return evidence.Meta{}, &browserenv.CodedError{Code: browserenv.CodeEvidenceNotFound, Message: "evidence not found: " + id}
}

func (s *stubService) EvidenceImage(ctx context.Context, id string) ([]byte, string, error) {
	return []byte("png!"), "png", nil
}

func (s *stubService) DeleteEvidence(ctx context.Context, id string) error { return nil }

func serve(t *testing.T, svc Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewServer(svc, nil)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDocsDarkMode(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/docs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Fatalf("docs missing dark theme marker")
	}
}

func TestHealthEndpoint(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("body = %s; want status ok", w.Body.String())
	}
}

func TestDetectEndpoint(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodPost, "/api/v1/detect",
		`{"user_agent":"Mozilla/5.0 KAKAOTALK"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var out struct {
		Matches []string `json:"matches"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(out.Matches) != 1 || out.Matches[0] != "KAKAOTALK" {
		t.Fatalf("matches = %v; want [KAKAOTALK]", out.Matches)
	}
}

func TestDecideEndpoint(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodPost, "/api/v1/decide",
		`{"user_agent":"Mozilla/5.0 KAKAOTALK","url":"https://example.com/app"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var out remedy.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if out.Kind != remedy.ActionGuidance {
		t.Fatalf("kind = %s; want %s", out.Kind, remedy.ActionGuidance)
	}
}

func TestListAppsEndpoint(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/api/v1/apps", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "KAKAOTALK") {
		t.Fatalf("body = %s; want table entry", w.Body.String())
	}
}

func TestDialogEndpointContentType(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/api/v1/dialog/KAKAOTALK?locale=ko", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q; want text/html", ct)
	}
	if !strings.Contains(w.Body.String(), "wve-guidance-overlay") {
		t.Fatalf("body = %s; want dialog markup", w.Body.String())
	}
}

func TestEvidenceImageContentType(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/api/v1/evidence/11111111-2222-3333-4444-555555555555/image", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q; want image/png", ct)
	}
}

func TestEvidenceNotFoundMapsTo404(t *testing.T) {
	w := serve(t, &stubService{}, http.MethodGet, "/api/v1/evidence/11111111-2222-3333-4444-555555555555", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusNotFound, w.Body.String())
	}
}

func TestEventsRouteOnlyWithBroker(t *testing.T) {
	without := NewServer(&stubService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	w := httptest.NewRecorder()
	without.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Fatal("events route mounted without a broker")
	}

	srv := httptest.NewServer(NewServer(&stubService{}, events.NewBroker()))
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/api/v1/events?feeds=none")
	if err != nil {
		t.Fatalf("connect events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q; want text/event-stream", ct)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		svc  *stubService
		path string
		want int
	}{
		{
			name: "validation maps to 400",
			svc:  &stubService{detectErr: &browserenv.CodedError{Code: browserenv.CodeValidation, Message: "user agent required"}},
			path: "/api/v1/detect",
			want: http.StatusBadRequest,
		},
		{
			name: "app not found maps to 404",
			svc:  &stubService{dialogErr: &browserenv.CodedError{Code: browserenv.CodeAppNotFound, Message: "unknown app"}},
			path: "/api/v1/dialog/NOPE",
			want: http.StatusNotFound,
		},
		{
			name: "page not found maps to 404",
			svc:  &stubService{pageErr: &browserenv.CodedError{Code: browserenv.CodePageNotFound, Message: "no page bound"}},
			path: "/api/v1/page",
			want: http.StatusNotFound,
		},
		{
			name: "cdp unavailable maps to 502",
			svc:  &stubService{pageErr: &browserenv.CodedError{Code: browserenv.CodeCDPUnavailable, Message: "browser down"}},
			path: "/api/v1/page",
			want: http.StatusBadGateway,
		},
		{
			name: "eval timeout maps to 504",
			svc:  &stubService{pageErr: &browserenv.CodedError{Code: browserenv.CodeEvalTimeout, Message: "evaluate timed out"}},
			path: "/api/v1/page",
			want: http.StatusGatewayTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			body := ""
			if tt.path == "/api/v1/detect" {
				method = http.MethodPost
				body = `{"user_agent":"x"}`
			}
			w := serve(t, tt.svc, method, tt.path, body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
