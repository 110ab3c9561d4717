package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/webview_escape/internal/browserenv"
	"github.com/dgnsrekt/webview_escape/internal/escape"
	"github.com/dgnsrekt/webview_escape/internal/events"
	"github.com/dgnsrekt/webview_escape/internal/evidence"
	"github.com/dgnsrekt/webview_escape/internal/remedy"
	"github.com/dgnsrekt/webview_escape/internal/signature"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AppEntry describes one signature table row plus its remediation.
type AppEntry struct {
	ID          signature.AppID `json:"id"`
	Pattern     string          `json:"pattern"`
	Remediation string          `json:"remediation"`
	DisplayName string          `json:"display_name,omitempty"`
}

type Service interface {
	DetectApps(ctx context.Context, userAgent string) ([]signature.AppID, error)
	Decide(ctx context.Context, userAgent, url string) (remedy.Decision, error)
	ListApps(ctx context.Context) ([]AppEntry, error)
	RenderDialog(ctx context.Context, appID, locale string) (string, error)
	Escape(ctx context.Context, url string) (escape.Result, error)
	Run(ctx context.Context) (escape.Result, error)
	Page(ctx context.Context) (browserenv.PageInfo, error)

	CaptureEvidence(ctx context.Context) (evidence.Meta, error)
	ListEvidence(ctx context.Context) ([]evidence.Meta, error)
	GetEvidence(ctx context.Context, id string) (evidence.Meta, error)
	EvidenceImage(ctx context.Context, id string) ([]byte, string, error)
	DeleteEvidence(ctx context.Context, id string) error
}

// NewServer builds the control API. broker may be nil; the SSE event
// stream is only mounted when one is provided.
func NewServer(svc Service, broker *events.Broker) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("WebView Escape Controller API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	registerDetectHandlers(api, svc)
	registerEscapeHandlers(api, svc)
	registerEvidenceHandlers(api, svc)

	if broker != nil {
		router.Get("/api/v1/events", events.SSEHandler(broker))
	}

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *browserenv.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case browserenv.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case browserenv.CodeAppNotFound, browserenv.CodePageNotFound, browserenv.CodeEvidenceNotFound:
			return huma.Error404NotFound(coded.Message)
		case browserenv.CodeEvalTimeout:
			return huma.Error504GatewayTimeout(coded.Message)
		case browserenv.CodeCDPUnavailable:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
