// Package controller wires the detection core, the live browser
// environment and the observers (journal, event stream, evidence store,
// failure notifier) behind the control API.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgnsrekt/webview_escape/internal/api"
	"github.com/dgnsrekt/webview_escape/internal/browserenv"
	"github.com/dgnsrekt/webview_escape/internal/dialog"
	"github.com/dgnsrekt/webview_escape/internal/env"
	"github.com/dgnsrekt/webview_escape/internal/escape"
	"github.com/dgnsrekt/webview_escape/internal/events"
	"github.com/dgnsrekt/webview_escape/internal/evidence"
	"github.com/dgnsrekt/webview_escape/internal/journal"
	"github.com/dgnsrekt/webview_escape/internal/notify"
	"github.com/dgnsrekt/webview_escape/internal/remedy"
	"github.com/dgnsrekt/webview_escape/internal/signature"
	"github.com/google/uuid"
)

// Service implements api.Service over one live page session.
type Service struct {
	table  *signature.Table
	cdp    *browserenv.Client
	runner *escape.Runner

	journal        *journal.Writer
	evidence       *evidence.Store
	broker         *events.Broker
	notifyEndpoint string
	httpClient     *http.Client
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithJournal attaches a decision journal.
func WithJournal(w *journal.Writer) Option {
	return func(s *Service) { s.journal = w }
}

// WithNotifyEndpoint enables escape-failure notifications.
func WithNotifyEndpoint(endpoint string) Option {
	return func(s *Service) { s.notifyEndpoint = endpoint }
}

// WithEvidence attaches a screenshot evidence store.
func WithEvidence(store *evidence.Store) Option {
	return func(s *Service) { s.evidence = store }
}

// WithEvents attaches an SSE broker fed with remediation activity.
func WithEvents(b *events.Broker) Option {
	return func(s *Service) { s.broker = b }
}

// NewService builds a service over the given signature table and browser
// client.
func NewService(table *signature.Table, cdp *browserenv.Client, opts ...Option) *Service {
	s := &Service{table: table, cdp: cdp, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	var e env.Environment = env.Null{}
	if cdp != nil {
		e = cdp
	}
	s.runner = &escape.Runner{Env: e, Table: table, OnDecision: s.observe, OnSentinel: s.publishSentinel}
	return s
}

// publishSentinel announces a sentinel navigation on the navigation
// feed. The page is about to reload carrying the marker, so subscribers
// see the escaping state before the watcher reports the cleanup.
func (s *Service) publishSentinel(markedURL string) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"state": string(remedy.StateEscaping),
		"url":   markedURL,
	})
	if err != nil {
		slog.Debug("event payload marshal failed", "error", err)
		return
	}
	s.broker.Publish(events.Event{Feed: events.FeedNavigation, Payload: string(payload)})
}

func (s *Service) observe(res escape.Result) {
	if s.journal != nil {
		s.journal.Record(res)
	}
	s.publish(res)
	if s.notifyEndpoint != "" && res.Decision.Kind == remedy.ActionExternalRedirect && !res.Handled {
		go func() {
			if err := notify.SendEscapeFailed(context.Background(), s.httpClient, s.notifyEndpoint, string(res.Decision.App), res.URL); err != nil {
				slog.Debug("escape-failure notification failed", "error", err)
			}
		}()
	}
}

func (s *Service) publish(res escape.Result) {
	if s.broker == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		slog.Debug("event payload marshal failed", "error", err)
		return
	}
	feed := events.FeedDecision
	if res.Decision.Kind == remedy.ActionExternalRedirect {
		feed = events.FeedEscape
	}
	s.broker.Publish(events.Event{Feed: feed, Payload: string(payload)})
}

// DetectApps evaluates the signature table against a user-agent string.
func (s *Service) DetectApps(ctx context.Context, userAgent string) ([]signature.AppID, error) {
	return s.table.DetectAll(userAgent), nil
}

// Decide maps a user-agent and URL to a remediation decision without
// touching the live page.
func (s *Service) Decide(ctx context.Context, userAgent, url string) (remedy.Decision, error) {
	return remedy.Decide(s.table.DetectAll(userAgent), url), nil
}

// ListApps reports the signature table plus remediation kind per entry.
func (s *Service) ListApps(ctx context.Context) ([]api.AppEntry, error) {
	rules := s.table.Rules()
	out := make([]api.AppEntry, 0, len(rules))
	for _, r := range rules {
		entry := api.AppEntry{ID: r.ID, Pattern: r.Pattern}
		if r.ID == signature.AppLine {
			entry.Remediation = string(remedy.ActionExternalRedirect)
		} else {
			entry.Remediation = string(remedy.ActionGuidance)
		}
		cfg := remedy.GuidanceFor(r.ID)
		if cfg.ID == r.ID {
			entry.DisplayName = cfg.DisplayName
		}
		out = append(out, entry)
	}
	return out, nil
}

// RenderDialog renders the guidance markup for one app id. The special
// id "GENERIC" renders the fallback dialog.
func (s *Service) RenderDialog(ctx context.Context, appID, locale string) (string, error) {
	id := signature.AppID(strings.ToUpper(strings.TrimSpace(appID)))

	var cfg remedy.GuidanceConfig
	switch {
	case id == "GENERIC":
		cfg = remedy.GenericGuidance
	case s.knownApp(id):
		cfg = remedy.GuidanceFor(id)
	default:
		return "", &browserenv.CodedError{Code: browserenv.CodeAppNotFound, Message: "unknown app id: " + appID}
	}

	loc := dialog.LocaleEnglish
	if strings.EqualFold(strings.TrimSpace(locale), string(dialog.LocaleKorean)) {
		loc = dialog.LocaleKorean
	}

	pageURL := ""
	if s.cdp != nil && s.cdp.Available() {
		pageURL = s.cdp.CurrentURL(ctx)
	}
	return dialog.Render(cfg, pageURL, loc), nil
}

func (s *Service) knownApp(id signature.AppID) bool {
	for _, r := range s.table.Rules() {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Escape runs the external-browser fallback chain against the URL,
// defaulting to the live page URL.
func (s *Service) Escape(ctx context.Context, url string) (escape.Result, error) {
	target := strings.TrimSpace(url)
	bound := s.cdp != nil && s.cdp.Available()
	if target == "" && bound {
		target = s.cdp.CurrentURL(ctx)
	}
	if target == "" {
		return escape.Result{}, &browserenv.CodedError{Code: browserenv.CodeValidation, Message: "url is required when no page is bound"}
	}

	res := escape.Result{
		URL:      target,
		Decision: remedy.Decision{Kind: remedy.ActionExternalRedirect, URL: target},
	}
	if bound {
		res.UserAgent = s.cdp.UserAgent(ctx)
	}
	res.Step, res.Handled = s.runner.Escape(ctx, target)
	s.observe(res)
	return res, nil
}

// Run performs the full remediation pass against the live page.
func (s *Service) Run(ctx context.Context) (escape.Result, error) {
	return s.runner.RunDetailed(ctx), nil
}

// Page describes the page the environment is bound to.
func (s *Service) Page(ctx context.Context) (browserenv.PageInfo, error) {
	if s.cdp == nil || !s.cdp.Available() {
		return browserenv.PageInfo{}, &browserenv.CodedError{Code: browserenv.CodePageNotFound, Message: "no page bound"}
	}
	return s.cdp.Page(), nil
}

// CaptureEvidence screenshots the live page and stores it with the
// detection state it was captured under.
func (s *Service) CaptureEvidence(ctx context.Context) (evidence.Meta, error) {
	if s.evidence == nil {
		return evidence.Meta{}, &browserenv.CodedError{Code: browserenv.CodeValidation, Message: "evidence store not configured"}
	}
	if s.cdp == nil || !s.cdp.Available() {
		return evidence.Meta{}, &browserenv.CodedError{Code: browserenv.CodePageNotFound, Message: "no page bound"}
	}

	img, format, err := s.cdp.CaptureScreenshot(ctx)
	if err != nil {
		return evidence.Meta{}, err
	}

	ua := s.cdp.UserAgent(ctx)
	url := s.cdp.CurrentURL(ctx)
	decision := remedy.Decide(s.table.DetectAll(ua), url)

	meta := evidence.Meta{
		ID:        uuid.NewString(),
		Format:    format,
		SizeBytes: len(img),
		CreatedAt: time.Now().UTC(),
		URL:       url,
		UserAgent: ua,
		App:       string(decision.App),
		Action:    string(decision.Kind),
	}
	if err := s.evidence.Save(meta, img); err != nil {
		return evidence.Meta{}, err
	}
	return meta, nil
}

// ListEvidence returns stored captures, newest first.
func (s *Service) ListEvidence(ctx context.Context) ([]evidence.Meta, error) {
	if s.evidence == nil {
		return []evidence.Meta{}, nil
	}
	metas, err := s.evidence.List()
	if err != nil {
		return nil, err
	}
	return metas, nil
}

// GetEvidence returns one capture's metadata.
func (s *Service) GetEvidence(ctx context.Context, id string) (evidence.Meta, error) {
	if s.evidence == nil {
		return evidence.Meta{}, mapEvidenceErr(evidence.ErrNotFound)
	}
	meta, err := s.evidence.Get(id)
	if err != nil {
		return evidence.Meta{}, mapEvidenceErr(err)
	}
	return meta, nil
}

// EvidenceImage returns the raw capture bytes and image format.
func (s *Service) EvidenceImage(ctx context.Context, id string) ([]byte, string, error) {
	if s.evidence == nil {
		return nil, "", mapEvidenceErr(evidence.ErrNotFound)
	}
	data, format, err := s.evidence.ReadImage(id)
	if err != nil {
		return nil, "", mapEvidenceErr(err)
	}
	return data, format, nil
}

// DeleteEvidence removes one capture.
func (s *Service) DeleteEvidence(ctx context.Context, id string) error {
	if s.evidence == nil {
		return mapEvidenceErr(evidence.ErrNotFound)
	}
	return mapEvidenceErr(s.evidence.Delete(id))
}

func mapEvidenceErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, evidence.ErrInvalidID):
		return &browserenv.CodedError{Code: browserenv.CodeValidation, Message: err.Error()}
	case errors.Is(err, evidence.ErrNotFound):
		return &browserenv.CodedError{Code: browserenv.CodeEvidenceNotFound, Message: err.Error()}
	default:
		return err
	}
}
