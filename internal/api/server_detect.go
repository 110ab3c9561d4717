package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/webview_escape/internal/remedy"
	"github.com/dgnsrekt/webview_escape/internal/signature"
)

func registerDetectHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type detectInput struct {
		Body struct {
			UserAgent string `json:"user_agent" doc:"User-agent string to evaluate against the signature table"`
		}
	}
	type detectOutput struct {
		Body struct {
			Matches []signature.AppID `json:"matches" doc:"Matched application ids in table priority order"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "detect", Method: http.MethodPost, Path: "/api/v1/detect", Summary: "Detect in-app browsers from a user-agent", Tags: []string{"Detection"}},
		func(ctx context.Context, input *detectInput) (*detectOutput, error) {
			matches, err := svc.DetectApps(ctx, input.Body.UserAgent)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &detectOutput{}
			out.Body.Matches = matches
			return out, nil
		})

	type decideInput struct {
		Body struct {
			UserAgent string `json:"user_agent" doc:"User-agent string to evaluate"`
			URL       string `json:"url,omitempty" doc:"Current page URL the remediation applies to"`
		}
	}
	type decideOutput struct {
		Body remedy.Decision
	}
	huma.Register(api, huma.Operation{OperationID: "decide", Method: http.MethodPost, Path: "/api/v1/decide", Summary: "Decide the remediation for a user-agent", Tags: []string{"Detection"}},
		func(ctx context.Context, input *decideInput) (*decideOutput, error) {
			decision, err := svc.Decide(ctx, input.Body.UserAgent, input.Body.URL)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &decideOutput{}
			out.Body = decision
			return out, nil
		})

	type appsOutput struct {
		Body struct {
			Apps []AppEntry `json:"apps"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-apps", Method: http.MethodGet, Path: "/api/v1/apps", Summary: "List signature table entries", Tags: []string{"Detection"}},
		func(ctx context.Context, input *struct{}) (*appsOutput, error) {
			apps, err := svc.ListApps(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &appsOutput{}
			out.Body.Apps = apps
			return out, nil
		})
}
