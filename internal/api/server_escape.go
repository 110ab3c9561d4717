package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/webview_escape/internal/browserenv"
	"github.com/dgnsrekt/webview_escape/internal/escape"
)

func registerEscapeHandlers(api huma.API, svc Service) {
	type pageOutput struct {
		Body browserenv.PageInfo
	}
	huma.Register(api, huma.Operation{OperationID: "get-page", Method: http.MethodGet, Path: "/api/v1/page", Summary: "Describe the bound browser page", Tags: []string{"Escape"}},
		func(ctx context.Context, input *struct{}) (*pageOutput, error) {
			page, err := svc.Page(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &pageOutput{}
			out.Body = page
			return out, nil
		})

	type runOutput struct {
		Body escape.Result
	}
	huma.Register(api, huma.Operation{OperationID: "run", Method: http.MethodPost, Path: "/api/v1/run", Summary: "Run the full remediation pass on the live page", Tags: []string{"Escape"}},
		func(ctx context.Context, input *struct{}) (*runOutput, error) {
			res, err := svc.Run(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &runOutput{}
			out.Body = res
			return out, nil
		})

	type escapeInput struct {
		Body struct {
			URL string `json:"url,omitempty" doc:"URL to escape to; defaults to the live page URL"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "escape", Method: http.MethodPost, Path: "/api/v1/escape", Summary: "Run the external-browser fallback chain", Tags: []string{"Escape"}},
		func(ctx context.Context, input *escapeInput) (*runOutput, error) {
			res, err := svc.Escape(ctx, input.Body.URL)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &runOutput{}
			out.Body = res
			return out, nil
		})

	type dialogInput struct {
		AppID  string `path:"app_id"`
		Locale string `query:"locale" default:"" doc:"Dialog locale (ko or en); defaults to en"`
	}
	type dialogOutput struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}
	huma.Register(api, huma.Operation{OperationID: "render-dialog", Method: http.MethodGet, Path: "/api/v1/dialog/{app_id}", Summary: "Render the guidance dialog markup for an app", Tags: []string{"Escape"}},
		func(ctx context.Context, input *dialogInput) (*dialogOutput, error) {
			html, err := svc.RenderDialog(ctx, input.AppID, input.Locale)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &dialogOutput{ContentType: "text/html; charset=utf-8", Body: []byte(html)}
			return out, nil
		})
}
