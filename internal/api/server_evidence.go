package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/webview_escape/internal/evidence"
)

func registerEvidenceHandlers(api huma.API, svc Service) {
	type metaOutput struct {
		Body evidence.Meta
	}
	huma.Register(api, huma.Operation{OperationID: "capture-evidence", Method: http.MethodPost, Path: "/api/v1/evidence", Summary: "Screenshot the live page into the evidence store", Tags: []string{"Evidence"}},
		func(ctx context.Context, input *struct{}) (*metaOutput, error) {
			meta, err := svc.CaptureEvidence(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &metaOutput{}
			out.Body = meta
			return out, nil
		})

	type listOutput struct {
		Body struct {
			Evidence []evidence.Meta `json:"evidence"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-evidence", Method: http.MethodGet, Path: "/api/v1/evidence", Summary: "List stored captures, newest first", Tags: []string{"Evidence"}},
		func(ctx context.Context, input *struct{}) (*listOutput, error) {
			metas, err := svc.ListEvidence(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listOutput{}
			out.Body.Evidence = metas
			return out, nil
		})

	type idInput struct {
		ID string `path:"id" doc:"Evidence capture id"`
	}
	huma.Register(api, huma.Operation{OperationID: "get-evidence", Method: http.MethodGet, Path: "/api/v1/evidence/{id}", Summary: "Get one capture's metadata", Tags: []string{"Evidence"}},
		func(ctx context.Context, input *idInput) (*metaOutput, error) {
			meta, err := svc.GetEvidence(ctx, input.ID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &metaOutput{}
			out.Body = meta
			return out, nil
		})

	type imageOutput struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}
	huma.Register(api, huma.Operation{OperationID: "get-evidence-image", Method: http.MethodGet, Path: "/api/v1/evidence/{id}/image", Summary: "Get the raw capture image", Tags: []string{"Evidence"}},
		func(ctx context.Context, input *idInput) (*imageOutput, error) {
			data, format, err := svc.EvidenceImage(ctx, input.ID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &imageOutput{ContentType: "image/" + format, Body: data}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-evidence", Method: http.MethodDelete, Path: "/api/v1/evidence/{id}", Summary: "Delete one capture", Tags: []string{"Evidence"}},
		func(ctx context.Context, input *idInput) (*struct{}, error) {
			if err := svc.DeleteEvidence(ctx, input.ID); err != nil {
				return nil, mapErr(err)
			}
			return &struct{}{}, nil
		})
}
