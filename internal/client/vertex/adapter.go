package vertexclient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
)

type Adapter struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewAdapter(ctx context.Context, log *slog.Logger, projectID, region, model string) (*Adapter, error) {
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		client: client,
		model:  model,
		log:    log,
	}, nil
}

func (a *Adapter) Close() error {
	err := a.client.Close()
	if err != nil && a.log != nil {
		a.log.Error("vertex adapter close failed", "error", err)
	}
	return err
}

func (a *Adapter) GenerateContent(ctx context.Context, req dto.GenerateRequest) (dto.GenerateResponse, error) {
	out := dto.GenerateResponse{}

	modelName := req.Model
	if modelName == "" {
		modelName = a.model
	}
	if modelName == "" {
		return out, fmt.Errorf("vertex model is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return out, fmt.Errorf("vertex generate request has no prompt")
	}

	model := a.client.GenerativeModel(modelName)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxOutputTokens != nil {
		model.SetMaxOutputTokens(*req.MaxOutputTokens)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return out, errs.NewExternalServiceError("vertex", true, "generate content failed", err)
	}

	out.Raw = resp
	out.Text = parseContentResponse(resp)
	return out, nil
}

func parseContentResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if p, ok := part.(genai.Text); ok {
				b.WriteString(string(p))
			}
		}
		// One candidate is requested; later ones would repeat the answer.
		break
	}
	return b.String()
}
