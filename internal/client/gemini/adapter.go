// Package geminiclient talks to the Gemini API with an API key. It is the
// alternative to the Vertex adapter for deployments outside Google Cloud.
package geminiclient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
)

type Adapter struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewAdapter(ctx context.Context, log *slog.Logger, apiKey, model string) (*Adapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{client: client, model: model, log: log}, nil
}

// Close exists so bootstrap can treat both adapters alike.
func (a *Adapter) Close() error { return nil }

func (a *Adapter) GenerateContent(ctx context.Context, req dto.GenerateRequest) (dto.GenerateResponse, error) {
	out := dto.GenerateResponse{}

	modelName := req.Model
	if modelName == "" {
		modelName = a.model
	}
	if modelName == "" {
		return out, fmt.Errorf("gemini model is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return out, fmt.Errorf("gemini generate request has no prompt")
	}

	resp, err := a.client.Models.GenerateContent(ctx, modelName, genai.Text(req.Prompt), generateConfig(req))
	if err != nil {
		return out, errs.NewExternalServiceError("gemini", true, "generate content failed", err)
	}

	out.Raw = resp
	out.Text = resp.Text()
	return out, nil
}

func generateConfig(req dto.GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxOutputTokens != nil {
		cfg.MaxOutputTokens = *req.MaxOutputTokens
	}
	return cfg
}
