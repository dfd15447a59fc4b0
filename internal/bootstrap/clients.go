package bootstrap

import (
	"context"
	"log/slog"

	geminiclient "github.com/GregMSThompson/spendwise/internal/client/gemini"
	twilioclient "github.com/GregMSThompson/spendwise/internal/client/twilio"
	vertexclient "github.com/GregMSThompson/spendwise/internal/client/vertex"
	"github.com/GregMSThompson/spendwise/internal/config"
	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

type TextGenerator interface {
	GenerateContent(ctx context.Context, req dto.GenerateRequest) (dto.GenerateResponse, error)
	Close() error
}

type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// InitTextGenerator picks the AI backend named by AIPROVIDER. The returned
// generator is a nil interface whenever err is set.
func InitTextGenerator(ctx context.Context, log *slog.Logger, cfg *config.Config) (TextGenerator, error) {
	if cfg.AIProvider == config.AIProviderGemini {
		adapter, err := geminiclient.NewAdapter(ctx, log, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	}
	adapter, err := vertexclient.NewAdapter(ctx, log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
	if err != nil {
		return nil, err
	}
	return adapter, nil
}

// InitSMS returns the Twilio adapter, or a sender that refuses every message
// when credentials are missing.
func InitSMS(log *slog.Logger, cfg *config.Config) SMSSender {
	if !cfg.SMSConfigured() {
		log.Warn("twilio credentials missing, sms disabled")
		return disabledSMS{}
	}
	return twilioclient.NewAdapter(log, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
}

type disabledSMS struct{}

func (disabledSMS) Send(ctx context.Context, _, _ string) error {
	logger.FromContext(ctx).Debug("sms dropped, sender disabled")
	return errs.NewExternalServiceError("twilio", false, "sms is not configured", nil)
}
