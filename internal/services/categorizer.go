package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/taxonomy"
	"github.com/GregMSThompson/spendwise/pkg/helpers"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

type textGenerator interface {
	GenerateContent(ctx context.Context, req dto.GenerateRequest) (dto.GenerateResponse, error)
}

type categorizerService struct {
	ai textGenerator
}

func NewCategorizerService(ai textGenerator) *categorizerService {
	return &categorizerService{ai: ai}
}

// Categorize always returns a member of taxonomy.Categories. Model failures and
// answers outside the set degrade to Other and are never returned as errors.
func (s *categorizerService) Categorize(ctx context.Context, merchant, description string) taxonomy.Category {
	log := logger.FromContext(ctx)
	if s.ai == nil {
		return taxonomy.CategoryOther
	}

	resp, err := s.ai.GenerateContent(ctx, dto.GenerateRequest{
		System:          "You categorize payment transactions. Respond with only the category name.",
		Prompt:          categorizationPrompt(merchant, description),
		Temperature:     helpers.Ptr[float32](0),
		MaxOutputTokens: helpers.Ptr[int32](10),
	})
	if err != nil {
		log.Warn("categorization failed, using default", "merchant", merchant, "error", err)
		return taxonomy.CategoryOther
	}

	answer := strings.TrimSpace(resp.Text)
	category, ok := taxonomy.ParseCategory(answer)
	if !ok {
		log.Warn("categorization returned unknown category", "merchant", merchant, "answer", answer)
		return taxonomy.CategoryOther
	}
	return category
}

func categorizationPrompt(merchant, description string) string {
	var b strings.Builder
	b.WriteString("Categorize this transaction into one of these categories: ")
	b.WriteString(strings.Join(taxonomy.CategoryNames(), ", "))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Merchant: %s\n", merchant)
	fmt.Fprintf(&b, "Description: %s\n\n", description)
	b.WriteString("Category hints:\n")
	for _, c := range taxonomy.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", c, taxonomy.CategoryHints[c])
	}
	b.WriteString("\nRespond with only the category name.")
	return b.String()
}
