package services

import (
	"context"
	"fmt"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/taxonomy"
	"github.com/GregMSThompson/spendwise/pkg/helpers"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

const defaultIMAPPort = 993

type spendwiseTxStore interface {
	Find(ctx context.Context, uid string, q dto.TransactionQuery) (dto.TransactionPage, error)
	UpdateVerification(ctx context.Context, uid, id string, verified bool, category *taxonomy.Category) (*models.UPITransaction, error)
}

type spendwiseConfigStore interface {
	Get(ctx context.Context, uid string) (*models.EmailConfig, error)
	Upsert(ctx context.Context, cfg *models.EmailConfig) error
}

type mailboxPasswordWriter interface {
	StorePassword(ctx context.Context, uid, password string) error
}

type spendwiseService struct {
	txs       spendwiseTxStore
	configs   spendwiseConfigStore
	passwords mailboxPasswordWriter
}

func NewSpendwiseService(txs spendwiseTxStore, configs spendwiseConfigStore, passwords mailboxPasswordWriter) *spendwiseService {
	return &spendwiseService{
		txs:       txs,
		configs:   configs,
		passwords: passwords,
	}
}

func (s *spendwiseService) ListTransactions(ctx context.Context, uid string, q dto.TransactionQuery) (dto.TransactionPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > dto.MaxPage {
		return dto.TransactionPage{}, errs.NewValidationError(fmt.Sprintf("page must not exceed %d", dto.MaxPage))
	}
	switch {
	case q.Limit <= 0:
		q.Limit = dto.DefaultPageLimit
	case q.Limit > dto.MaxPageLimit:
		q.Limit = dto.MaxPageLimit
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return dto.TransactionPage{}, errs.NewValidationError("endDate must not be before startDate")
	}
	return s.txs.Find(ctx, uid, q)
}

func (s *spendwiseService) VerifyTransaction(ctx context.Context, uid, id string, req dto.VerifyTransactionRequest) (*models.UPITransaction, error) {
	log := logger.FromContext(ctx)

	var category *taxonomy.Category
	if req.Category != nil {
		c, ok := taxonomy.ParseCategory(*req.Category)
		if !ok {
			return nil, errs.NewValidationError("unknown category")
		}
		category = &c
	}

	tx, err := s.txs.UpdateVerification(ctx, uid, id, helpers.Value(req.Verified), category)
	if err != nil {
		return nil, err
	}
	log.Info("transaction verification updated", "transaction_id", id, "verified", tx.Verified, "category", tx.Category)
	return tx, nil
}

func (s *spendwiseService) GetEmailConfig(ctx context.Context, uid string) (*models.EmailConfig, error) {
	return s.configs.Get(ctx, uid)
}

// SaveEmailConfig stores the mailbox password in Secret Manager before the
// config document, so a saved config always has a readable password.
func (s *spendwiseService) SaveEmailConfig(ctx context.Context, uid string, req dto.EmailConfigRequest) (*models.EmailConfig, error) {
	log := logger.FromContext(ctx)

	cfg := &models.EmailConfig{
		UserID:   uid,
		Email:    req.Email,
		IsActive: helpers.ValueOr(req.IsActive, true),
		IMAP: models.IMAPConfig{
			Host:   req.IMAP.Host,
			Port:   req.IMAP.Port,
			Secure: helpers.ValueOr(req.IMAP.Secure, true),
			User:   req.IMAP.User,
		},
		SupportedBanks:       append([]taxonomy.Platform(nil), taxonomy.DefaultPlatforms...),
		NotificationSettings: notificationSettings(req.NotificationSettings),
	}
	if cfg.IMAP.Port == 0 {
		cfg.IMAP.Port = defaultIMAPPort
	}
	if len(req.SupportedBanks) > 0 {
		banks := make([]taxonomy.Platform, 0, len(req.SupportedBanks))
		for _, b := range req.SupportedBanks {
			p, ok := taxonomy.ParsePlatform(b)
			if !ok {
				return nil, errs.NewValidationError("unsupported bank " + b)
			}
			banks = append(banks, p)
		}
		cfg.SupportedBanks = banks
	}

	if err := s.passwords.StorePassword(ctx, uid, req.IMAP.Password); err != nil {
		log.Error("failed to store mailbox password", "error", err)
		return nil, err
	}
	cfg.IMAP.HasPassword = true

	if err := s.configs.Upsert(ctx, cfg); err != nil {
		log.Error("failed to save email config", "error", err)
		return nil, err
	}

	log.Info("email config saved", "host", cfg.IMAP.Host, "active", cfg.IsActive, "banks", len(cfg.SupportedBanks))
	return cfg, nil
}

// notificationSettings treats omitted flags as enabled.
func notificationSettings(req *dto.NotificationSettingsRequest) models.NotificationSettings {
	if req == nil {
		req = &dto.NotificationSettingsRequest{}
	}
	return models.NotificationSettings{
		SMSEnabled:     helpers.ValueOr(req.SMSEnabled, true),
		DailySummary:   helpers.ValueOr(req.DailySummary, true),
		WeeklyReport:   helpers.ValueOr(req.WeeklyReport, true),
		SpendingAlerts: helpers.ValueOr(req.SpendingAlerts, true),
		Phone:          req.Phone,
	}
}
