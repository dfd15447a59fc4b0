package services

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/extract"
	"github.com/GregMSThompson/spendwise/internal/mailtext"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/taxonomy"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

// SenderAllowList is matched against the From header; any one entry suffices.
var SenderAllowList = []string{"paytm", "phonepe", "googlepay", "amazon", "flipkart"}

// IngestWindow bounds how far back the mailbox search looks.
const IngestWindow = 24 * time.Hour

type ingestionConfigStore interface {
	Get(ctx context.Context, uid string) (*models.EmailConfig, error)
	TouchProcessed(ctx context.Context, uid string, at time.Time) error
}

type mailboxPasswordStore interface {
	GetPassword(ctx context.Context, uid string) (string, error)
}

type mailClient interface {
	Collect(ctx context.Context, p dto.MailboxParams, q dto.MailSearch) ([]dto.MailMessage, error)
}

type ingestionTxStore interface {
	Exists(ctx context.Context, externalID string) (bool, error)
	InsertIfNew(ctx context.Context, uid string, t *models.UPITransaction) (*models.UPITransaction, error)
}

type categorizer interface {
	Categorize(ctx context.Context, merchant, description string) taxonomy.Category
}

type ingestionService struct {
	configs    ingestionConfigStore
	passwords  mailboxPasswordStore
	mail       mailClient
	txs        ingestionTxStore
	categories categorizer
	loc        *time.Location
	clockNow   func() time.Time
	newID      func() string
}

// NewIngestionService reads mail dates in loc, the zone summaries are built in.
func NewIngestionService(configs ingestionConfigStore, passwords mailboxPasswordStore, mail mailClient, txs ingestionTxStore, categories categorizer, loc *time.Location) *ingestionService {
	if loc == nil {
		loc = time.UTC
	}
	return &ingestionService{
		configs:    configs,
		passwords:  passwords,
		mail:       mail,
		txs:        txs,
		categories: categories,
		loc:        loc,
		clockNow:   time.Now,
		newID:      uuid.NewString,
	}
}

// ProcessUser pulls recent payment mail for uid and persists every transaction
// not seen before. Only newly inserted transactions are returned.
func (s *ingestionService) ProcessUser(ctx context.Context, uid string) ([]models.UPITransaction, error) {
	log := logger.FromContext(ctx).With("uid", uid)

	cfg, err := s.configs.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !cfg.IsActive {
		return nil, errs.NewConfigNotFoundError()
	}

	password, err := s.passwords.GetPassword(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := s.clockNow().In(s.loc)
	messages, err := s.mail.Collect(ctx, dto.MailboxParams{
		Host:     cfg.IMAP.Host,
		Port:     cfg.IMAP.Port,
		Secure:   cfg.IMAP.Secure,
		User:     cfg.IMAP.User,
		Password: password,
	}, dto.MailSearch{
		Since:      now.Add(-IngestWindow),
		UnseenOnly: true,
		Senders:    SenderAllowList,
	})
	if err != nil {
		log.Error("mailbox fetch failed", "error", err)
		return nil, err
	}
	log.Info("fetched payment mail", "messages", len(messages))

	inserted := make([]models.UPITransaction, 0)
	for _, msg := range messages {
		tx, ok := s.ingestMessage(ctx, log, uid, msg, now)
		if ok {
			inserted = append(inserted, *tx)
		}
	}

	if err := s.configs.TouchProcessed(ctx, uid, now); err != nil {
		log.Warn("failed to stamp lastProcessedAt", "error", err)
	}

	log.Info("ingestion complete", "messages", len(messages), "inserted", len(inserted))
	return inserted, nil
}

func (s *ingestionService) ingestMessage(ctx context.Context, log *slog.Logger, uid string, msg dto.MailMessage, now time.Time) (*models.UPITransaction, bool) {
	decoded, err := mailtext.Decode(bytes.NewReader(msg.Raw))
	if err != nil {
		log.Debug("skipping undecodable message", "seq", msg.SeqNum, "error", err)
		return nil, false
	}

	cand, ok := extract.Extract(decoded.Body, now)
	if !ok {
		log.Debug("no payment template matched", "seq", msg.SeqNum, "subject", decoded.Subject)
		return nil, false
	}

	// Cheap skip before the model call; InsertIfNew still decides uniqueness.
	exists, err := s.txs.Exists(ctx, cand.ExternalID)
	if err != nil {
		log.Warn("duplicate check failed", "external_id", cand.ExternalID, "error", err)
		return nil, false
	}
	if exists {
		return nil, false
	}

	amount, _ := cand.Amount.Float64()
	tx := &models.UPITransaction{
		TransactionID: s.newID(),
		UserID:        uid,
		ExternalID:    cand.ExternalID,
		Amount:        amount,
		MerchantName:  cand.MerchantName,
		Category:      s.categories.Categorize(ctx, cand.MerchantName, cand.Description),
		PaymentMethod: cand.Channel,
		Platform:      cand.Platform,
		Date:          cand.Date,
		Description:   cand.Description,
		IsAutomated:   true,
		Confidence:    models.DefaultConfidence,
		RawSource:     decoded.Body,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	saved, err := s.txs.InsertIfNew(ctx, uid, tx)
	if err != nil {
		log.Error("failed to persist transaction", "external_id", cand.ExternalID, "error", err)
		return nil, false
	}
	if saved == nil {
		log.Debug("transaction already recorded", "external_id", cand.ExternalID)
		return nil, false
	}
	return saved, true
}
