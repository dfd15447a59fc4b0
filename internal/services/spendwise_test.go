package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/internal/taxonomy"
	"github.com/GregMSThompson/spendwise/pkg/helpers"
)

type stubSpendwiseTxStore struct {
	lastQuery    dto.TransactionQuery
	lastVerified bool
	lastCategory *taxonomy.Category
	err          error
}

func (s *stubSpendwiseTxStore) Find(_ context.Context, _ string, q dto.TransactionQuery) (dto.TransactionPage, error) {
	s.lastQuery = q
	return dto.TransactionPage{CurrentPage: q.Page}, s.err
}

func (s *stubSpendwiseTxStore) UpdateVerification(_ context.Context, _ string, id string, verified bool, category *taxonomy.Category) (*models.UPITransaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastVerified = verified
	s.lastCategory = category
	out := &models.UPITransaction{TransactionID: id, Verified: verified, Category: taxonomy.CategoryOther}
	if category != nil {
		out.Category = *category
	}
	return out, nil
}

type stubConfigWriter struct {
	saved *models.EmailConfig
	err   error
}

func (s *stubConfigWriter) Get(_ context.Context, _ string) (*models.EmailConfig, error) {
	if s.saved == nil {
		return nil, errs.NewConfigNotFoundError()
	}
	return s.saved, nil
}

func (s *stubConfigWriter) Upsert(_ context.Context, cfg *models.EmailConfig) error {
	if s.err != nil {
		return s.err
	}
	s.saved = cfg
	return nil
}

type stubPasswordWriter struct {
	stored map[string]string
	err    error
}

func (s *stubPasswordWriter) StorePassword(_ context.Context, uid, password string) error {
	if s.err != nil {
		return s.err
	}
	if s.stored == nil {
		s.stored = map[string]string{}
	}
	s.stored[uid] = password
	return nil
}

func TestListTransactionsClampsPaging(t *testing.T) {
	store := &stubSpendwiseTxStore{}
	svc := NewSpendwiseService(store, &stubConfigWriter{}, &stubPasswordWriter{})

	if _, err := svc.ListTransactions(helpers.TestCtx(), "uid-1", dto.TransactionQuery{Page: 0, Limit: 500}); err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if store.lastQuery.Page != 1 || store.lastQuery.Limit != dto.MaxPageLimit {
		t.Fatalf("query = %+v", store.lastQuery)
	}

	if _, err := svc.ListTransactions(helpers.TestCtx(), "uid-1", dto.TransactionQuery{}); err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if store.lastQuery.Limit != dto.DefaultPageLimit {
		t.Fatalf("limit = %d, want %d", store.lastQuery.Limit, dto.DefaultPageLimit)
	}
}

func TestListTransactionsRejectsHugePage(t *testing.T) {
	store := &stubSpendwiseTxStore{}
	svc := NewSpendwiseService(store, &stubConfigWriter{}, &stubPasswordWriter{})

	_, err := svc.ListTransactions(helpers.TestCtx(), "uid-1", dto.TransactionQuery{Page: math.MaxInt, Limit: dto.MaxPageLimit})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.lastQuery.Page != 0 {
		t.Fatalf("store queried with page %d", store.lastQuery.Page)
	}

	if _, err := svc.ListTransactions(helpers.TestCtx(), "uid-1", dto.TransactionQuery{Page: dto.MaxPage, Limit: dto.MaxPageLimit}); err != nil {
		t.Fatalf("last allowed page rejected: %v", err)
	}
}

func TestListTransactionsRejectsInvertedRange(t *testing.T) {
	svc := NewSpendwiseService(&stubSpendwiseTxStore{}, &stubConfigWriter{}, &stubPasswordWriter{})
	start := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	_, err := svc.ListTransactions(helpers.TestCtx(), "uid-1", dto.TransactionQuery{StartDate: &start, EndDate: &end})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestVerifyTransaction(t *testing.T) {
	store := &stubSpendwiseTxStore{}
	svc := NewSpendwiseService(store, &stubConfigWriter{}, &stubPasswordWriter{})

	got, err := svc.VerifyTransaction(helpers.TestCtx(), "uid-1", "tx-1", dto.VerifyTransactionRequest{
		Verified: helpers.Ptr(true),
		Category: helpers.Ptr("Travel"),
	})
	if err != nil {
		t.Fatalf("VerifyTransaction: %v", err)
	}
	if !got.Verified || got.Category != taxonomy.CategoryTravel {
		t.Fatalf("unexpected transaction: %+v", got)
	}

	_, err = svc.VerifyTransaction(helpers.TestCtx(), "uid-1", "tx-1", dto.VerifyTransactionRequest{
		Verified: helpers.Ptr(true),
		Category: helpers.Ptr("travel"),
	})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for lowercase category, got %v", err)
	}
}

func TestVerifyTransactionNotFound(t *testing.T) {
	store := &stubSpendwiseTxStore{err: errs.NewNotFoundError("transaction not found")}
	svc := NewSpendwiseService(store, &stubConfigWriter{}, &stubPasswordWriter{})

	_, err := svc.VerifyTransaction(helpers.TestCtx(), "uid-1", "missing", dto.VerifyTransactionRequest{Verified: helpers.Ptr(false)})
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSaveEmailConfigDefaults(t *testing.T) {
	configs := &stubConfigWriter{}
	passwords := &stubPasswordWriter{}
	svc := NewSpendwiseService(&stubSpendwiseTxStore{}, configs, passwords)

	cfg, err := svc.SaveEmailConfig(helpers.TestCtx(), "uid-1", dto.EmailConfigRequest{
		Email: "user@example.com",
		IMAP:  dto.IMAPConfigRequest{Host: "imap.gmail.com", User: "user@example.com", Password: "app-pass"},
		NotificationSettings: &dto.NotificationSettingsRequest{
			WeeklyReport: helpers.Ptr(false),
			Phone:        "+919800000000",
		},
	})
	if err != nil {
		t.Fatalf("SaveEmailConfig: %v", err)
	}
	if passwords.stored["uid-1"] != "app-pass" {
		t.Fatalf("password not stored")
	}
	if configs.saved != cfg || !cfg.IMAP.HasPassword {
		t.Fatalf("config not saved with password flag: %+v", cfg)
	}
	if cfg.IMAP.Port != 993 || !cfg.IMAP.Secure || !cfg.IsActive {
		t.Fatalf("imap defaults not applied: %+v", cfg.IMAP)
	}
	if len(cfg.SupportedBanks) != len(taxonomy.DefaultPlatforms) {
		t.Fatalf("banks = %v", cfg.SupportedBanks)
	}
	ns := cfg.NotificationSettings
	if !ns.SMSEnabled || !ns.DailySummary || ns.WeeklyReport || !ns.SpendingAlerts {
		t.Fatalf("notification defaults = %+v", ns)
	}
}

func TestSaveEmailConfigPasswordFailure(t *testing.T) {
	configs := &stubConfigWriter{}
	svc := NewSpendwiseService(&stubSpendwiseTxStore{}, configs, &stubPasswordWriter{err: errs.NewExternalServiceError("secretmanager", true, "unavailable", nil)})

	_, err := svc.SaveEmailConfig(helpers.TestCtx(), "uid-1", dto.EmailConfigRequest{
		Email: "user@example.com",
		IMAP:  dto.IMAPConfigRequest{Host: "imap.gmail.com", User: "user@example.com", Password: "p"},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if configs.saved != nil {
		t.Fatalf("config must not be written without a stored password")
	}
}
