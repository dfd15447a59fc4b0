package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

const recentLedgerEntries = 5

type ledgerStore interface {
	Create(ctx context.Context, uid string, e *models.LedgerEntry) error
	List(ctx context.Context, uid string, kind models.LedgerKind, limit int) ([]models.LedgerEntry, error)
	ListCreatedSince(ctx context.Context, uid string, kind models.LedgerKind, since time.Time) ([]models.LedgerEntry, error)
	Sum(ctx context.Context, uid string, kind models.LedgerKind) (float64, error)
	Delete(ctx context.Context, uid string, kind models.LedgerKind, entryID string) error
}

type ledgerService struct {
	store    ledgerStore
	loc      *time.Location
	clockNow func() time.Time
	newID    func() string
}

func NewLedgerService(store ledgerStore, loc *time.Location) *ledgerService {
	if loc == nil {
		loc = time.UTC
	}
	return &ledgerService{
		store:    store,
		loc:      loc,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

func (s *ledgerService) AddEntry(ctx context.Context, uid string, kind models.LedgerKind, req dto.LedgerEntryRequest) (*models.LedgerEntry, error) {
	log := logger.FromContext(ctx)

	date, err := time.ParseInLocation(time.DateOnly, req.Date, s.loc)
	if err != nil {
		return nil, errs.NewValidationError("date must be YYYY-MM-DD")
	}

	entry := &models.LedgerEntry{
		EntryID:   s.newID(),
		UserID:    uid,
		Kind:      kind,
		Label:     req.Label,
		Icon:      req.Icon,
		Amount:    req.Amount,
		Date:      date,
		CreatedAt: s.clockNow(),
	}
	if err := s.store.Create(ctx, uid, entry); err != nil {
		log.Error("failed to save ledger entry", "kind", kind, "error", err)
		return nil, err
	}

	log.Info("ledger entry added", "kind", kind, "entry_id", entry.EntryID)
	return entry, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, uid string, kind models.LedgerKind) ([]models.LedgerEntry, error) {
	return s.store.List(ctx, uid, kind, 0)
}

func (s *ledgerService) DeleteEntry(ctx context.Context, uid string, kind models.LedgerKind, entryID string) error {
	if err := s.store.Delete(ctx, uid, kind, entryID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("ledger entry deleted", "kind", kind, "entry_id", entryID)
	return nil
}

// ExportEntries renders every entry of kind as an xlsx workbook, newest first.
func (s *ledgerService) ExportEntries(ctx context.Context, uid string, kind models.LedgerKind) ([]byte, error) {
	entries, err := s.store.List(ctx, uid, kind, 0)
	if err != nil {
		return nil, err
	}

	sheet, label := "Incomes", "Source"
	if kind == models.LedgerExpense {
		sheet, label = "Expenses", "Category"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{label, "Amount", "Date"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{e.Label, e.Amount, e.Date.In(s.loc).Format(time.DateOnly)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Dashboard combines lifetime totals with the trailing DefaultWindowDays of
// entries, selected by creation time.
func (s *ledgerService) Dashboard(ctx context.Context, uid string) (dto.Dashboard, error) {
	income, err := s.store.Sum(ctx, uid, models.LedgerIncome)
	if err != nil {
		return dto.Dashboard{}, err
	}
	expense, err := s.store.Sum(ctx, uid, models.LedgerExpense)
	if err != nil {
		return dto.Dashboard{}, err
	}

	since := s.clockNow().AddDate(0, 0, -DefaultWindowDays)
	recentIncome, err := s.window(ctx, uid, models.LedgerIncome, since)
	if err != nil {
		return dto.Dashboard{}, err
	}
	recentExpense, err := s.window(ctx, uid, models.LedgerExpense, since)
	if err != nil {
		return dto.Dashboard{}, err
	}

	latestIncome, err := s.store.List(ctx, uid, models.LedgerIncome, recentLedgerEntries)
	if err != nil {
		return dto.Dashboard{}, err
	}
	latestExpense, err := s.store.List(ctx, uid, models.LedgerExpense, recentLedgerEntries)
	if err != nil {
		return dto.Dashboard{}, err
	}
	latest := append(append([]models.LedgerEntry{}, latestIncome...), latestExpense...)
	sort.SliceStable(latest, func(i, j int) bool { return latest[i].Date.After(latest[j].Date) })

	return dto.Dashboard{
		TotalBalance:       money(decimal.NewFromFloat(income).Sub(decimal.NewFromFloat(expense))),
		TotalIncome:        income,
		TotalExpense:       expense,
		RecentIncome:       recentIncome,
		RecentExpense:      recentExpense,
		RecentTransactions: latest,
	}, nil
}

func (s *ledgerService) window(ctx context.Context, uid string, kind models.LedgerKind, since time.Time) (dto.WindowTotal, error) {
	entries, err := s.store.ListCreatedSince(ctx, uid, kind, since)
	if err != nil {
		return dto.WindowTotal{}, err
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}
	return dto.WindowTotal{Days: DefaultWindowDays, Total: money(total), Entries: entries}, nil
}
