package services

import (
	"context"
	"time"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

type activeConfigLister interface {
	ListActive(ctx context.Context, flag models.NotificationFlag) ([]models.EmailConfig, error)
}

type ingester interface {
	ProcessUser(ctx context.Context, uid string) ([]models.UPITransaction, error)
}

type notifier interface {
	SendDailySummary(ctx context.Context, uid string, date *time.Time) (bool, error)
	SendWeeklySummary(ctx context.Context, uid string) (bool, error)
	SendSpendingAlert(ctx context.Context, uid string, tx models.UPITransaction) (bool, error)
}

// CycleReport describes one pass over the active users.
type CycleReport struct {
	Users    int
	Failed   int
	Produced int // transactions ingested or messages sent
}

type automationService struct {
	configs  activeConfigLister
	ingest   ingester
	notify   notifier
	clockNow func() time.Time
}

func NewAutomationService(configs activeConfigLister, ingest ingester, notify notifier) *automationService {
	return &automationService{
		configs:  configs,
		ingest:   ingest,
		notify:   notify,
		clockNow: time.Now,
	}
}

// ProcessAll ingests mail for every active user and alerts on large payments.
func (s *automationService) ProcessAll(ctx context.Context) (CycleReport, error) {
	return s.forEachUser(ctx, "process_emails", models.FlagNone, func(ctx context.Context, uid string) (int, error) {
		txs, err := s.ingest.ProcessUser(ctx, uid)
		if err != nil {
			return 0, err
		}
		for _, tx := range txs {
			if _, err := s.notify.SendSpendingAlert(ctx, uid, tx); err != nil {
				logger.FromContext(ctx).Warn("spending alert failed", "uid", uid, "transaction_id", tx.TransactionID, "error", err)
			}
		}
		return len(txs), nil
	})
}

func (s *automationService) SendDailySummaries(ctx context.Context) (CycleReport, error) {
	return s.forEachUser(ctx, "daily_summary", models.FlagDailySummary, func(ctx context.Context, uid string) (int, error) {
		sent, err := s.notify.SendDailySummary(ctx, uid, nil)
		return boolCount(sent), err
	})
}

func (s *automationService) SendWeeklyReports(ctx context.Context) (CycleReport, error) {
	return s.forEachUser(ctx, "weekly_report", models.FlagWeeklyReport, func(ctx context.Context, uid string) (int, error) {
		sent, err := s.notify.SendWeeklySummary(ctx, uid)
		return boolCount(sent), err
	})
}

// TriggerUser runs an ingest and then the daily summary for a single user.
func (s *automationService) TriggerUser(ctx context.Context, uid string) (dto.TriggerResult, error) {
	txs, err := s.ingest.ProcessUser(ctx, uid)
	if err != nil {
		return dto.TriggerResult{}, err
	}
	sent, err := s.notify.SendDailySummary(ctx, uid, nil)
	if err != nil {
		return dto.TriggerResult{ProcessedCount: len(txs)}, err
	}
	return dto.TriggerResult{ProcessedCount: len(txs), SummarySent: sent}, nil
}

// forEachUser runs fn for each matching config in turn. A failing user is
// logged and skipped; cancellation stops the loop before the next user.
func (s *automationService) forEachUser(ctx context.Context, job string, flag models.NotificationFlag, fn func(context.Context, string) (int, error)) (CycleReport, error) {
	log := logger.FromContext(ctx).With("job", job)
	start := s.clockNow()

	configs, err := s.configs.ListActive(ctx, flag)
	if err != nil {
		log.Error("failed to list active configs", "error", err)
		return CycleReport{}, err
	}

	report := CycleReport{}
	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			log.Warn("cycle interrupted", "completed", report.Users, "remaining", len(configs)-report.Users)
			return report, err
		}
		report.Users++

		n, err := fn(ctx, cfg.UserID)
		if err != nil {
			report.Failed++
			log.Error("user cycle failed", "uid", cfg.UserID, "error", err)
			continue
		}
		report.Produced += n
	}

	log.Info("cycle complete",
		"users", report.Users,
		"failed", report.Failed,
		"produced", report.Produced,
		"duration", s.clockNow().Sub(start),
	)
	return report, nil
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
