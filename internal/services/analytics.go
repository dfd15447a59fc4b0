package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

const maxAnalyticsDays = 366

type analyticsService struct {
	txs      windowTxStore
	loc      *time.Location
	clockNow func() time.Time
}

func NewAnalyticsService(txs windowTxStore, loc *time.Location) *analyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &analyticsService{txs: txs, loc: loc, clockNow: time.Now}
}

// GetAnalytics summarises the trailing period days. A zero period means
// DefaultWindowDays.
func (s *analyticsService) GetAnalytics(ctx context.Context, uid string, period int) (dto.Analytics, error) {
	log := logger.FromContext(ctx)

	if period == 0 {
		period = DefaultWindowDays
	}
	if period < 0 || period > maxAnalyticsDays {
		return dto.Analytics{}, errs.NewValidationError("period must be between 1 and 366 days")
	}

	now := s.clockNow()
	txs, err := s.txs.FindInWindow(ctx, uid, now.AddDate(0, 0, -period), now)
	if err != nil {
		return dto.Analytics{}, err
	}

	out := buildAnalytics(txs, s.loc)
	out.PeriodDays = period
	log.Debug("analytics computed", "period", period, "transactions", out.TransactionCount)
	return out, nil
}

func buildAnalytics(txs []models.UPITransaction, loc *time.Location) dto.Analytics {
	base := summarize(txs)

	daily := map[string]decimal.Decimal{}
	automated, manual := decimal.Zero, decimal.Zero
	for _, t := range txs {
		amt := decimal.NewFromFloat(t.Amount)
		day := t.Date.In(loc).Format(time.DateOnly)
		daily[day] = daily[day].Add(amt)
		if t.IsAutomated {
			automated = automated.Add(amt)
		} else {
			manual = manual.Add(amt)
		}
	}

	days := make([]dto.DailyTotal, 0, len(daily))
	for day, amt := range daily {
		days = append(days, dto.DailyTotal{Date: day, Amount: money(amt)})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return dto.Analytics{
		TotalSpent:         base.TotalSpent,
		TransactionCount:   base.TransactionCount,
		AverageTransaction: base.AverageTransaction,
		CategoryBreakdown:  base.Categories,
		DailySpending:      days,
		TopMerchants:       topMerchants(txs, analyticsMerchant),
		AutomatedVsManual:  dto.AutomatedVsManual{Automated: money(automated), Manual: money(manual)},
	}
}
