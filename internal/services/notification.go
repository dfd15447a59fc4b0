package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/models"
	"github.com/GregMSThompson/spendwise/pkg/helpers"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

// AlertThreshold is exclusive: a payment of exactly this amount does not alert.
var AlertThreshold = decimal.NewFromInt(500)

const fallbackInsight = "Great job tracking your expenses! Keep monitoring your spending habits."

type windowTxStore interface {
	FindInWindow(ctx context.Context, uid string, start, end time.Time) ([]models.UPITransaction, error)
}

type notificationConfigStore interface {
	Get(ctx context.Context, uid string) (*models.EmailConfig, error)
}

type smsSender interface {
	Send(ctx context.Context, to, body string) error
}

type notificationService struct {
	txs      windowTxStore
	configs  notificationConfigStore
	ai       textGenerator
	sms      smsSender
	loc      *time.Location
	printer  *message.Printer
	clockNow func() time.Time
}

func NewNotificationService(txs windowTxStore, configs notificationConfigStore, ai textGenerator, sms smsSender, loc *time.Location) *notificationService {
	if loc == nil {
		loc = time.UTC
	}
	return &notificationService{
		txs:      txs,
		configs:  configs,
		ai:       ai,
		sms:      sms,
		loc:      loc,
		printer:  message.NewPrinter(language.MustParse("en-IN")),
		clockNow: time.Now,
	}
}

// BuildDailySummary aggregates the calendar day containing date.
func (s *notificationService) BuildDailySummary(ctx context.Context, uid string, date time.Time) (dto.DailySummaryResult, error) {
	start, end := dayBounds(date, s.loc)
	txs, err := s.txs.FindInWindow(ctx, uid, start, end)
	if err != nil {
		return dto.DailySummaryResult{}, err
	}
	return dto.DailySummaryResult{
		Date:    start.Format(time.DateOnly),
		Summary: summarize(txs),
	}, nil
}

// SendDailySummary texts the day's summary. It reports false without error when
// the user has opted out or spent nothing that day.
func (s *notificationService) SendDailySummary(ctx context.Context, uid string, date *time.Time) (bool, error) {
	log := logger.FromContext(ctx).With("uid", uid)

	cfg, err := s.configs.Get(ctx, uid)
	if err != nil {
		return false, err
	}
	ns := cfg.NotificationSettings
	if !ns.DailySummary || !ns.CanText() {
		log.Debug("daily summary disabled")
		return false, nil
	}

	day := helpers.ValueOr(date, s.clockNow())
	result, err := s.BuildDailySummary(ctx, uid, day)
	if err != nil {
		return false, err
	}
	if result.Summary.TransactionCount == 0 {
		log.Debug("no transactions for daily summary", "date", result.Date)
		return false, nil
	}

	insight := s.insight(ctx, result.Summary)
	if err := s.sms.Send(ctx, ns.Phone, s.formatDaily(result.Summary, insight)); err != nil {
		return false, err
	}
	log.Info("daily summary sent", "date", result.Date, "transactions", result.Summary.TransactionCount)
	return true, nil
}

// SendWeeklySummary covers the trailing seven days ending now.
func (s *notificationService) SendWeeklySummary(ctx context.Context, uid string) (bool, error) {
	log := logger.FromContext(ctx).With("uid", uid)

	cfg, err := s.configs.Get(ctx, uid)
	if err != nil {
		return false, err
	}
	ns := cfg.NotificationSettings
	if !ns.WeeklyReport || !ns.CanText() {
		log.Debug("weekly report disabled")
		return false, nil
	}

	now := s.clockNow()
	txs, err := s.txs.FindInWindow(ctx, uid, now.AddDate(0, 0, -weeklyDays), now)
	if err != nil {
		return false, err
	}
	if len(txs) == 0 {
		return false, nil
	}

	summary := summarizeWeek(txs, s.loc)
	if err := s.sms.Send(ctx, ns.Phone, s.formatWeekly(summary)); err != nil {
		return false, err
	}
	log.Info("weekly report sent", "transactions", summary.TransactionCount, "active_days", summary.ActiveDays)
	return true, nil
}

// SendSpendingAlert texts one alert for a single large payment.
func (s *notificationService) SendSpendingAlert(ctx context.Context, uid string, tx models.UPITransaction) (bool, error) {
	if !decimal.NewFromFloat(tx.Amount).GreaterThan(AlertThreshold) {
		return false, nil
	}

	cfg, err := s.configs.Get(ctx, uid)
	if err != nil {
		return false, err
	}
	ns := cfg.NotificationSettings
	if !ns.SpendingAlerts || !ns.CanText() {
		return false, nil
	}

	if err := s.sms.Send(ctx, ns.Phone, s.formatAlert(tx)); err != nil {
		return false, err
	}
	logger.FromContext(ctx).Info("spending alert sent", "uid", uid, "transaction_id", tx.TransactionID, "amount", tx.Amount)
	return true, nil
}

func (s *notificationService) insight(ctx context.Context, summary dto.SpendingSummary) string {
	if s.ai == nil {
		return fallbackInsight
	}
	resp, err := s.ai.GenerateContent(ctx, dto.GenerateRequest{
		System: "You are a friendly personal finance assistant.",
		Prompt: s.insightPrompt(summary),
	})
	text := strings.TrimSpace(resp.Text)
	if err != nil || text == "" {
		logger.FromContext(ctx).Warn("insight generation failed, using fallback", "error", err)
		return fallbackInsight
	}
	return text
}

func (s *notificationService) insightPrompt(summary dto.SpendingSummary) string {
	var b strings.Builder
	b.WriteString("Analyze this daily spending data and provide 2-3 brief insights and recommendations.\n\n")
	fmt.Fprintf(&b, "Total spent: %s\n", s.rupees(summary.TotalSpent))
	fmt.Fprintf(&b, "Transactions: %d\n", summary.TransactionCount)
	fmt.Fprintf(&b, "Top category: %s\n", summary.TopCategory)
	b.WriteString("Categories:\n")
	for _, name := range sortedCategories(summary.Categories) {
		c := summary.Categories[name]
		fmt.Fprintf(&b, "- %s: %s across %d payments\n", name, s.rupees(c.Amount), c.Count)
	}
	b.WriteString("\nGive one observation about the spending pattern, one actionable tip to save money and, if spending looks reasonable, one word of encouragement. ")
	b.WriteString("Keep it conversational and under 100 words total.")
	return b.String()
}

func (s *notificationService) rupees(v float64) string {
	return s.printer.Sprintf("₹%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

func (s *notificationService) formatDaily(summary dto.SpendingSummary, insight string) string {
	breakdown := make([]string, 0, len(summary.Categories))
	for _, name := range sortedCategories(summary.Categories) {
		breakdown = append(breakdown, name+": "+s.rupees(summary.Categories[name].Amount))
	}

	var b strings.Builder
	b.WriteString("SpendWise Daily Summary\n\n")
	fmt.Fprintf(&b, "Today's spending: %s\n", s.rupees(summary.TotalSpent))
	fmt.Fprintf(&b, "%d transactions\n", summary.TransactionCount)
	fmt.Fprintf(&b, "Top category: %s\n\n", summary.TopCategory)
	fmt.Fprintf(&b, "Breakdown: %s\n\n", strings.Join(breakdown, ", "))
	b.WriteString(insight)
	return b.String()
}

func (s *notificationService) formatWeekly(summary dto.SpendingSummary) string {
	names := sortedCategories(summary.Categories)
	if len(names) > 3 {
		names = names[:3]
	}
	top := make([]string, 0, len(names))
	for _, name := range names {
		top = append(top, name+": "+s.rupees(summary.Categories[name].Amount))
	}

	var b strings.Builder
	b.WriteString("SpendWise Weekly Report\n\n")
	fmt.Fprintf(&b, "Total spent: %s\n", s.rupees(summary.TotalSpent))
	fmt.Fprintf(&b, "Daily average: %s\n", s.rupees(summary.DailyAverage))
	fmt.Fprintf(&b, "Active days: %d/%d\n\n", summary.ActiveDays, weeklyDays)
	fmt.Fprintf(&b, "Top categories: %s", strings.Join(top, ", "))
	return b.String()
}

func (s *notificationService) formatAlert(tx models.UPITransaction) string {
	var b strings.Builder
	b.WriteString("SpendWise Alert\n\n")
	b.WriteString("Large expense detected:\n")
	fmt.Fprintf(&b, "%s at %s\n", s.rupees(tx.Amount), tx.MerchantName)
	fmt.Fprintf(&b, "Category: %s\n", tx.Category)
	fmt.Fprintf(&b, "%s", tx.Date.In(s.loc).Format("02 Jan 2006 15:04"))
	return b.String()
}
