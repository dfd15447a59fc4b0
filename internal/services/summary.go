package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/spendwise/internal/dto"
	"github.com/GregMSThompson/spendwise/internal/models"
)

// DefaultWindowDays is the trailing window for analytics and the dashboard.
const DefaultWindowDays = 30

const (
	weeklyDays        = 7
	topMerchantLimit  = 5
	analyticsMerchant = 10
)

type bucket struct {
	amount decimal.Decimal
	count  int
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// summarize aggregates txs. Ties for the top category go to the earlier name.
func summarize(txs []models.UPITransaction) dto.SpendingSummary {
	total := decimal.Zero
	byCategory := map[string]*bucket{}
	for _, t := range txs {
		amt := decimal.NewFromFloat(t.Amount)
		total = total.Add(amt)
		b, ok := byCategory[string(t.Category)]
		if !ok {
			b = &bucket{}
			byCategory[string(t.Category)] = b
		}
		b.amount = b.amount.Add(amt)
		b.count++
	}

	out := dto.SpendingSummary{
		TotalSpent:       money(total),
		TransactionCount: len(txs),
		Categories:       make(map[string]dto.CategoryTotal, len(byCategory)),
	}
	if len(txs) > 0 {
		out.AverageTransaction = money(total.Div(decimal.NewFromInt(int64(len(txs)))))
	}

	var top string
	topAmount := decimal.Zero
	for name, b := range byCategory {
		out.Categories[name] = dto.CategoryTotal{Amount: money(b.amount), Count: b.count}
		switch cmp := b.amount.Cmp(topAmount); {
		case top == "", cmp > 0, cmp == 0 && name < top:
			top, topAmount = name, b.amount
		}
	}
	out.TopCategory = top
	return out
}

// summarizeWeek adds the weekly-only fields. Active days are counted as
// distinct calendar dates in loc.
func summarizeWeek(txs []models.UPITransaction, loc *time.Location) dto.SpendingSummary {
	out := summarize(txs)

	days := map[string]struct{}{}
	for _, t := range txs {
		days[t.Date.In(loc).Format(time.DateOnly)] = struct{}{}
	}
	out.ActiveDays = len(days)
	out.DailyAverage = money(decimal.NewFromFloat(out.TotalSpent).Div(decimal.NewFromInt(weeklyDays)))
	out.TopMerchants = topMerchants(txs, topMerchantLimit)
	return out
}

func topMerchants(txs []models.UPITransaction, limit int) []dto.MerchantTotal {
	byMerchant := map[string]*bucket{}
	for _, t := range txs {
		b, ok := byMerchant[t.MerchantName]
		if !ok {
			b = &bucket{}
			byMerchant[t.MerchantName] = b
		}
		b.amount = b.amount.Add(decimal.NewFromFloat(t.Amount))
		b.count++
	}

	out := make([]dto.MerchantTotal, 0, len(byMerchant))
	for name, b := range byMerchant {
		out = append(out, dto.MerchantTotal{Merchant: name, Amount: money(b.amount), Count: b.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Merchant < out[j].Merchant
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortedCategories orders a category map by amount, largest first.
func sortedCategories(m map[string]dto.CategoryTotal) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := m[names[i]].Amount, m[names[j]].Amount
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})
	return names
}

// dayBounds returns the first and last instant of t's calendar day in loc.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Millisecond)
}
