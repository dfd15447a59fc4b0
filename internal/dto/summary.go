package dto

type CategoryTotal struct {
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

type MerchantTotal struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

// SpendingSummary is computed on demand over a window and never persisted.
// Weekly summaries also fill TopMerchants, ActiveDays and DailyAverage.
type SpendingSummary struct {
	TotalSpent         float64                  `json:"totalSpent"`
	TransactionCount   int                      `json:"transactionCount"`
	AverageTransaction float64                  `json:"averageTransaction"`
	Categories         map[string]CategoryTotal `json:"categories"`
	TopCategory        string                   `json:"topCategory,omitempty"`
	TopMerchants       []MerchantTotal          `json:"topMerchants,omitempty"`
	ActiveDays         int                      `json:"activeDays,omitempty"`
	DailyAverage       float64                  `json:"dailyAverage,omitempty"`
}

type DailySummaryResult struct {
	Date    string          `json:"date"`
	Summary SpendingSummary `json:"summary"`
}
