package dto

type DailyTotal struct {
	Date   string  `json:"date"` // YYYY-MM-DD in the configured zone
	Amount float64 `json:"amount"`
}

// AutomatedVsManual splits spend by how the transaction was recorded.
type AutomatedVsManual struct {
	Automated float64 `json:"automated"`
	Manual    float64 `json:"manual"`
}

type Analytics struct {
	PeriodDays         int                      `json:"periodDays"`
	TotalSpent         float64                  `json:"totalSpent"`
	TransactionCount   int                      `json:"transactionCount"`
	AverageTransaction float64                  `json:"averageTransaction"`
	CategoryBreakdown  map[string]CategoryTotal `json:"categoryBreakdown"`
	DailySpending      []DailyTotal             `json:"dailySpending"`
	TopMerchants       []MerchantTotal          `json:"topMerchants"`
	AutomatedVsManual  AutomatedVsManual        `json:"automatedVsManual"`
}
