package dto

import "github.com/GregMSThompson/spendwise/internal/models"

type LedgerEntryRequest struct {
	Label  string  `json:"label" validate:"required,max=120"`
	Icon   string  `json:"icon" validate:"omitempty,max=512"`
	Amount float64 `json:"amount" validate:"gt=0"`
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
}

type WindowTotal struct {
	Days    int                  `json:"days"`
	Total   float64              `json:"total"`
	Entries []models.LedgerEntry `json:"entries"`
}

type Dashboard struct {
	TotalBalance       float64              `json:"totalBalance"`
	TotalIncome        float64              `json:"totalIncome"`
	TotalExpense       float64              `json:"totalExpense"`
	RecentIncome       WindowTotal          `json:"recentIncome"`
	RecentExpense      WindowTotal          `json:"recentExpense"`
	RecentTransactions []models.LedgerEntry `json:"recentTransactions"`
}
